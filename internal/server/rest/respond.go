package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/logging"
)

const (
	msgNotAuthorized = "Not authorized"
	msgServerError   = "Server error"
)

type messageResponse struct {
	Message string `json:"message"`
}

type fieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type validationResponse struct {
	Errors []fieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// route tells writeError which family of endpoint failed; upstream outages
// answer 502 on data routes and 503 on predictions.
type route int

const (
	routeAuth route = iota
	routeData
	routePredictions
)

// writeError maps a service error to a status code and a short message.
// The error itself only goes to the log.
func writeError(ctx context.Context, log logging.Logger, w http.ResponseWriter, rt route, err error) {
	status, msg := classify(rt, err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", "status", status, "error", err)
	} else {
		log.Debug(ctx, "request rejected", "status", status, "error", err)
	}
	writeMessage(w, status, msg)
}

func classify(rt route, err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusBadRequest, "User already exists with this email"
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusBadRequest, "Username is already taken"
	case errors.Is(err, common.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 6 chars long"
	case errors.Is(err, common.ErrInvalidUsername):
		return http.StatusBadRequest, "Username must be at least 3 chars long"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, common.ErrNotLinked):
		return http.StatusBadRequest, "FPL Team ID not set for this user."
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgNotAuthorized
	case errors.Is(err, common.ErrNoDataAvailable):
		return http.StatusServiceUnavailable, "FPL API is unavailable and no cached data found."
	case errors.Is(err, common.ErrNotFound):
		if rt == routePredictions {
			return http.StatusNotFound, "Predictions not found."
		}
		return http.StatusNotFound, "Requested data not found."
	case errors.Is(err, common.ErrNotConfigured), errors.Is(err, common.ErrConfig):
		return http.StatusInternalServerError, "Server configuration error."
	case errors.Is(err, common.ErrParse):
		return http.StatusInternalServerError, "Error parsing upstream data."
	case errors.Is(err, common.ErrUpstreamUnavailable):
		if rt == routePredictions {
			return http.StatusServiceUnavailable, "Prediction service is currently unavailable."
		}
		return http.StatusBadGateway, "Failed to fetch data from FPL API."
	default:
		return http.StatusInternalServerError, msgServerError
	}
}
