package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/fplassistant/internal/server/models"
	"github.com/dmitrijs2005/fplassistant/internal/server/services"
	"github.com/go-playground/validator/v10"
)

type registerRequest struct {
	UserName          string `json:"username" validate:"min=3"`
	Email             string `json:"email" validate:"email"`
	Password          string `json:"password" validate:"min=6"`
	ExternalManagerID *int64 `json:"externalManagerId" validate:"omitempty,gt=0"`
	// FPLTeamID is the field name sent by older clients.
	FPLTeamID *int64 `json:"fplTeamId" validate:"omitempty,gt=0"`
}

func (r *registerRequest) normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.Email = strings.TrimSpace(r.Email)
}

type loginRequest struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"required"`
}

func (r *loginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// normalizer is implemented by requests that clean up fields before validation.
type normalizer interface {
	normalize()
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"username":          "Username must be at least 3 chars long",
	"email":             "Please include a valid email",
	"password":          "Password must be at least 6 chars long",
	"externalManagerId": "Manager ID must be a positive number",
	"fplTeamId":         "Manager ID must be a positive number",
}

type userResponse struct {
	ID                string `json:"id"`
	UserName          string `json:"username"`
	Email             string `json:"email"`
	ExternalManagerID *int64 `json:"externalManagerId"`
	FPLTeamID         *int64 `json:"fplTeamId"`
	Token             string `json:"token,omitempty"`
	IsSpecialUser     bool   `json:"isSpecialUser"`
}

func newUserResponse(u *models.User, token string, special bool) userResponse {
	return userResponse{
		ID:                u.ID,
		UserName:          u.UserName,
		Email:             u.Email,
		ExternalManagerID: u.ManagerID,
		FPLTeamID:         u.ManagerID,
		Token:             token,
		IsSpecialUser:     special,
	}
}

// decode reads a JSON body into v and validates it. On failure it writes
// the 400 response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, fieldMsg map[string]string) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if n, ok := v.(normalizer); ok {
		n.normalize()
	}

	err := s.validate.Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	resp := validationResponse{Errors: make([]fieldError, 0, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := fieldMsg[field]
		if !ok {
			msg = "Invalid value"
		}
		if field == "password" && fe.Tag() == "required" {
			msg = "Password is required"
		}
		resp.Errors = append(resp.Errors, fieldError{Field: field, Msg: msg})
	}
	writeJSON(w, http.StatusBadRequest, resp)
	return false
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req, fieldMessages) {
		return
	}

	managerID := req.ExternalManagerID
	if managerID == nil {
		managerID = req.FPLTeamID
	}

	res, err := s.deps.Users.Register(r.Context(), services.RegisterInput{
		UserName:  req.UserName,
		Email:     req.Email,
		Password:  req.Password,
		ManagerID: managerID,
	})
	if err != nil {
		writeError(r.Context(), s.logger, w, routeAuth, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(res.User, res.Token, res.IsSpecialUser))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req, fieldMessages) {
		return
	}

	res, err := s.deps.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(r.Context(), s.logger, w, routeAuth, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(res.User, res.Token, res.IsSpecialUser))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, newUserResponse(user, "", s.deps.Users.IsSpecialUser(user)))
}

func (s *Server) handleManagerHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	res, err := s.deps.Managers.History(r.Context(), user)
	if err != nil {
		writeError(r.Context(), s.logger, w, routeData, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCurrentGameweek(w http.ResponseWriter, r *http.Request) {
	gw, err := s.deps.League.CurrentGameweek(r.Context())
	if err != nil {
		writeError(r.Context(), s.logger, w, routeData, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"currentGameweek": gw})
}

func (s *Server) handlePreviousFixtures(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Fixtures.Previous(r.Context())
	if err != nil {
		writeError(r.Context(), s.logger, w, routeData, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpcomingFixtures(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Fixtures.Upcoming(r.Context())
	if err != nil {
		writeError(r.Context(), s.logger, w, routeData, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	body, err := s.deps.League.Bootstrap(r.Context())
	if err != nil {
		writeError(r.Context(), s.logger, w, routeData, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.News.Items(r.Context()))
}

func (s *Server) handleLatestPredictions(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Predictions.Latest(r.Context())
	if err != nil {
		writeError(r.Context(), s.logger, w, routePredictions, err)
		return
	}
	writeRawJSON(w, http.StatusOK, doc)
}
