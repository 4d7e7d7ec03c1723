// Package common defines sentinel errors shared by the repositories, the
// data gateway and the HTTP layer. Callers wrap them with %w and match them
// with errors.Is; the HTTP layer maps each one to a status code exactly once.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Account errors.
	ErrDuplicateEmail     = errors.New("user already exists with this email")
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrWeakPassword       = errors.New("password must be at least 6 chars long")
	ErrInvalidUsername    = errors.New("username must be at least 3 chars long")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Manager history errors.
	ErrNotLinked       = errors.New("fpl manager id not set for this user")
	ErrNoDataAvailable = errors.New("upstream is unavailable and no cached data found")

	// Gateway errors.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotConfigured       = errors.New("not configured")
	ErrConfig              = errors.New("configuration error")
	ErrParse               = errors.New("parse error")
)
