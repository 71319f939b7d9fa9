// Package common defines shared constants and sentinel errors used across
// the layers of the auth service. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Request validation errors.
	ErrorValidation = errors.New("validation error")

	// Auth errors (invalid, expired, tampered or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
