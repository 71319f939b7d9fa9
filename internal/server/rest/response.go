package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// envelope is the body of every response. Data is omitted on errors.
type envelope struct {
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Message: message, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Message: message})
}

func writeValidation(w http.ResponseWriter, errs []FieldError) {
	writeJSON(w, http.StatusBadRequest, envelope{Message: "Validation failed", Errors: errs})
}

const (
	msgUnauthorized       = "Unauthorized"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"
	msgAddressNotFound    = "Address not found"
	msgInternal           = "Internal server error"
)

// errorStatus maps a service error to its status code and client message.
// Unclassified errors are reported as 500 without detail.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, msgUserExists
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, services.ErrAddressNotFound):
		return http.StatusNotFound, msgAddressNotFound
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgUserNotFound
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeError(ctx context.Context, logger logging.Logger, w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "error", err)
	}
	writeMessage(w, status, msg)
}
