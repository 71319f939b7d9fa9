package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// UserService is the business layer consumed by the handlers.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.Session, error)
	Login(ctx context.Context, identifier, password string) (*services.Session, error)
	Logout(ctx context.Context, token string) bool
	GetProfile(ctx context.Context, id auth.Identity) (*models.User, error)
	GetAddresses(ctx context.Context, id auth.Identity) ([]models.Address, error)
	AddAddress(ctx context.Context, id auth.Identity, a models.Address) ([]models.Address, error)
	DeleteAddress(ctx context.Context, id auth.Identity, addressID string) ([]models.Address, error)
}

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	service UserService
	cookies *auth.Cookies
	metrics metrics.Recorder
	logger  logging.Logger
}

func NewAuthHandler(service UserService, cookies *auth.Cookies, rec metrics.Recorder, logger logging.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		metrics: rec,
		logger:  logger.With("module", "auth_handler"),
	}
}

type userData struct {
	User *models.User `json:"user"`
}

type addressesData struct {
	Addresses []models.Address `json:"addresses"`
}

func addressesPayload(list []models.Address) addressesData {
	if list == nil {
		list = []models.Address{}
	}
	return addressesData{Addresses: list}
}

// outcome is the metrics label for a register or login result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrorConflict):
		return "conflict"
	case errors.Is(err, common.ErrorInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrorValidation):
		return "invalid"
	default:
		return "error"
	}
}

func (h *AuthHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
	}
	return id, ok
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.metrics.RecordRegister("invalid")
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in, errs := validateRegister(req)
	if errs != nil {
		h.metrics.RecordRegister("invalid")
		writeValidation(w, errs)
		return
	}

	sess, err := h.service.Register(r.Context(), in)
	h.metrics.RecordRegister(outcome(err))
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}

	h.cookies.Set(w, sess.Token)
	writeData(w, http.StatusCreated, "User registered successfully", userData{User: sess.User})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.metrics.RecordLogin("invalid")
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identifier, errs := validateLogin(req)
	if errs != nil {
		h.metrics.RecordLogin("invalid")
		writeValidation(w, errs)
		return
	}

	sess, err := h.service.Login(r.Context(), identifier, req.Password)
	h.metrics.RecordLogin(outcome(err))
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}

	h.cookies.Set(w, sess.Token)
	writeData(w, http.StatusOK, "Login successful", userData{User: sess.User})
}

// Logout handles POST /api/auth/logout. The cookie is cleared whether or
// not the token could be revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.TokenFromContext(r.Context()); ok {
		h.metrics.RecordLogout(h.service.Logout(r.Context(), token))
	}

	h.cookies.Clear(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}

	writeData(w, http.StatusOK, "User profile fetched successfully", userData{User: user})
}

// ListAddresses handles GET /api/auth/me/addresses.
func (h *AuthHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	list, err := h.service.GetAddresses(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}

	writeData(w, http.StatusOK, "Addresses fetched successfully", addressesPayload(list))
}

// AddAddress handles POST /api/auth/me/addresses.
func (h *AuthHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	address, errs := validateAddress(req)
	if errs != nil {
		writeValidation(w, errs)
		return
	}

	list, err := h.service.AddAddress(r.Context(), id, address)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}

	writeData(w, http.StatusCreated, "Address added successfully", addressesPayload(list))
}

// DeleteAddress handles DELETE /api/auth/me/addresses/{addressId}.
func (h *AuthHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	addressID := chi.URLParam(r, "addressId")
	if errs := validateAddressID(addressID); errs != nil {
		writeValidation(w, errs)
		return
	}

	list, err := h.service.DeleteAddress(r.Context(), id, addressID)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}

	writeData(w, http.StatusOK, "Address deleted successfully", addressesPayload(list))
}
