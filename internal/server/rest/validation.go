package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/google/uuid"
)

const (
	maxBodyBytes = 1 << 20

	userNameMinLen = 3
	userNameMaxLen = 30
	passwordMinLen = 8
	// bcrypt ignores input past this length
	passwordMaxBytes = 72
)

var userNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type fieldErrors []FieldError

func (f *fieldErrors) add(field, format string, args ...any) {
	*f = append(*f, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

type fullNameRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type addressRequest struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

func (a addressRequest) model() models.Address {
	return models.Address{
		Street:    strings.TrimSpace(a.Street),
		City:      strings.TrimSpace(a.City),
		State:     strings.TrimSpace(a.State),
		ZipCode:   strings.TrimSpace(a.ZipCode),
		Country:   strings.TrimSpace(a.Country),
		IsDefault: a.IsDefault,
	}
}

type registerRequest struct {
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	FullName  *fullNameRequest `json:"fullName"`
	Role      string           `json:"role"`
	Addresses []addressRequest `json:"addresses"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

var errBadBody = errors.New("malformed request body")

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadBody)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateUserName(errs *fieldErrors, s string) {
	switch {
	case s == "":
		errs.add("username", "username is required")
	case len(s) < userNameMinLen || len(s) > userNameMaxLen:
		errs.add("username", "username must be %d-%d characters long", userNameMinLen, userNameMaxLen)
	case !userNamePattern.MatchString(s):
		errs.add("username", "username can contain letters, numbers, and underscores only")
	}
}

func validateEmail(errs *fieldErrors, s string) {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@")+1:], ".") {
		errs.add("email", "valid email is required")
	}
}

// checkPasswordLength applies the bcrypt input limit shared by
// registration and login.
func checkPasswordLength(errs *fieldErrors, s string) bool {
	if len(s) > passwordMaxBytes {
		errs.add("password", "password must be at most %d bytes", passwordMaxBytes)
		return false
	}
	return true
}

func validatePassword(errs *fieldErrors, s string) {
	if len(s) < passwordMinLen {
		errs.add("password", "password must be at least %d characters", passwordMinLen)
		return
	}
	if !checkPasswordLength(errs, s) {
		return
	}

	var lower, upper, digit, special bool
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		default:
			special = true
		}
	}

	if !lower {
		errs.add("password", "password must contain at least one lowercase letter")
	}
	if !upper {
		errs.add("password", "password must contain at least one uppercase letter")
	}
	if !digit {
		errs.add("password", "password must contain at least one number")
	}
	if !special {
		errs.add("password", "password must contain at least one special character")
	}
}

func blank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}

// validateRegister checks req and returns the service input built from it.
func validateRegister(req registerRequest) (services.RegisterInput, []FieldError) {
	var errs fieldErrors

	userName := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)

	validateUserName(&errs, userName)
	validateEmail(&errs, email)
	validatePassword(&errs, req.Password)

	var fullName models.FullName
	switch {
	case req.FullName == nil:
		errs.add("fullName", "fullName is required")
	default:
		if blank(req.FullName.FirstName) {
			errs.add("fullName.firstName", "firstName is required")
		}
		if blank(req.FullName.LastName) {
			errs.add("fullName.lastName", "lastName is required")
		}
		fullName = models.FullName{
			FirstName: strings.TrimSpace(req.FullName.FirstName),
			LastName:  strings.TrimSpace(req.FullName.LastName),
		}
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		errs.add("role", "role must be either 'user' or 'seller'")
	}

	addresses := make([]models.Address, 0, len(req.Addresses))
	for _, a := range req.Addresses {
		addresses = append(addresses, a.model())
	}

	if len(errs) > 0 {
		return services.RegisterInput{}, errs
	}

	return services.RegisterInput{
		UserName:  userName,
		Email:     email,
		Password:  req.Password,
		FullName:  fullName,
		Role:      role,
		Addresses: addresses,
	}, nil
}

// validateLogin returns the identifier to look the user up by. Email wins
// when both are present.
func validateLogin(req loginRequest) (string, []FieldError) {
	var errs fieldErrors

	identifier := normalizeEmail(req.Email)
	if identifier != "" {
		validateEmail(&errs, identifier)
	} else {
		identifier = strings.TrimSpace(req.Username)
		if identifier == "" {
			errs.add("email", "email or username is required")
		}
	}

	if req.Password == "" {
		errs.add("password", "password is required")
	} else {
		checkPasswordLength(&errs, req.Password)
	}

	if len(errs) > 0 {
		return "", errs
	}
	return identifier, nil
}

func validateAddress(req addressRequest) (models.Address, []FieldError) {
	var errs fieldErrors

	a := req.model()
	for _, f := range []struct{ name, value string }{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	} {
		if f.value == "" {
			errs.add(f.name, "%s is required", f.name)
		}
	}

	if len(errs) > 0 {
		return models.Address{}, errs
	}
	return a, nil
}

func validateAddressID(id string) []FieldError {
	if _, err := uuid.Parse(id); err != nil {
		return []FieldError{{Field: "addressId", Message: "invalid address id"}}
	}
	return nil
}
