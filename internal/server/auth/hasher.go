package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted hash; hashing the same password twice yields
	// different strings.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. Any mismatch or
	// malformed hash is simply false.
	Verify(password, hash string) bool

	// DummyHash is a valid hash of a throwaway secret. Verifying against it
	// costs the same as a real check and never succeeds for user input.
	DummyHash() string
}

// BcryptHasher implements PasswordHasher with bcrypt. The cost is the work
// factor; each increment doubles the time spent per hash.
type BcryptHasher struct {
	cost  int
	dummy string
}

// NewBcryptHasher creates a BcryptHasher with the given cost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}

	secret, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("error generating dummy hash: %w", err)
	}

	return &BcryptHasher{cost: cost, dummy: string(dummy)}, nil
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *BcryptHasher) DummyHash() string {
	return h.dummy
}
