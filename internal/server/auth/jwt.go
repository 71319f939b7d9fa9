// Package auth implements the credential and session primitives of the
// service: password hashing, signed session tokens, the session cookie and
// the request identity carried in a context.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMissingSecret is returned when the codec is built without a signing key.
var ErrMissingSecret = errors.New("token signing secret is not configured")

// Claims is the payload of a session token: the standard registered claims
// (sub, iat, exp, jti) plus the user's role.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// Identity returns the authenticated principal described by the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.Subject, Role: c.Role}
}

// Codec issues and verifies HS256-signed session tokens. The secret is
// fixed at construction and shared by all requests.
type Codec struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewCodec returns a Codec signing with secret. A blank secret is rejected.
func NewCodec(secret string, validity time.Duration) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if validity <= 0 {
		validity = common.DefaultSessionValidity
	}
	return &Codec{secret: []byte(secret), validity: validity, now: time.Now}, nil
}

// Validity is the lifetime given to every issued token.
func (c *Codec) Validity() time.Duration {
	return c.validity
}

// Issue signs a token for id with issued-at now and expiry now+validity.
func (c *Codec) Issue(id Identity) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		Role: id.Role,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, algorithm and expiry. Every failure is reported
// as common.ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// RemainingTTL is the time left until the token's encoded expiry. It is
// negative for an expired token. The signature must still be valid.
func (c *Codec) RemainingTTL(tokenString string) (time.Duration, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.ExpiresAt == nil {
		return 0, common.ErrInvalidToken
	}

	return claims.ExpiresAt.Sub(c.now()), nil
}

func (c *Codec) keyFunc(*jwt.Token) (any, error) {
	return c.secret, nil
}
