package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, secret string, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(secret, 7*24*time.Hour)
	require.NoError(t, err)
	c.now = func() time.Time { return now }
	return c
}

func TestNewCodec_RejectsBlankSecret(t *testing.T) {
	for _, s := range []string{"", "   ", "\t\n"} {
		_, err := NewCodec(s, time.Hour)
		require.ErrorIs(t, err, ErrMissingSecret)
	}
}

func TestNewCodec_DefaultsValidity(t *testing.T) {
	c, err := NewCodec("k", 0)
	require.NoError(t, err)
	assert.Equal(t, common.DefaultSessionValidity, c.Validity())
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, "super-secret", now)

	for _, id := range []Identity{
		{UserID: "user-123", Role: models.RoleUser},
		{UserID: "seller-9", Role: models.RoleSeller},
	} {
		tok, err := c.Issue(id)
		require.NoError(t, err)

		claims, err := c.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, id, claims.Identity())
		assert.Equal(t, now, claims.IssuedAt.Time.UTC())
		assert.Equal(t, now.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())
		assert.NotEmpty(t, claims.ID)
	}
}

func TestIssue_TokensAreUnique(t *testing.T) {
	c := newTestCodec(t, "k", time.Now())
	a, err := c.Issue(Identity{UserID: "u1", Role: models.RoleUser})
	require.NoError(t, err)
	b, err := c.Issue(Identity{UserID: "u1", Role: models.RoleUser})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_Failures(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := newTestCodec(t, "right-secret", now)
	good, err := c.Issue(Identity{UserID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	expired := newTestCodec(t, "right-secret", now.Add(-8*24*time.Hour))
	expiredTok, err := expired.Issue(Identity{UserID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	other := newTestCodec(t, "wrong-secret", now)
	foreign, err := other.Issue(Identity{UserID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		Role:             models.RoleSeller,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expiredTok,
		"wrong secret": foreign,
		"tampered":     tampered,
		"malformed":    "not.a.jwt",
		"empty":        "",
		"alg none":     noneTok,
		"other alg":    hs512,
		"no expiry":    noExp,
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(tok)
			require.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}

func TestRemainingTTL(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCodec(t, "k", issuedAt)
	tok, err := c.Issue(Identity{UserID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	c.now = func() time.Time { return issuedAt.Add(24 * time.Hour) }
	ttl, err := c.RemainingTTL(tok)
	require.NoError(t, err)
	assert.Equal(t, 6*24*time.Hour, ttl)

	c.now = func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) }
	ttl, err = c.RemainingTTL(tok)
	require.NoError(t, err)
	assert.Equal(t, -24*time.Hour, ttl)
}

func TestRemainingTTL_RejectsForgedToken(t *testing.T) {
	c := newTestCodec(t, "k", time.Now())
	other := newTestCodec(t, "other", time.Now())
	tok, err := other.Issue(Identity{UserID: "u1"})
	require.NoError(t, err)

	_, err = c.RemainingTTL(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
