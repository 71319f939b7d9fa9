package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *BcryptHasher {
	t.Helper()
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewBcryptHasher_RejectsBadCost(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost - 1)
	require.Error(t, err)
	_, err = NewBcryptHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)
}

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	for _, p := range []string{"StrongP@ssw0rd", "x", "pässwörd-ünïcode", "with spaces and $ymbols!"} {
		hash, err := h.Hash(p)
		require.NoError(t, err)
		assert.NotEqual(t, p, hash)
		assert.True(t, h.Verify(p, hash), p)
		assert.False(t, h.Verify(p+"1", hash), p)
	}
}

func TestBcryptHasher_SaltedOutputs(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("StrongP@ssw0rd")
	require.NoError(t, err)
	b, err := h.Hash("StrongP@ssw0rd")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("StrongP@ssw0rd", a))
	assert.True(t, h.Verify("StrongP@ssw0rd", b))
}

func TestBcryptHasher_UsesConfiguredCost(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)

	hash, err := h.Hash("StrongP@ssw0rd")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	h := newTestHasher(t)
	_, err := h.Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestBcryptHasher_VerifyNeverErrorsOnGarbage(t *testing.T) {
	h := newTestHasher(t)
	assert.False(t, h.Verify("p", ""))
	assert.False(t, h.Verify("p", "not-a-hash"))
	assert.False(t, h.Verify("", h.DummyHash()))
	assert.False(t, h.Verify("StrongP@ssw0rd", h.DummyHash()))
}
