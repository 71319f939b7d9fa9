// Package revocation records revoked session tokens in an expiring
// key-value store until their natural expiry.
package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// CheckResult is the outcome of a revocation lookup.
type CheckResult int

const (
	// NotRevoked: the store answered and holds no entry for the token.
	NotRevoked CheckResult = iota
	// Revoked: the token was revoked and has not expired yet.
	Revoked
	// CheckFailed: the store could not be queried. Callers treat this as
	// NotRevoked; session reads stay available while the store is down.
	CheckFailed
)

func (r CheckResult) String() string {
	switch r {
	case NotRevoked:
		return "not_revoked"
	case Revoked:
		return "revoked"
	case CheckFailed:
		return "check_failed"
	default:
		return "unknown"
	}
}

// Store is the revocation list.
type Store interface {
	// Revoke records token as revoked for ttl. A non-positive ttl is a no-op:
	// the token has already expired and needs no entry.
	Revoke(ctx context.Context, token string, ttl time.Duration) error

	// Check reports whether token is revoked. The error is non-nil only
	// together with CheckFailed.
	Check(ctx context.Context, token string) (CheckResult, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error
}

// keyPrefix namespaces revocation entries in a shared Redis.
const keyPrefix = "blacklist:"

// Key derives the store key for a raw token. Tokens are hashed so the
// store never holds a usable credential.
func Key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// ttlSeconds rounds ttl up to whole seconds so an entry never expires
// before the token it guards.
func ttlSeconds(ttl time.Duration) int64 {
	secs := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		secs++
	}
	return secs
}
