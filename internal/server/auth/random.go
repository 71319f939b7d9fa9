package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// randomHex returns 2*size hex characters read from crypto/rand.
func randomHex(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
