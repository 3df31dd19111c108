package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const tokenBytes = 32

// SessionToken returns a new 256-bit session token, base64-encoded.
// Tokens are the session lookup key and must be unguessable.
func SessionToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// APIKey returns a new 256-bit API key, hex-encoded.
func APIKey() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewID returns a new opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}
