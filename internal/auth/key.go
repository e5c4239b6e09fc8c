package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SigningKeyLength is the size in bytes of generated session signing keys.
const SigningKeyLength = 32

// NewSigningKey returns SigningKeyLength random bytes for signing session cookies.
func NewSigningKey() ([]byte, error) {
	key := make([]byte, SigningKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("in internal/auth/key.go/NewSigningKey(): error while `rand.Read()` calling: %w", err)
	}

	return key, nil
}

// SigningKeyFromConfig decodes the base64url encoded key. An empty value
// yields a fresh random key, so sessions do not survive a restart.
func SigningKeyFromConfig(encoded string) (key []byte, generated bool, err error) {
	if encoded == "" {
		key, err = NewSigningKey()
		return key, true, err
	}

	key, err = base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("in internal/auth/key.go/SigningKeyFromConfig(): error while `base64.URLEncoding.DecodeString()` calling: %w", err)
	}

	return key, false, nil
}
