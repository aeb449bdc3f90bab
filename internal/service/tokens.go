package service

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// newSessionCode returns a URL-safe random assignment code.
func newSessionCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// newViolationToken returns the per-session bearer token that gates
// violation reporting.
func newViolationToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate violation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
