package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// NewToken returns an unguessable, URL-safe bearer token.
func NewToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
