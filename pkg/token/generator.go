// Package token provides secret generation, hashing and wire encoding.
package token

import (
	"crypto/rand"
	"fmt"
)

// SecretLength is the number of random bytes in a secret.
const SecretLength = 48

// Secret is a raw bearer secret. It must never be persisted or logged.
type Secret []byte

// String hides the secret from fmt verbs and structured loggers.
func (s Secret) String() string {
	return "***REDACTED***"
}

// Encode returns the wire form of the secret.
func (s Secret) Encode() string {
	return Encode(s)
}

// Generate returns a new cryptographically secure secret.
//
// A failing randomness source is reported as an error; there is no fallback.
func Generate() (Secret, error) {
	return GenerateWithLength(SecretLength)
}

// GenerateWithLength returns length random bytes.
func GenerateWithLength(length int) (Secret, error) {
	if length <= 0 {
		return nil, fmt.Errorf("token: invalid length %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("token: read random: %w", err)
	}
	return Secret(b), nil
}
