// Package token provides secret generation, hashing and wire encoding.
package token

import (
	"encoding/base64"
	"errors"
	"strings"
)

// EncodedLength is the length of an encoded SecretLength secret.
var EncodedLength = base64.URLEncoding.EncodedLen(SecretLength)

// ErrMalformed is returned when an encoded secret cannot be decoded to a
// SecretLength byte secret.
var ErrMalformed = errors.New("token: malformed secret")

// Encode returns the URL-safe base64 form of a secret.
func Encode(secret []byte) string {
	return base64.URLEncoding.EncodeToString(secret)
}

// Decode parses the wire form of a secret.
//
// Padded and unpadded input are both accepted. Anything that does not decode
// to exactly SecretLength bytes is malformed.
func Decode(s string) (Secret, error) {
	if s == "" || len(s) > EncodedLength {
		return nil, ErrMalformed
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, ErrMalformed
	}
	if len(b) != SecretLength {
		return nil, ErrMalformed
	}
	return Secret(b), nil
}
