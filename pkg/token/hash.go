// Package token provides secret generation, hashing and wire encoding.
package token

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// DigestLength is the size of a digest in bytes.
const DigestLength = sha512.Size

// ErrInvalidDigest is returned by ParseDigest for malformed input.
var ErrInvalidDigest = errors.New("token: invalid digest")

// Digest is the SHA-512 digest of a secret. It is the storage key of a token.
type Digest [DigestLength]byte

// Hash computes the digest of a secret.
func Hash(secret []byte) Digest {
	return Digest(sha512.Sum512(secret))
}

// String returns the lowercase hex form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, enough to correlate log lines.
func (d Digest) Short() string {
	return d.String()[:12]
}

// ParseDigest parses the hex form produced by String.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if hex.DecodedLen(len(s)) != DigestLength {
		return d, ErrInvalidDigest
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, ErrInvalidDigest
	}
	return d, nil
}

// Equal compares two digests in constant time.
func Equal(a, b Digest) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// Verify reports whether secret hashes to expected.
func Verify(secret []byte, expected Digest) bool {
	return Equal(Hash(secret), expected)
}
