// Package token provides secret generation, hashing and wire encoding for
// opaque bearer tokens.
//
// Secret Format:
//
//   - 48 random bytes from crypto/rand
//   - Wire form: URL-safe base64 with padding (64 characters)
//
// Digest Format:
//
//   - SHA-512 of the raw secret bytes (64 bytes)
//   - Hex form (128 characters) for keys and logs
//
// Security:
//
//   - Secrets are returned to the caller once and never stored
//   - Digests are unkeyed; the 384 bits of secret entropy prevent guessing
//   - Digest comparison is constant-time
package token
