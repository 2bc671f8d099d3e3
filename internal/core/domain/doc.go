// Package domain defines the core domain models for authtoken.
//
// Domain models are plain values without IO dependencies:
//
//   - Token: a stored token record, generic over its kind-specific payload
//   - Account: the owner of tokens
//   - Errors: coded domain errors shared by every layer
//
// Raw token secrets never appear in this package; a Token only carries the
// digest of its secret.
package domain
