package domain

import (
	"time"

	"github.com/yndnr/authtoken-go/pkg/token"
)

// Kind names a token family. Each kind has its own validity window and its
// own payload type.
type Kind string

const (
	// KindAuth authenticates API requests.
	KindAuth Kind = "auth"

	// KindEmailConfirmation proves control of an email address.
	KindEmailConfirmation Kind = "email_confirmation"
)

// DefaultValidity is the window applied to both kinds unless configured.
const DefaultValidity = 24 * time.Hour

// KindSpec binds a kind to its validity window.
type KindSpec struct {
	Kind     Kind
	Validity time.Duration
}

// Validate checks the kind and its validity window.
func (s KindSpec) Validate() error {
	if s.Kind == "" {
		return ErrMissingArgument.WithDetails("token kind is required")
	}
	if s.Validity <= 0 {
		return ErrInvalidArgument.WithDetails("validity of " + string(s.Kind) + " tokens must be positive")
	}
	return nil
}

// AuthPayload is the payload of an auth token. Auth tokens carry nothing
// beyond their owner.
type AuthPayload struct{}

// ConfirmationPayload is the payload of an email confirmation token.
// Email is captured from the owner at issue time and compared on confirm.
type ConfirmationPayload struct {
	Email string `json:"email"`
}

// Token is a stored token record.
//
// The record is keyed by Digest; the secret it was derived from is never
// stored. CreatedAt is set once at issue.
type Token[P any] struct {
	Digest    token.Digest `json:"-"`
	OwnerID   string       `json:"owner_id"`
	CreatedAt time.Time    `json:"created_at"`
	Payload   P            `json:"payload"`
}

// Age returns how long ago the token was issued.
func (t *Token[P]) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}

// Expired reports whether the token is past its validity window at now.
// A token whose age equals the window exactly is still live.
func (t *Token[P]) Expired(now time.Time, validity time.Duration) bool {
	return t.Age(now) > validity
}

// CreatedBefore reports whether the token was issued strictly before cutoff.
func (t *Token[P]) CreatedBefore(cutoff time.Time) bool {
	return t.CreatedAt.Before(cutoff)
}

// Clone returns a copy of the record. Payloads are value types, so a shallow
// copy is sufficient.
func (t *Token[P]) Clone() *Token[P] {
	c := *t
	return &c
}
