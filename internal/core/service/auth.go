package service

import (
	"context"
	"errors"
	"strings"

	"github.com/yndnr/authtoken-go/internal/core/domain"
)

// AuthScheme is the Authorization header scheme for auth tokens.
const AuthScheme = "Token"

// ParseAuthorizationHeader extracts the encoded secret from an
// "Authorization: Token <secret>" header value.
//
// A missing header or another scheme means no credentials were presented.
// The Token scheme without exactly one credential is an invalid token.
func ParseAuthorizationHeader(header string) (string, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 || !strings.EqualFold(fields[0], AuthScheme) {
		return "", domain.ErrCredentialsMissing
	}

	switch len(fields) {
	case 1:
		return "", domain.ErrTokenInvalid.
			WithDetails("no credentials provided").
			WithReason(domain.ReasonMalformed)
	case 2:
		return fields[1], nil
	default:
		return "", domain.ErrTokenInvalid.
			WithDetails("token string should not contain spaces").
			WithReason(domain.ReasonMalformed)
	}
}

// Principal is an authenticated request's identity.
type Principal struct {
	Account *domain.Account
	Token   *domain.Token[domain.AuthPayload]
}

// Authenticator resolves auth tokens to their owning accounts.
type Authenticator struct {
	tokens   *Lifecycle[domain.AuthPayload]
	accounts AccountRepository
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *Lifecycle[domain.AuthPayload], accounts AccountRepository) *Authenticator {
	return &Authenticator{tokens: tokens, accounts: accounts}
}

// Authenticate resolves an Authorization header value.
//
// The owner is loaded after the token resolves; a missing or inactive owner
// fails like an invalid token.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Principal, error) {
	encoded, err := ParseAuthorizationHeader(header)
	if err != nil {
		return nil, err
	}

	t, err := a.tokens.ResolveEncoded(ctx, encoded)
	if err != nil {
		return nil, err
	}

	acct, err := a.accounts.Get(ctx, t.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrTokenInvalid.WithReason(domain.ReasonInactiveOwner)
		}
		return nil, storageError(err)
	}
	if !acct.IsActive {
		return nil, domain.ErrTokenInvalid.WithReason(domain.ReasonInactiveOwner)
	}

	return &Principal{Account: acct, Token: t}, nil
}
