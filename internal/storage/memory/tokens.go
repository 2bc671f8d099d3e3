package memory

import (
	"context"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
	"github.com/yndnr/authtoken-go/pkg/cmap"
	"github.com/yndnr/authtoken-go/pkg/token"
)

var (
	_ service.TokenRepository[domain.AuthPayload]         = (*TokenStore[domain.AuthPayload])(nil)
	_ service.TokenRepository[domain.ConfirmationPayload] = (*TokenStore[domain.ConfirmationPayload])(nil)
)

// TokenStore holds the tokens of one kind, keyed by digest.
type TokenStore[P any] struct {
	tokens *cmap.Map[token.Digest, *domain.Token[P]]
}

// TokenOption configures a TokenStore.
type TokenOption func(*tokenOptions)

type tokenOptions struct {
	shards int
}

// WithShards sets the shard count (a power of two).
func WithShards(n int) TokenOption {
	return func(o *tokenOptions) { o.shards = n }
}

// NewTokenStore creates an empty TokenStore.
func NewTokenStore[P any](opts ...TokenOption) *TokenStore[P] {
	o := tokenOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	return &TokenStore[P]{
		tokens: cmap.NewWithShards[token.Digest, *domain.Token[P]](o.shards),
	}
}

// Put stores t unless its digest is already present.
func (s *TokenStore[P]) Put(_ context.Context, t *domain.Token[P]) error {
	if !s.tokens.SetIfAbsent(t.Digest, t.Clone()) {
		return domain.ErrTokenConflict
	}
	return nil
}

// Get returns a copy of the record for digest.
func (s *TokenStore[P]) Get(_ context.Context, digest token.Digest) (*domain.Token[P], error) {
	t, ok := s.tokens.Get(digest)
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return t.Clone(), nil
}

// Delete removes the record for digest and returns it.
func (s *TokenStore[P]) Delete(_ context.Context, digest token.Digest) (*domain.Token[P], error) {
	t, ok := s.tokens.Pop(digest)
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return t, nil
}

// DeleteCreatedBefore removes every record created strictly before cutoff.
func (s *TokenStore[P]) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.tokens.DeleteFunc(func(_ token.Digest, t *domain.Token[P]) bool {
		return t.CreatedBefore(cutoff)
	}), nil
}

// Count returns the number of stored records.
func (s *TokenStore[P]) Count(_ context.Context) (int, error) {
	return s.tokens.Count(), nil
}
