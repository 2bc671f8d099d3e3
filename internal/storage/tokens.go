package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
	"github.com/yndnr/authtoken-go/pkg/token"
)

var (
	_ service.TokenRepository[domain.AuthPayload]         = (*TokenStore[domain.AuthPayload])(nil)
	_ service.TokenRepository[domain.ConfirmationPayload] = (*TokenStore[domain.ConfirmationPayload])(nil)
)

const tokenKeyPrefix = "tok/"

// TokenStore persists the tokens of one kind in a KVEngine.
type TokenStore[P any] struct {
	engine KVEngine
	prefix []byte
}

// NewTokenStore creates a TokenStore for kind.
func NewTokenStore[P any](engine KVEngine, kind domain.Kind) *TokenStore[P] {
	return &TokenStore[P]{
		engine: engine,
		prefix: []byte(tokenKeyPrefix + string(kind) + "/"),
	}
}

func (s *TokenStore[P]) key(digest token.Digest) []byte {
	return append(append([]byte(nil), s.prefix...), digest.String()...)
}

// Put stores t unless its digest is already present.
func (s *TokenStore[P]) Put(ctx context.Context, t *domain.Token[P]) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	key := s.key(t.Digest)
	return s.engine.Update(ctx, func(txn KVTxn) error {
		if _, err := txn.Get(key); err == nil {
			return domain.ErrTokenConflict
		} else if !errors.Is(err, ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

// Get loads the record for digest.
func (s *TokenStore[P]) Get(ctx context.Context, digest token.Digest) (*domain.Token[P], error) {
	data, err := s.engine.Get(ctx, s.key(digest))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return decodeToken[P](digest, data)
}

// Delete removes the record for digest and returns it.
func (s *TokenStore[P]) Delete(ctx context.Context, digest token.Digest) (*domain.Token[P], error) {
	key := s.key(digest)
	var data []byte
	err := s.engine.Update(ctx, func(txn KVTxn) error {
		v, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				return domain.ErrTokenNotFound
			}
			return err
		}
		data = v
		return txn.Delete(key)
	})
	if err != nil {
		return nil, err
	}
	return decodeToken[P](digest, data)
}

// DeleteCreatedBefore removes every record created strictly before cutoff.
// Records that cannot be decoded are left in place.
func (s *TokenStore[P]) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return s.engine.DeleteFunc(ctx, s.prefix, func(_, value []byte) bool {
		var rec struct {
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			return false
		}
		return rec.CreatedAt.Before(cutoff)
	})
}

// Count returns the number of stored records.
func (s *TokenStore[P]) Count(ctx context.Context) (int, error) {
	return s.engine.Count(ctx, s.prefix)
}

func decodeToken[P any](digest token.Digest, data []byte) (*domain.Token[P], error) {
	var t domain.Token[P]
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", digest.Short(), err)
	}
	t.Digest = digest
	return &t, nil
}
