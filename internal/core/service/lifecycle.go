package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
	"github.com/yndnr/authtoken-go/internal/telemetry/metric"
	"github.com/yndnr/authtoken-go/pkg/token"
)

// TokenRepository is the storage of one token kind, keyed by digest.
type TokenRepository[P any] interface {
	// Put inserts a record. It fails with ErrTokenConflict if the digest is
	// already present.
	Put(ctx context.Context, t *domain.Token[P]) error

	// Get returns the record for a digest, or ErrTokenNotFound.
	Get(ctx context.Context, digest token.Digest) (*domain.Token[P], error)

	// Delete removes a record and returns it, or ErrTokenNotFound. Of two
	// concurrent deletes of the same digest at most one gets the record.
	Delete(ctx context.Context, digest token.Digest) (*domain.Token[P], error)

	// DeleteCreatedBefore removes every record created strictly before
	// cutoff and returns how many were removed.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of stored records, expired ones included.
	Count(ctx context.Context) (int, error)
}

// Option configures a Lifecycle.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	metrics  *metric.Registry
	now      func() time.Time
	generate func() (token.Secret, error)
}

// WithLogger sets the logger. The default is logger.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics enables lifecycle counters.
func WithMetrics(m *metric.Registry) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithGenerator replaces the secret generator.
func WithGenerator(gen func() (token.Secret, error)) Option {
	return func(o *options) { o.generate = gen }
}

// Lifecycle manages tokens of a single kind.
//
// A token is live while it is present in the store and its age does not
// exceed the kind's validity window. Expiry is enforced on every lookup:
// an expired record found by Resolve or Consume is deleted before the
// caller is told the token is invalid.
type Lifecycle[P any] struct {
	spec     domain.KindSpec
	repo     TokenRepository[P]
	logger   *slog.Logger
	metrics  *metric.Registry
	now      func() time.Time
	generate func() (token.Secret, error)
}

// NewLifecycle creates a Lifecycle for spec over repo.
func NewLifecycle[P any](spec domain.KindSpec, repo TokenRepository[P], opts ...Option) (*Lifecycle[P], error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, domain.ErrMissingArgument.WithDetails("token repository is required")
	}

	o := options{
		logger:   logger.Default(),
		now:      time.Now,
		generate: token.Generate,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Default()
	}

	return &Lifecycle[P]{
		spec:     spec,
		repo:     repo,
		logger:   o.logger.With("kind", string(spec.Kind)),
		metrics:  o.metrics,
		now:      o.now,
		generate: o.generate,
	}, nil
}

// Kind returns the token kind managed by l.
func (l *Lifecycle[P]) Kind() domain.Kind { return l.spec.Kind }

// Validity returns the validity window of the kind.
func (l *Lifecycle[P]) Validity() time.Duration { return l.spec.Validity }

// Count returns the number of stored tokens of this kind.
func (l *Lifecycle[P]) Count(ctx context.Context) (int, error) {
	n, err := l.repo.Count(ctx)
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

// Issue creates a token for ownerID and returns its secret.
//
// The secret is returned exactly once; only its digest is stored.
func (l *Lifecycle[P]) Issue(ctx context.Context, ownerID string, payload P) (token.Secret, *domain.Token[P], error) {
	if ownerID == "" {
		return nil, nil, domain.ErrMissingArgument.WithDetails("owner id is required")
	}

	secret, err := l.generate()
	if err != nil {
		return nil, nil, domain.ErrInternalServer.WithDetails("secret generation failed").WithCause(err)
	}

	t := &domain.Token[P]{
		Digest:    token.Hash(secret),
		OwnerID:   ownerID,
		CreatedAt: l.now().UTC(),
		Payload:   payload,
	}
	if err := l.repo.Put(ctx, t); err != nil {
		return nil, nil, storageError(err)
	}

	l.metrics.Issued(string(l.spec.Kind))
	l.logger.DebugContext(ctx, "issued", "digest", t.Digest.Short(), "owner_id", ownerID)
	return secret, t, nil
}

// Resolve returns the live record for secret.
//
// Unknown and expired tokens both yield ErrTokenInvalid; the reason is only
// visible through domain.ReasonOf. Resolving a live token has no side effects.
func (l *Lifecycle[P]) Resolve(ctx context.Context, secret token.Secret) (*domain.Token[P], error) {
	if len(secret) == 0 {
		return nil, l.invalid(ctx, domain.ReasonMalformed, token.Digest{})
	}
	digest := token.Hash(secret)

	t, err := l.repo.Get(ctx, digest)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, l.invalid(ctx, domain.ReasonNotFound, digest)
		}
		return nil, storageError(err)
	}

	if t.Expired(l.now(), l.spec.Validity) {
		if _, err := l.repo.Delete(ctx, digest); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
			return nil, storageError(err)
		}
		return nil, l.invalid(ctx, domain.ReasonExpired, digest)
	}

	l.metrics.Resolved(string(l.spec.Kind), "ok")
	return t, nil
}

// Revoke deletes the token for secret.
//
// It returns ErrTokenNotFound if the token is unknown or already expired.
// An expired record is deleted all the same.
func (l *Lifecycle[P]) Revoke(ctx context.Context, secret token.Secret) error {
	return l.RevokeDigest(ctx, token.Hash(secret))
}

// RevokeDigest is Revoke for a caller that already holds the record.
func (l *Lifecycle[P]) RevokeDigest(ctx context.Context, digest token.Digest) error {
	t, err := l.repo.Delete(ctx, digest)
	if err != nil {
		return storageError(err)
	}
	if t.Expired(l.now(), l.spec.Validity) {
		l.logger.DebugContext(ctx, "revoke of expired token", "digest", digest.Short())
		return domain.ErrTokenNotFound
	}

	l.metrics.Revoked(string(l.spec.Kind))
	l.logger.DebugContext(ctx, "revoked", "digest", digest.Short())
	return nil
}

// Consume resolves and deletes a token in one step, for single-use tokens.
//
// When several callers consume the same token concurrently, only the one
// whose delete removed the record gets it; the others get ErrTokenInvalid.
// An expired record is deleted as well.
func (l *Lifecycle[P]) Consume(ctx context.Context, secret token.Secret) (*domain.Token[P], error) {
	if len(secret) == 0 {
		return nil, l.invalid(ctx, domain.ReasonMalformed, token.Digest{})
	}
	digest := token.Hash(secret)

	t, err := l.repo.Delete(ctx, digest)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, l.invalid(ctx, domain.ReasonNotFound, digest)
		}
		return nil, storageError(err)
	}
	if t.Expired(l.now(), l.spec.Validity) {
		return nil, l.invalid(ctx, domain.ReasonExpired, digest)
	}

	l.metrics.Resolved(string(l.spec.Kind), "ok")
	l.metrics.Revoked(string(l.spec.Kind))
	return t, nil
}

// Sweep deletes every token created before now minus the validity window
// and returns how many were deleted.
func (l *Lifecycle[P]) Sweep(ctx context.Context) (int, error) {
	cutoff := l.now().Add(-l.spec.Validity)

	n, err := l.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, storageError(err)
	}

	l.metrics.Swept(string(l.spec.Kind), n)
	if n > 0 {
		l.logger.InfoContext(ctx, "swept expired tokens", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// ResolveEncoded is Resolve for the wire form of a secret. Input that does
// not decode to a secret fails like an unknown token and never reaches the
// store.
func (l *Lifecycle[P]) ResolveEncoded(ctx context.Context, encoded string) (*domain.Token[P], error) {
	secret, err := token.Decode(encoded)
	if err != nil {
		return nil, l.invalid(ctx, domain.ReasonMalformed, token.Digest{})
	}
	return l.Resolve(ctx, secret)
}

// RevokeEncoded is Revoke for the wire form of a secret. Undecodable input
// is reported as ErrTokenInvalid.
func (l *Lifecycle[P]) RevokeEncoded(ctx context.Context, encoded string) error {
	secret, err := token.Decode(encoded)
	if err != nil {
		return l.invalid(ctx, domain.ReasonMalformed, token.Digest{})
	}
	return l.Revoke(ctx, secret)
}

// ConsumeEncoded is Consume for the wire form of a secret.
func (l *Lifecycle[P]) ConsumeEncoded(ctx context.Context, encoded string) (*domain.Token[P], error) {
	secret, err := token.Decode(encoded)
	if err != nil {
		return nil, l.invalid(ctx, domain.ReasonMalformed, token.Digest{})
	}
	return l.Consume(ctx, secret)
}

func (l *Lifecycle[P]) invalid(ctx context.Context, reason string, digest token.Digest) error {
	l.metrics.Resolved(string(l.spec.Kind), reason)
	if reason == domain.ReasonMalformed {
		l.logger.DebugContext(ctx, "rejected token", "reason", reason)
	} else {
		l.logger.DebugContext(ctx, "rejected token", "reason", reason, "digest", digest.Short())
	}
	return domain.ErrTokenInvalid.WithReason(reason)
}

// storageError passes domain errors through and wraps anything else.
func storageError(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
