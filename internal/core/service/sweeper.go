package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
)

// SweepTarget is a token kind that can drop its expired tokens.
// Every *Lifecycle is a SweepTarget.
type SweepTarget interface {
	Kind() domain.Kind
	Sweep(ctx context.Context) (int, error)
}

// SweepReport holds the number of deleted tokens per kind.
type SweepReport map[domain.Kind]int

// Total returns the number of deleted tokens over all kinds.
func (r SweepReport) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// String renders the report as "kind=n" pairs in kind order.
func (r SweepReport) String() string {
	kinds := make([]string, 0, len(r))
	for k := range r {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, r[domain.Kind(k)])
	}
	return strings.Join(parts, " ")
}

// Sweeper periodically deletes expired tokens of every kind.
//
// Sweeping is an optimization: lookups enforce expiry on their own, so a
// stopped or failing sweeper only lets expired records accumulate.
type Sweeper struct {
	targets  []SweepTarget
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper over targets. An interval <= 0 disables Run.
func NewSweeper(interval time.Duration, log *slog.Logger, targets ...SweepTarget) *Sweeper {
	if log == nil {
		log = logger.Default()
	}
	return &Sweeper{
		targets:  targets,
		interval: interval,
		logger:   log.With("component", "sweeper"),
	}
}

// RunOnce sweeps every target once. A failing target does not stop the
// others; all failures are joined into the returned error.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepReport, error) {
	report := make(SweepReport, len(s.targets))
	var errs []error

	for _, t := range s.targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := t.Sweep(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep %s: %w", t.Kind(), err))
			continue
		}
		report[t.Kind()] = n
	}

	return report, errors.Join(errs...)
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("sweeper disabled")
		return
	}

	s.logger.Info("sweeper started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			report, err := s.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", "error", err)
			}
			if total := report.Total(); total > 0 {
				s.logger.Info("sweep completed", "deleted", total, "report", report.String())
			}
		}
	}
}
