package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
	"github.com/yndnr/authtoken-go/internal/storage"
	"github.com/yndnr/authtoken-go/internal/storage/memory"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
)

// TokenCounts defines the stored token counts for benchmarking.
var TokenCounts = []int{5000, 10000, 50000, 100000, 500000}

// SmallTokenCounts for quick benchmarks.
var SmallTokenCounts = []int{1000, 5000, 10000}

var authSpec = domain.KindSpec{Kind: domain.KindAuth, Validity: domain.DefaultValidity}

// newMemoryLifecycle returns an auth lifecycle over a memory store.
func newMemoryLifecycle(b *testing.B) *service.Lifecycle[domain.AuthPayload] {
	b.Helper()
	l, err := service.NewLifecycle(authSpec, memory.NewTokenStore[domain.AuthPayload](),
		service.WithLogger(logger.Discard()))
	if err != nil {
		b.Fatalf("NewLifecycle() error = %v", err)
	}
	return l
}

// newBadgerLifecycle returns an auth lifecycle over a Badger store in a
// temporary directory.
func newBadgerLifecycle(b *testing.B) *service.Lifecycle[domain.AuthPayload] {
	b.Helper()
	engine, err := storage.NewBadgerEngine(storage.DefaultKVConfig(b.TempDir()), logger.Discard())
	if err != nil {
		b.Fatalf("NewBadgerEngine() error = %v", err)
	}
	b.Cleanup(func() { _ = engine.Close() })

	l, err := service.NewLifecycle(authSpec, storage.NewTokenStore[domain.AuthPayload](engine, domain.KindAuth),
		service.WithLogger(logger.Discard()))
	if err != nil {
		b.Fatalf("NewLifecycle() error = %v", err)
	}
	return l
}

// prefill issues count tokens spread over 1000 owners and returns their
// encoded secrets.
func prefill(ctx context.Context, b *testing.B, l *service.Lifecycle[domain.AuthPayload], count int) []string {
	b.Helper()
	secrets := make([]string, count)
	for i := 0; i < count; i++ {
		secret, _, err := l.Issue(ctx, fmt.Sprintf("acct-%d", i%1000), domain.AuthPayload{})
		if err != nil {
			b.Fatalf("Issue() error = %v", err)
		}
		secrets[i] = secret.Encode()
	}
	return secrets
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithTokenCounts runs a benchmark function with various stored token counts.
func runWithTokenCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("tokens_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
