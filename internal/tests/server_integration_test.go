// Package tests provides end-to-end tests for authtoken-server.
//
// The tests assemble the server on a Badger data directory, serve it on a
// loopback listener and drive it through the CLI's API client.
package tests

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/yndnr/authtoken-go/internal/cli/connection"
	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/server/app"
	"github.com/yndnr/authtoken-go/internal/server/config"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
	"github.com/yndnr/authtoken-go/internal/telemetry/metric"
)

// node is a running server instance.
type node struct {
	app    *app.App
	client *connection.Client
	stop   func()
}

func newConfig(t *testing.T, dataDir string) *config.ServerConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Registration.Enabled = true
	cfg.Storage.Engine = config.EngineBadger
	cfg.Storage.DataDir = dataDir
	cfg.Server.HTTP.Addr = "127.0.0.1:0"
	if err := config.Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	return cfg
}

func startNode(t *testing.T, cfg *config.ServerConfig) *node {
	t.Helper()
	a, err := app.New(cfg, logger.Discard(), metric.NewRegistry())
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = a.Close()
		t.Fatalf("Listen() error = %v", err)
	}
	srv := a.Server()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		if err := <-done; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
		if err := a.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
	t.Cleanup(stop)

	return &node{
		app:    a,
		client: connection.NewClient("http://"+ln.Addr().String(), ""),
		stop:   stop,
	}
}

func TestServer_TokensSurviveRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	cfg := newConfig(t, t.TempDir())

	n := startNode(t, cfg)
	if err := n.client.Register(ctx, "alice", "wonderland", "alice@example.com"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	first, err := n.client.Login(ctx, "alice", "wonderland")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, err := n.client.Login(ctx, "alice", "wonderland")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("two logins returned the same token")
	}
	n.stop()

	// Restart on the same data directory.
	n = startNode(t, cfg)
	acct, err := n.client.WithToken(first.Token).Account(ctx)
	if err != nil {
		t.Fatalf("Account() after restart error = %v", err)
	}
	if acct.Username != "alice" {
		t.Errorf("Account().Username = %q, want alice", acct.Username)
	}

	if err := n.client.WithToken(first.Token).Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	n.stop()

	n = startNode(t, cfg)
	if _, err := n.client.WithToken(first.Token).Account(ctx); !connection.IsUnauthorized(err) {
		t.Errorf("revoked token after restart error = %v, want 401", err)
	}
	if _, err := n.client.WithToken(second.Token).Account(ctx); err != nil {
		t.Errorf("other token after restart error = %v", err)
	}
	if _, err := n.client.Ready(ctx); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
}

func TestServer_ExpiryAndSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	cfg := newConfig(t, t.TempDir())
	cfg.Token.AuthTokenValidity = 300 * time.Millisecond

	n := startNode(t, cfg)
	if err := n.client.Register(ctx, "bob", "builder1", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var tokens []string
	for i := 0; i < 3; i++ {
		res, err := n.client.Login(ctx, "bob", "builder1")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		tokens = append(tokens, res.Token)
	}
	if _, err := n.client.WithToken(tokens[0]).Account(ctx); err != nil {
		t.Fatalf("Account() with fresh token error = %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	// Lazy expiry: the expired token is rejected and deleted on use.
	if _, err := n.client.WithToken(tokens[0]).Account(ctx); !connection.IsUnauthorized(err) {
		t.Fatalf("Account() with expired token error = %v, want 401", err)
	}

	report, err := n.app.Sweeper().RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if got := report[domain.KindAuth]; got != len(tokens)-1 {
		t.Errorf("swept auth tokens = %d, want %d", got, len(tokens)-1)
	}
	for _, tok := range tokens[1:] {
		if _, err := n.client.WithToken(tok).Account(ctx); !connection.IsUnauthorized(err) {
			t.Errorf("swept token error = %v, want 401", err)
		}
	}
}
