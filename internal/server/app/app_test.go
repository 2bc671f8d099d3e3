package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/server/config"
	"github.com/yndnr/authtoken-go/internal/storage"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
	"github.com/yndnr/authtoken-go/internal/telemetry/metric"
)

func testConfig(t *testing.T, engine string) *config.ServerConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Engine = engine
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.Badger.GCInterval = 0
	cfg.Registration.Enabled = true
	return cfg
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_Engines(t *testing.T) {
	for _, engine := range []string{config.EngineMemory, config.EngineBadger} {
		t.Run(engine, func(t *testing.T) {
			metrics := metric.NewRegistry()
			a, err := New(testConfig(t, engine), logger.Discard(), metrics)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer a.Close()

			h := a.Handler()
			if rec := post(t, h, "/register", `{"username":"alice","password":"secret1"}`); rec.Code != http.StatusCreated {
				t.Fatalf("POST /register status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if rec := post(t, h, "/login", `{"username":"alice","password":"secret1"}`); rec.Code != http.StatusOK {
				t.Fatalf("POST /login status = %d, body = %s", rec.Code, rec.Body.String())
			}

			if err := a.Ready(context.Background()); err != nil {
				t.Errorf("Ready() error = %v", err)
			}

			report, err := a.Sweeper().RunOnce(context.Background())
			if err != nil {
				t.Fatalf("RunOnce() error = %v", err)
			}
			if report.Total() != 0 {
				t.Errorf("swept %d fresh tokens", report.Total())
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			if !strings.Contains(rec.Body.String(), `authtoken_tokens_stored{kind="auth"} 1`) {
				t.Errorf("metrics missing stored auth token count")
			}
		})
	}
}

func TestNew_BadgerPersists(t *testing.T) {
	cfg := testConfig(t, config.EngineBadger)

	a, err := New(cfg, logger.Discard(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if rec := post(t, a.Handler(), "/register", `{"username":"bob","password":"secret1"}`); rec.Code != http.StatusCreated {
		t.Fatalf("POST /register status = %d", rec.Code)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Ready(context.Background()); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Ready() after Close error = %v, want ErrClosed", err)
	}

	b, err := New(cfg, logger.Discard(), nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer b.Close()
	if rec := post(t, b.Handler(), "/login", `{"username":"bob","password":"secret1"}`); rec.Code != http.StatusOK {
		t.Errorf("login after reopen status = %d", rec.Code)
	}
}

func TestOpenStores_UnknownEngine(t *testing.T) {
	if _, err := OpenStores(&config.StorageSection{Engine: "etcd"}, logger.Discard()); err == nil {
		t.Fatal("OpenStores() error = nil, want error")
	}
}

func TestNewLifecycles_Validity(t *testing.T) {
	stores, err := OpenStores(&config.StorageSection{Engine: config.EngineMemory}, logger.Discard())
	if err != nil {
		t.Fatalf("OpenStores() error = %v", err)
	}
	lc, err := NewLifecycles(&config.TokenSection{
		AuthTokenValidity:              domain.DefaultValidity,
		EmailConfirmationTokenValidity: 2 * domain.DefaultValidity,
	}, stores, logger.Discard(), nil)
	if err != nil {
		t.Fatalf("NewLifecycles() error = %v", err)
	}
	if lc.Auth.Kind() != domain.KindAuth || lc.Confirmation.Kind() != domain.KindEmailConfirmation {
		t.Errorf("kinds = %s, %s", lc.Auth.Kind(), lc.Confirmation.Kind())
	}
	if lc.Confirmation.Validity() != 2*domain.DefaultValidity {
		t.Errorf("confirmation validity = %v", lc.Confirmation.Validity())
	}

	if _, err := NewLifecycles(&config.TokenSection{}, stores, logger.Discard(), nil); err == nil {
		t.Error("NewLifecycles() with zero validity error = nil")
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	cfg := testConfig(t, config.EngineMemory)
	cfg.Registration.Email.Message = "{{.Broken"
	if _, err := New(cfg, logger.Discard(), nil); err == nil {
		t.Fatal("New() error = nil, want template error")
	}
}
