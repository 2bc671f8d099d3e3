package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Token.AuthTokenValidity != domain.DefaultValidity {
		t.Errorf("AuthTokenValidity = %v, want %v", cfg.Token.AuthTokenValidity, domain.DefaultValidity)
	}
	if cfg.Token.EmailConfirmationTokenValidity != domain.DefaultValidity {
		t.Errorf("EmailConfirmationTokenValidity = %v", cfg.Token.EmailConfirmationTokenValidity)
	}
	if cfg.Registration.Enabled {
		t.Error("registration should be disabled by default")
	}
	if cfg.Registration.MinPasswordLength != 6 {
		t.Errorf("MinPasswordLength = %d, want 6", cfg.Registration.MinPasswordLength)
	}
	if cfg.Storage.Engine != EngineMemory {
		t.Errorf("Storage.Engine = %q, want %q", cfg.Storage.Engine, EngineMemory)
	}
	if cfg.Sweeper.Interval != DefaultSweepInterval {
		t.Errorf("Sweeper.Interval = %v, want %v", cfg.Sweeper.Interval, DefaultSweepInterval)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Mail.Password = "super-secret-password"

	sanitized := Sanitize(cfg)

	if cfg.Mail.Password != "super-secret-password" {
		t.Error("original config should not be modified")
	}
	if sanitized.Mail.Password == cfg.Mail.Password {
		t.Error("sanitized config should mask the mail password")
	}
	if len(sanitized.Mail.Password) != len(cfg.Mail.Password) {
		t.Errorf("masked length = %d, want %d", len(sanitized.Mail.Password), len(cfg.Mail.Password))
	}

	if Sanitize(Default()).Mail.Password != "" {
		t.Error("empty password should remain empty")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", "****"},
		{"abcd", "****"},
		{"abcde", "ab*de"},
		{"1234567890", "12******90"},
	}

	for _, tt := range tests {
		if got := maskSecret(tt.input); got != tt.expected {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"bad addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "nohostport" }, "server.http.addr"},
		{"cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "/tmp/cert.pem" }, "set together"},
		{"zero auth validity", func(c *ServerConfig) { c.Token.AuthTokenValidity = 0 }, "auth_token_validity"},
		{"negative confirmation validity", func(c *ServerConfig) { c.Token.EmailConfirmationTokenValidity = -time.Hour }, "email_confirmation_token_validity"},
		{"confirmation without base url", func(c *ServerConfig) { c.Registration.EmailConfirmationRequired = true }, "base_url is required"},
		{"relative base url", func(c *ServerConfig) { c.Registration.Email.BaseURL = "/confirm" }, "absolute URL"},
		{"bad from", func(c *ServerConfig) { c.Registration.Email.From = "nobody" }, "registration.email.from"},
		{"multi-line subject", func(c *ServerConfig) { c.Registration.Email.Subject = "a\nBcc: x" }, "single line"},
		{"min password", func(c *ServerConfig) { c.Registration.MinPasswordLength = 0 }, "min_password_length"},
		{"mail port", func(c *ServerConfig) { c.Mail.Host = "smtp"; c.Mail.Port = 70000 }, "mail.port"},
		{"unknown engine", func(c *ServerConfig) { c.Storage.Engine = "redis" }, "storage.engine"},
		{"badger without dir", func(c *ServerConfig) { c.Storage.Engine = EngineBadger; c.Storage.DataDir = "" }, "data_dir"},
		{"negative sweep", func(c *ServerConfig) { c.Sweeper.Interval = -time.Second }, "sweeper.interval"},
		{"log level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_BadgerCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	cfg := Default()
	cfg.Storage.Engine = EngineBadger
	cfg.Storage.DataDir = dir

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Token.AuthTokenValidity = 0
	cfg.Log.Level = "loud"

	err := Verify(cfg)
	if err == nil {
		t.Fatal("Verify() error = nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "auth_token_validity") || !strings.Contains(msg, "log.level") {
		t.Errorf("Verify() error = %v, want both problems", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := `
token:
  auth_token_validity: 2h
registration:
  enabled: true
  email:
    base_url: https://accounts.example.com
sweeper:
  interval: 15m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("AUTHTOKEN_REGISTRATION_EMAIL_CONFIRMATION_REQUIRED", "true")
	t.Setenv("AUTHTOKEN_MAIL_PASSWORD", "hunter22")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Token.AuthTokenValidity != 2*time.Hour {
		t.Errorf("AuthTokenValidity = %v, want 2h", cfg.Token.AuthTokenValidity)
	}
	if cfg.Token.EmailConfirmationTokenValidity != domain.DefaultValidity {
		t.Errorf("EmailConfirmationTokenValidity = %v, default should survive", cfg.Token.EmailConfirmationTokenValidity)
	}
	if !cfg.Registration.Enabled || !cfg.Registration.EmailConfirmationRequired {
		t.Errorf("Registration = %+v", cfg.Registration)
	}
	if cfg.Registration.Email.BaseURL != "https://accounts.example.com" {
		t.Errorf("BaseURL = %q", cfg.Registration.Email.BaseURL)
	}
	if cfg.Mail.Password != "hunter22" {
		t.Errorf("Mail.Password not loaded from env")
	}
	if cfg.Sweeper.Interval != 15*time.Minute {
		t.Errorf("Sweeper.Interval = %v, want 15m", cfg.Sweeper.Interval)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("AUTHTOKEN_STORAGE_ENGINE", "redis")
	if _, err := Load(""); err == nil {
		t.Error("Load() with invalid engine should fail")
	}
}
