package config

import (
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"os"
	"strings"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyToken(&cfg.Token)...)
	errs = append(errs, verifyRegistration(&cfg.Registration, &cfg.Mail)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	if cfg.Sweeper.Interval < 0 {
		errs = append(errs, errors.New("sweeper.interval must not be negative"))
	}
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("tls file: %w", err))
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errs
}

func verifyToken(cfg *TokenSection) []error {
	var errs []error
	if cfg.AuthTokenValidity <= 0 {
		errs = append(errs, errors.New("token.auth_token_validity must be positive"))
	}
	if cfg.EmailConfirmationTokenValidity <= 0 {
		errs = append(errs, errors.New("token.email_confirmation_token_validity must be positive"))
	}
	return errs
}

func verifyRegistration(cfg *RegistrationSection, m *MailSection) []error {
	var errs []error
	if cfg.MinPasswordLength < 1 {
		errs = append(errs, errors.New("registration.min_password_length must be at least 1"))
	}
	if cfg.Email.BaseURL != "" {
		u, err := url.Parse(cfg.Email.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("registration.email.base_url %q must be an absolute URL", cfg.Email.BaseURL))
		}
	}
	if cfg.EmailConfirmationRequired && cfg.Email.BaseURL == "" {
		errs = append(errs, errors.New("registration.email.base_url is required when email confirmation is required"))
	}
	if _, err := mail.ParseAddress(cfg.Email.From); err != nil {
		errs = append(errs, fmt.Errorf("registration.email.from %q: %w", cfg.Email.From, err))
	}
	if strings.ContainsAny(cfg.Email.Subject, "\r\n") {
		errs = append(errs, errors.New("registration.email.subject must be a single line"))
	}
	if m.Host != "" && (m.Port < 1 || m.Port > 65535) {
		errs = append(errs, fmt.Errorf("mail.port %d out of range", m.Port))
	}
	return errs
}

func verifyStorage(cfg *StorageSection) []error {
	switch cfg.Engine {
	case EngineMemory:
		return nil
	case EngineBadger:
	default:
		return []error{fmt.Errorf("storage.engine %q must be %q or %q", cfg.Engine, EngineMemory, EngineBadger)}
	}

	var errs []error
	if cfg.DataDir == "" {
		return append(errs, errors.New("storage.data_dir is required"))
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		errs = append(errs, fmt.Errorf("cannot create data directory: %w", err))
	}
	if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
		errs = append(errs, errors.New("storage.badger.gc_threshold must be between 0 and 1"))
	}
	return errs
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not a known level", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", cfg.Format))
	}
	return errs
}
