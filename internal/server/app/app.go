package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
	"github.com/yndnr/authtoken-go/internal/infra/mailer"
	"github.com/yndnr/authtoken-go/internal/server/config"
	"github.com/yndnr/authtoken-go/internal/server/httpserver"
	"github.com/yndnr/authtoken-go/internal/server/httpserver/handler"
	"github.com/yndnr/authtoken-go/internal/storage"
	"github.com/yndnr/authtoken-go/internal/storage/memory"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
	"github.com/yndnr/authtoken-go/internal/telemetry/metric"
)

// Stores holds the repositories of one storage engine.
type Stores struct {
	Accounts      service.AccountRepository
	AuthTokens    service.TokenRepository[domain.AuthPayload]
	ConfirmTokens service.TokenRepository[domain.ConfirmationPayload]

	// Engine is the Badger engine, or nil for the memory engine.
	Engine *storage.BadgerEngine
}

// OpenStores opens the storage engine selected by cfg.
func OpenStores(cfg *config.StorageSection, log *slog.Logger) (*Stores, error) {
	switch cfg.Engine {
	case config.EngineMemory:
		return &Stores{
			Accounts:      memory.NewAccountStore(),
			AuthTokens:    memory.NewTokenStore[domain.AuthPayload](),
			ConfirmTokens: memory.NewTokenStore[domain.ConfirmationPayload](),
		}, nil

	case config.EngineBadger:
		kv := storage.DefaultKVConfig(cfg.DataDir)
		kv.Badger.GCInterval = cfg.Badger.GCInterval
		kv.Badger.GCThreshold = cfg.Badger.GCThreshold
		kv.Badger.SyncWrites = cfg.Badger.SyncWrites
		if cfg.Badger.CacheSize > 0 {
			kv.Badger.CacheSize = cfg.Badger.CacheSize
		}

		engine, err := storage.NewBadgerEngine(kv, log)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		return &Stores{
			Accounts:      storage.NewAccountStore(engine),
			AuthTokens:    storage.NewTokenStore[domain.AuthPayload](engine, domain.KindAuth),
			ConfirmTokens: storage.NewTokenStore[domain.ConfirmationPayload](engine, domain.KindEmailConfirmation),
			Engine:        engine,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
	}
}

// Close closes the underlying engine, if any.
func (s *Stores) Close() error {
	if s.Engine == nil {
		return nil
	}
	return s.Engine.Close()
}

// Lifecycles holds one lifecycle per token kind.
type Lifecycles struct {
	Auth         *service.Lifecycle[domain.AuthPayload]
	Confirmation *service.Lifecycle[domain.ConfirmationPayload]
}

// NewLifecycles creates the lifecycles over stores with the validity windows
// of cfg. metrics may be nil.
func NewLifecycles(cfg *config.TokenSection, stores *Stores, log *slog.Logger, metrics *metric.Registry) (*Lifecycles, error) {
	auth, err := service.NewLifecycle(
		domain.KindSpec{Kind: domain.KindAuth, Validity: cfg.AuthTokenValidity},
		stores.AuthTokens,
		service.WithLogger(log), service.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	confirm, err := service.NewLifecycle(
		domain.KindSpec{Kind: domain.KindEmailConfirmation, Validity: cfg.EmailConfirmationTokenValidity},
		stores.ConfirmTokens,
		service.WithLogger(log), service.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	return &Lifecycles{Auth: auth, Confirmation: confirm}, nil
}

// Sweeper returns a sweeper over both lifecycles.
func (l *Lifecycles) Sweeper(interval time.Duration, log *slog.Logger) *service.Sweeper {
	return service.NewSweeper(interval, log, l.Auth, l.Confirmation)
}

// App is an assembled authtoken-server.
type App struct {
	cfg     *config.ServerConfig
	logger  *slog.Logger
	metrics *metric.Registry

	stores     *Stores
	lifecycles *Lifecycles

	accounts      *service.AccountService
	confirmations *service.ConfirmationService
	authenticator *service.Authenticator
	sweeper       *service.Sweeper
}

// New assembles the server described by cfg. metrics may be nil.
func New(cfg *config.ServerConfig, log *slog.Logger, metrics *metric.Registry) (*App, error) {
	if log == nil {
		log = logger.Default()
	}

	stores, err := OpenStores(&cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	a, err := assemble(cfg, stores, log, metrics)
	if err != nil {
		return nil, errors.Join(err, stores.Close())
	}
	return a, nil
}

func assemble(cfg *config.ServerConfig, stores *Stores, log *slog.Logger, metrics *metric.Registry) (*App, error) {
	lifecycles, err := NewLifecycles(&cfg.Token, stores, log, metrics)
	if err != nil {
		return nil, err
	}

	mail, err := newMailer(cfg, log)
	if err != nil {
		return nil, err
	}
	reg := cfg.Registration
	confirmations, err := service.NewConfirmationService(lifecycles.Confirmation, stores.Accounts, mail,
		service.ConfirmationConfig{
			BaseURL: reg.Email.BaseURL,
			Subject: reg.Email.Subject,
			Message: reg.Email.Message,
		}, log)
	if err != nil {
		return nil, err
	}

	accounts := service.NewAccountService(stores.Accounts, lifecycles.Auth, confirmations,
		&service.AccountServiceConfig{
			RegistrationEnabled:       reg.Enabled,
			EmailConfirmationRequired: reg.EmailConfirmationRequired,
			MinPasswordLength:         reg.MinPasswordLength,
		}, log)

	if metrics != nil {
		metrics.MustRegister(metric.NewStoreCollector(map[string]metric.CountFunc{
			string(domain.KindAuth):              lifecycles.Auth.Count,
			string(domain.KindEmailConfirmation): lifecycles.Confirmation.Count,
		}))
		if stores.Engine != nil {
			stores.Engine.RegisterMetrics(metrics)
		}
	}

	return &App{
		cfg:           cfg,
		logger:        log,
		metrics:       metrics,
		stores:        stores,
		lifecycles:    lifecycles,
		accounts:      accounts,
		confirmations: confirmations,
		authenticator: service.NewAuthenticator(lifecycles.Auth, stores.Accounts),
		sweeper:       lifecycles.Sweeper(cfg.Sweeper.Interval, log),
	}, nil
}

// newMailer returns an SMTP mailer, or a Log mailer when no host is set.
func newMailer(cfg *config.ServerConfig, log *slog.Logger) (service.Mailer, error) {
	if cfg.Mail.Host == "" {
		log.Warn("mail.host not set, confirmation mails are logged instead of sent")
		return mailer.NewLog(log), nil
	}
	return mailer.NewSMTP(mailer.Config{
		Host:               cfg.Mail.Host,
		Port:               cfg.Mail.Port,
		Username:           cfg.Mail.Username,
		Password:           cfg.Mail.Password,
		From:               cfg.Registration.Email.From,
		Timeout:            cfg.Mail.Timeout,
		InsecureSkipVerify: cfg.Mail.InsecureSkipVerify,
	}, log)
}

// Handler returns the HTTP router.
func (a *App) Handler() http.Handler {
	reg := a.cfg.Registration
	return httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.Config{
			Accounts:                   a.accounts,
			Confirmations:              a.confirmations,
			ConfirmRedirectPath:        reg.ConfirmRedirectPath,
			ConfirmInvalidRedirectPath: reg.ConfirmInvalidRedirectPath,
			Ready:                      a.Ready,
		},
		Authenticator:  a.authenticator,
		Metrics:        a.metrics,
		MetricsEnabled: a.cfg.Server.HTTP.MetricsEnabled,
		Logger:         a.logger,
	})
}

// Server returns an HTTP server for Handler on the configured listener.
func (a *App) Server() *httpserver.Server {
	h := a.cfg.Server.HTTP
	return httpserver.New(httpserver.Config{
		Addr:         h.Addr,
		TLSCertFile:  h.TLSCertFile,
		TLSKeyFile:   h.TLSKeyFile,
		ReadTimeout:  h.ReadTimeout,
		WriteTimeout: h.WriteTimeout,
		IdleTimeout:  h.IdleTimeout,
	}, a.Handler())
}

// Sweeper returns the background expiry sweeper.
func (a *App) Sweeper() *service.Sweeper {
	return a.sweeper
}

// Ready reports whether the storage engine is usable.
func (a *App) Ready(ctx context.Context) error {
	if a.stores.Engine == nil {
		return nil
	}
	_, err := a.stores.Engine.Stats(ctx)
	return err
}

// Close closes the storage engine.
func (a *App) Close() error {
	return a.stores.Close()
}
