package config

import (
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultShutdownTimeout = 15 * time.Second

	DefaultDataDir = "/var/lib/authtoken-server/data"

	EngineMemory = "memory"
	EngineBadger = "badger"

	DefaultSweepInterval = time.Hour

	DefaultMailPort    = 25
	DefaultMailTimeout = 30 * time.Second
	DefaultMailFrom    = "webmaster@localhost"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:           DefaultHTTPAddr,
				ReadTimeout:    10 * time.Second,
				WriteTimeout:   10 * time.Second,
				IdleTimeout:    60 * time.Second,
				MetricsEnabled: true,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Token: TokenSection{
			AuthTokenValidity:              domain.DefaultValidity,
			EmailConfirmationTokenValidity: domain.DefaultValidity,
		},
		Registration: RegistrationSection{
			Enabled:             false,
			MinPasswordLength:   service.DefaultAccountServiceConfig().MinPasswordLength,
			ConfirmRedirectPath: "/",
			Email: ConfirmationEmail{
				From:    DefaultMailFrom,
				Subject: service.DefaultConfirmationSubject,
				Message: service.DefaultConfirmationMessage,
			},
		},
		Mail: MailSection{
			Port:    DefaultMailPort,
			Timeout: DefaultMailTimeout,
		},
		Storage: StorageSection{
			Engine:  EngineMemory,
			DataDir: DefaultDataDir,
			Badger: BadgerSection{
				GCInterval:  10 * time.Minute,
				GCThreshold: 0.5,
				CacheSize:   64 << 20,
			},
		},
		Sweeper: SweeperSection{
			Interval: DefaultSweepInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
