package config

import "time"

// ServerConfig is the root configuration for authtoken-server.
type ServerConfig struct {
	Server       ServerSection       `koanf:"server"`
	Token        TokenSection        `koanf:"token"`
	Registration RegistrationSection `koanf:"registration"`
	Mail         MailSection         `koanf:"mail"`
	Storage      StorageSection      `koanf:"storage"`
	Sweeper      SweeperSection      `koanf:"sweeper"`
	Log          LogSection          `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP            HTTPConfig    `koanf:"http"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// MetricsEnabled exposes GET /metrics.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// TokenSection holds the validity window of each token kind.
type TokenSection struct {
	AuthTokenValidity              time.Duration `koanf:"auth_token_validity"`
	EmailConfirmationTokenValidity time.Duration `koanf:"email_confirmation_token_validity"`
}

// RegistrationSection configures self-service registration.
type RegistrationSection struct {
	Enabled                   bool `koanf:"enabled"`
	EmailConfirmationRequired bool `koanf:"email_confirmation_required"`
	MinPasswordLength         int  `koanf:"min_password_length"`

	// ConfirmRedirectPath is where a successful confirmation redirects.
	ConfirmRedirectPath string `koanf:"confirm_redirect_path"`

	// ConfirmInvalidRedirectPath is where a failed confirmation redirects.
	// Empty answers 400 instead.
	ConfirmInvalidRedirectPath string `koanf:"confirm_invalid_redirect_path"`

	Email ConfirmationEmail `koanf:"email"`
}

// ConfirmationEmail configures the confirmation message.
type ConfirmationEmail struct {
	BaseURL string `koanf:"base_url"`
	From    string `koanf:"from"`
	Subject string `koanf:"subject"`

	// Message is a text/template with .Username and .URL.
	Message string `koanf:"message"`
}

// MailSection configures the SMTP relay. An empty host logs messages
// instead of sending them.
type MailSection struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	Username           string        `koanf:"username"`
	Password           string        `koanf:"password"`
	Timeout            time.Duration `koanf:"timeout"`
	InsecureSkipVerify bool          `koanf:"insecure_skip_verify"`
}

// StorageSection configures persistence.
type StorageSection struct {
	// Engine is "memory" or "badger".
	Engine  string `koanf:"engine"`
	DataDir string `koanf:"data_dir"`

	Badger BadgerSection `koanf:"badger"`
}

// BadgerSection tunes the Badger engine.
type BadgerSection struct {
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	CacheSize   int64         `koanf:"cache_size"`
	SyncWrites  bool          `koanf:"sync_writes"`
}

// SweeperSection configures the background expiry sweeper.
type SweeperSection struct {
	// Interval between sweeps; zero disables the sweeper.
	Interval time.Duration `koanf:"interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
