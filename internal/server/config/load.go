package config

import (
	"fmt"

	"github.com/yndnr/authtoken-go/internal/infra/confloader"
)

// Load builds the configuration from Default(), the YAML file at path
// (optional) and AUTHTOKEN_* environment variables, then verifies it.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithKnownKeys(confloader.KeysOf(cfg)...),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
