// Package config defines the authtoken-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation (ranges, paths, cross-field rules)
//   - sanitize.go: masking of secrets before logging
//
// Configuration is loaded with internal/infra/confloader from a YAML file
// and AUTHTOKEN_* environment variables on top of Default().
package config
