package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked,
// suitable for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Mail.Password != "" {
		sanitized.Mail.Password = maskSecret(sanitized.Mail.Password)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
