// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Environment variables (AUTHTOKEN_ prefix)
//  2. Configuration file (YAML)
//  3. Values already present in the target struct
//
// Environment names map to keys by lowercasing and turning underscores into
// dots, except where a registered key matches with its own underscores
// intact: with "mail.smtp_host" registered, AUTHTOKEN_MAIL_SMTP_HOST sets
// mail.smtp_host rather than mail.smtp.host.
//
// Watcher reports writes to a configuration file so that reloadable
// settings (the log level) can change without a restart.
package confloader
