// Package mailer delivers plain-text email.
//
// SMTP speaks to a relay with net/smtp, upgrading to TLS with STARTTLS when
// the server offers it. Log writes messages to a slog.Logger instead of
// sending them; the server uses it when no relay is configured.
package mailer
