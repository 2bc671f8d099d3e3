// Package logger provides structured logging for authtoken.
//
//   - logger.go: log/slog construction, output format and dynamic level
//   - context.go: request-scoped loggers carrying the request ID
//   - redact.go: masking of secrets, passwords and Authorization values
//
// Components receive a *slog.Logger; nothing in the tree logs through the
// standard log package.
package logger
