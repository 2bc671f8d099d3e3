// Package main provides the entry point for authtoken-server.
//
// The server issues and resolves opaque bearer tokens for user accounts:
//
//   - HTTP/HTTPS API for login, logout, registration and email confirmation
//   - Background sweeper deleting expired tokens
//   - Prometheus metrics at /metrics
//
// Usage:
//
//	authtoken-server [flags]
//	authtoken-server -config /etc/authtoken/server.yaml
//
// Settings are read from the YAML file and AUTHTOKEN_* environment
// variables. Changes to log.level in the file are applied without restart.
package main
