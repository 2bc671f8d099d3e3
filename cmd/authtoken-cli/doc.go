// Package main provides the entry point for authtoken-cli.
//
// The CLI talks to an authtoken-server over its HTTP API for:
//
//   - Login and logout (the token is saved in ~/.authtoken/cli.yaml)
//   - Registration and email address confirmation
//   - Health and readiness checks
//
// and works offline on a stopped server's Badger data directory for
// statistics, sweeping, backup, restore and garbage collection.
//
// Usage:
//
//	authtoken-cli --server http://127.0.0.1:5080 login --password-stdin alice
//	authtoken-cli -o json whoami
//	authtoken-cli store --data-dir /var/lib/authtoken-server/data sweep
package main
