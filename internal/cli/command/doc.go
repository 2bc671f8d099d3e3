// Package command provides CLI command definitions for authtoken-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, settings and output helpers
//   - account.go: login, logout, whoami, register and email commands
//   - system.go: health, ready and version checks
//   - store.go: offline maintenance of a Badger data directory
//   - config.go: server configuration validation and inspection
//   - shell.go: interactive mode on top of package repl
//
// Commands follow a consistent pattern of parsing flags, calling the
// server API (or opening the store), and formatting output with the
// selected formatter.
package command
