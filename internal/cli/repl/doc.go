// Package repl provides interactive mode for authtoken-cli.
//
// This package implements the Read-Eval-Print Loop behind "authtoken-cli shell":
//
//   - repl.go: Main loop, line splitting and built-in commands
//   - completer.go: Command name lookup for help and suggestions
//   - history.go: Command history persistence
//
// Each line is split into arguments and handed to an Execute function,
// which runs it as a regular CLI invocation.
package repl
