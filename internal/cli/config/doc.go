// Package config holds the authtoken-cli settings file (~/.authtoken/cli.yaml).
//
// The file stores the default server, the preferred output format and the
// auth token saved by "authtoken-cli login". It is written with mode 0600.
package config
