package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/authtoken-go/internal/cli/config"
	"github.com/yndnr/authtoken-go/internal/cli/connection"
	"github.com/yndnr/authtoken-go/internal/cli/output"
	"github.com/yndnr/authtoken-go/internal/infra/buildinfo"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
)

// requestTimeout bounds a single API call.
const requestTimeout = 30 * time.Second

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "authtoken-cli",
		Usage:   "authtoken command-line client and maintenance tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			RegisterCommand(),
			EmailCommand(),
			SystemCommand(),
			StoreCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
		Metadata: map[string]any{},
		Before:   before,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "authtoken server URL (default from CLI config)",
			EnvVars: []string{"AUTHTOKEN_SERVER"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "auth token (default: token saved by login)",
			EnvVars: []string{"AUTHTOKEN_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"AUTHTOKEN_CLI_CONFIG"},
			Value:   cliconfig.DefaultConfigPath(),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// settings is the CLI config file as loaded, plus where it lives.
type settings struct {
	path string
	file *cliconfig.CLIConfig
}

func before(c *cli.Context) error {
	path := c.String("config")
	cfg, err := cliconfig.Load(path)
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[settingsKey] = &settings{path: path, file: cfg}

	_, err = outputFormat(c)
	return err
}

// settingsFrom returns the settings loaded by the Before hook.
func settingsFrom(c *cli.Context) *settings {
	if s, ok := c.App.Metadata[settingsKey].(*settings); ok {
		return s
	}
	return &settings{path: cliconfig.DefaultConfigPath(), file: cliconfig.Default()}
}

// save writes the settings file.
func (s *settings) save() error {
	return cliconfig.Save(s.file, s.path)
}

// serverAddr returns --server, falling back to the CLI config.
func serverAddr(c *cli.Context) string {
	if v := c.String("server"); v != "" {
		return v
	}
	return settingsFrom(c).file.Server
}

// authToken returns --token, falling back to the token saved by login.
func authToken(c *cli.Context) string {
	if v := c.String("token"); v != "" {
		return v
	}
	return settingsFrom(c).file.Token
}

func outputFormat(c *cli.Context) (output.Format, error) {
	if v := c.String("output"); v != "" {
		return output.ParseFormat(v)
	}
	return output.ParseFormat(settingsFrom(c).file.Output)
}

// newClient returns an API client for the selected server.
func newClient(c *cli.Context) *connection.Client {
	return connection.NewClient(serverAddr(c), authToken(c))
}

// authedClient is newClient for commands that need a token.
func authedClient(c *cli.Context) (*connection.Client, error) {
	if authToken(c) == "" {
		return nil, fmt.Errorf("not logged in: run %q or pass --token", "authtoken-cli login")
	}
	return newClient(c), nil
}

func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, requestTimeout)
}

// printResult writes data in the selected output format.
func printResult(c *cli.Context, data any) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, c.Bool("wide")).Format(c.App.Writer, data)
}

// printMessage writes a status line. Machine readable formats get nothing.
func printMessage(c *cli.Context, format string, args ...any) {
	if f, err := outputFormat(c); err == nil && f != output.FormatTable {
		return
	}
	fmt.Fprintf(c.App.Writer, format+"\n", args...)
}

// commandLogger logs to stderr with --verbose and nowhere otherwise.
func commandLogger(c *cli.Context) *slog.Logger {
	if !c.Bool("verbose") {
		return logger.Discard()
	}
	l, err := logger.New(logger.Config{Level: "debug", Format: "text", Output: c.App.ErrWriter})
	if err != nil {
		return logger.Discard()
	}
	return l
}
