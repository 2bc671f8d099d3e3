package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/authtoken-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server liveness",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check server readiness",
				Action: systemReady,
			},
			{
				Name:   "version",
				Usage:  "Show client and server versions",
				Action: systemVersion,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	h, err := newClient(c).Health(ctx)
	if err != nil {
		return err
	}
	return printResult(c, h)
}

func systemReady(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	h, err := newClient(c).Ready(ctx)
	if err != nil {
		return err
	}
	return printResult(c, h)
}

type versionInfo struct {
	Client    string `json:"client"`
	Commit    string `json:"commit" table:"wide"`
	GoVersion string `json:"go_version" table:"wide"`
	Server    string `json:"server"`
}

// systemVersion reports the server version as "unreachable" rather than
// failing when the server cannot be reached.
func systemVersion(c *cli.Context) error {
	info := buildinfo.Get()
	v := versionInfo{
		Client:    info.Version,
		Commit:    info.Commit,
		GoVersion: info.GoVersion,
		Server:    "unreachable",
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if h, err := newClient(c).Health(ctx); err == nil {
		v.Server = h.Version
	}
	return printResult(c, v)
}
