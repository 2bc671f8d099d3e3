package command

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authtoken-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Run commands interactively",
		Action: shell,
	}
}

// shell runs each line as a fresh CLI invocation, so a login inside the
// shell is picked up by the following commands. Global flags given to the
// shell apply to every line.
func shell(c *cli.Context) error {
	s := settingsFrom(c)
	history := repl.NewHistory(filepath.Join(filepath.Dir(s.path), "history"), 0)
	if err := history.Load(); err != nil {
		return err
	}

	globals := []string{"--config", s.path}
	for _, name := range []string{"server", "token", "output"} {
		if v := c.String(name); v != "" {
			globals = append(globals, "--"+name, v)
		}
	}
	for _, name := range []string{"wide", "verbose"} {
		if c.Bool(name) {
			globals = append(globals, "--"+name)
		}
	}

	parent := c.App
	r := repl.New(repl.Config{
		Input:    parent.Reader,
		Output:   parent.Writer,
		Commands: commandPaths(App().Commands, ""),
		History:  history,
		Execute: func(ctx context.Context, args []string) error {
			if args[0] == "shell" {
				return errors.New("already in the shell")
			}
			app := App()
			app.Reader = parent.Reader
			app.Writer = parent.Writer
			app.ErrWriter = parent.ErrWriter
			app.ExitErrHandler = func(*cli.Context, error) {}
			return app.RunContext(ctx, append(append([]string{parent.Name}, globals...), args...))
		},
	})

	runErr := r.Run(c.Context)
	return errors.Join(runErr, history.Save())
}

// commandPaths lists every command as a space separated path.
func commandPaths(cmds []*cli.Command, prefix string) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		path := cmd.Name
		if prefix != "" {
			path = prefix + " " + cmd.Name
		}
		paths = append(paths, path)
		paths = append(paths, commandPaths(cmd.Subcommands, path)...)
	}
	return paths
}
