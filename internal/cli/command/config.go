package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authtoken-go/internal/cli/output"
	"github.com/yndnr/authtoken-go/internal/infra/confloader"
	serverconfig "github.com/yndnr/authtoken-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"cfg"},
		Usage:   "Server configuration tools",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check a server config file",
				ArgsUsage: "FILE",
				Action:    configValidate,
			},
			{
				Name:      "show",
				Usage:     "Show the effective server configuration with secrets masked",
				ArgsUsage: "[FILE]",
				Action:    configShow,
			},
			{
				Name:   "keys",
				Usage:  "List configuration keys and their environment variables",
				Action: configKeys,
			},
		},
	}
}

func configValidate(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: config validate FILE")
	}
	path := c.Args().First()
	if _, err := serverconfig.Load(path); err != nil {
		return err
	}
	printMessage(c, "%s: OK", path)
	return nil
}

// configShow prints Default() merged with FILE and AUTHTOKEN_* variables.
func configShow(c *cli.Context) error {
	cfg, err := serverconfig.Load(c.Args().First())
	if err != nil {
		return err
	}
	values := confloader.ToMap(serverconfig.Sanitize(cfg))

	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return printResult(c, values)
	}

	flat := make(map[string]string)
	flatten("", values, flat)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := &output.Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range keys {
		table.AddRow(k, flat[k])
	}
	return table.Render(c.App.Writer)
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = fmt.Sprint(v)
	}
}

type configKey struct {
	Key string `json:"key"`
	Env string `json:"env"`
}

func configKeys(c *cli.Context) error {
	keys := confloader.KeysOf(serverconfig.Default())
	sort.Strings(keys)

	rows := make([]configKey, len(keys))
	for i, k := range keys {
		rows[i] = configKey{
			Key: k,
			Env: confloader.DefaultEnvPrefix + strings.ToUpper(strings.ReplaceAll(k, ".", "_")),
		}
	}
	return printResult(c, rows)
}
