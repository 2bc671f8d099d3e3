package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authtoken-go/internal/cli/output"
	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/server/app"
	serverconfig "github.com/yndnr/authtoken-go/internal/server/config"
)

// StoreCommand returns the store subcommand group. Its commands open a
// Badger data directory directly; the server must not be running on it.
func StoreCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "server-config",
			Aliases: []string{"c"},
			Usage:   "Server config file to take storage settings from",
			EnvVars: []string{"AUTHTOKEN_SERVER_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Badger data directory (overrides the server config)",
		},
	}

	return &cli.Command{
		Name:  "store",
		Usage: "Offline maintenance of the token store",
		Flags: flags,
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show stored tokens, accounts and disk usage",
				Action: storeStats,
			},
			{
				Name:   "sweep",
				Usage:  "Delete expired tokens",
				Action: storeSweep,
			},
			{
				Name:      "backup",
				Usage:     "Write a backup of the store",
				ArgsUsage: "FILE",
				Action:    storeBackup,
			},
			{
				Name:      "restore",
				Usage:     "Replace the store with a backup",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Confirm that existing data is dropped",
					},
				},
				Action: storeRestore,
			},
			{
				Name:   "gc",
				Usage:  "Run value log garbage collection",
				Action: storeGC,
			},
		},
	}
}

// openStore opens the Badger stores selected by --server-config and
// --data-dir. The data directory must already exist.
func openStore(c *cli.Context) (*app.Stores, *serverconfig.ServerConfig, error) {
	cfg := serverconfig.Default()
	if path := c.String("server-config"); path != "" {
		loaded, err := serverconfig.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.Storage.DataDir = dir
	}
	cfg.Storage.Engine = serverconfig.EngineBadger

	info, err := os.Stat(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("data directory %s is not a directory", cfg.Storage.DataDir)
	}

	stores, err := app.OpenStores(&cfg.Storage, commandLogger(c))
	if err != nil {
		return nil, nil, err
	}
	return stores, cfg, nil
}

type counter interface {
	Count(ctx context.Context) (int, error)
}

type storeSummary struct {
	AuthTokens         int    `json:"auth_tokens"`
	ConfirmationTokens int    `json:"confirmation_tokens"`
	Accounts           int    `json:"accounts"`
	TotalSize          uint64 `json:"total_size"`
	LSMSize            uint64 `json:"lsm_size" table:"wide"`
	ValueLogSize       uint64 `json:"value_log_size" table:"wide"`
	DataDir            string `json:"data_dir"`
}

func storeStats(c *cli.Context) error {
	stores, cfg, err := openStore(c)
	if err != nil {
		return err
	}
	defer stores.Close()

	ctx := c.Context
	stats := storeSummary{DataDir: cfg.Storage.DataDir}
	if stats.AuthTokens, err = stores.AuthTokens.Count(ctx); err != nil {
		return err
	}
	if stats.ConfirmationTokens, err = stores.ConfirmTokens.Count(ctx); err != nil {
		return err
	}
	if accounts, ok := stores.Accounts.(counter); ok {
		if stats.Accounts, err = accounts.Count(ctx); err != nil {
			return err
		}
	}

	kv, err := stores.Engine.Stats(ctx)
	if err != nil {
		return err
	}
	stats.TotalSize = kv.TotalSize
	stats.LSMSize = kv.LSMSize
	stats.ValueLogSize = kv.ValueLogSize

	return printResult(c, stats)
}

func storeSweep(c *cli.Context) error {
	stores, cfg, err := openStore(c)
	if err != nil {
		return err
	}
	defer stores.Close()

	log := commandLogger(c)
	lifecycles, err := app.NewLifecycles(&cfg.Token, stores, log, nil)
	if err != nil {
		return err
	}
	report, err := lifecycles.Sweeper(0, log).RunOnce(c.Context)
	if err != nil {
		return err
	}

	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return printResult(c, report)
	}
	table := &output.Table{Headers: []string{"KIND", "DELETED"}}
	for _, kind := range []domain.Kind{lifecycles.Auth.Kind(), lifecycles.Confirmation.Kind()} {
		table.AddRow(string(kind), fmt.Sprint(report[kind]))
	}
	return table.Render(c.App.Writer)
}

func storeBackup(c *cli.Context) (err error) {
	if c.NArg() != 1 {
		return errors.New("usage: store backup FILE")
	}
	stores, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer stores.Close()

	path := c.Args().First()
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	version, err := stores.Engine.Backup(c.Context, tmp)
	if err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	printMessage(c, "Backup written to %s (version %d)", path, version)
	return nil
}

func storeRestore(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: store restore --yes FILE")
	}
	if !c.Bool("yes") {
		return errors.New("restore drops all stored data; pass --yes to continue")
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	stores, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer stores.Close()

	if err := stores.Engine.Restore(c.Context, f); err != nil {
		return err
	}
	printMessage(c, "Restored %s", f.Name())
	return nil
}

func storeGC(c *cli.Context) error {
	stores, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer stores.Close()

	rewrites, err := stores.Engine.GC(c.Context)
	if err != nil {
		return err
	}
	printMessage(c, "GC rewrote %d value log file(s)", rewrites)
	return nil
}
