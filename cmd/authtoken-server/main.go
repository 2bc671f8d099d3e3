package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/authtoken-go/internal/infra/buildinfo"
	"github.com/yndnr/authtoken-go/internal/infra/confloader"
	"github.com/yndnr/authtoken-go/internal/infra/shutdown"
	"github.com/yndnr/authtoken-go/internal/server/app"
	"github.com/yndnr/authtoken-go/internal/server/config"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
	"github.com/yndnr/authtoken-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("authtoken-server " + buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting authtoken-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"storage", cfg.Storage.Engine)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.NewRegistry()
	a, err := app.New(cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return a.Close()
	})

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		a.Sweeper().Run(sweepCtx)
	}()
	shutdownHandler.OnShutdown("sweeper", func(ctx context.Context) error {
		stopSweeper()
		select {
		case <-sweepDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	srv := a.Server()
	shutdownHandler.OnShutdown("http server", srv.Shutdown)

	log.Info("HTTP server listening",
		"addr", cfg.Server.HTTP.Addr,
		"tls", srv.TLSEnabled())
	return serve(srv.ListenAndServe, shutdownHandler, log)
}

// serve runs listen until shutdown. A listen failure shuts the process down
// and is returned after the hooks have run, so the exit status reflects it.
func serve(listen func() error, h *shutdown.Handler, log *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := listen(); err != nil {
			log.Error("HTTP server error", "error", err)
			serveErr <- err
			h.Trigger("http server failed")
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	shutdownErr := h.Wait(context.Background())
	if shutdownErr != nil {
		log.Error("shutdown error", "error", shutdownErr)
	}

	select {
	case err := <-serveErr:
		return errors.Join(fmt.Errorf("http server: %w", err), shutdownErr)
	default:
	}
	if shutdownErr != nil {
		return shutdownErr
	}

	log.Info("server stopped gracefully")
	return nil
}

// watchConfig reloads the configuration file on change and applies the
// settings that can change at runtime. Currently that is log.level only.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		cfg, err := config.Load(changed)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "path", changed, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
