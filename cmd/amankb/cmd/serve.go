package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/amankb/internal/async"
	"github.com/Aman-CERP/amankb/internal/config"
	"github.com/Aman-CERP/amankb/internal/kb"
	"github.com/Aman-CERP/amankb/internal/logging"
	"github.com/Aman-CERP/amankb/internal/mcp"
	"github.com/Aman-CERP/amankb/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run the knowledge base as a Model Context Protocol server.

stdout carries JSON-RPC only; logs go to ~/.amankb/logs/server.log.
The index is built in the background on start, and source files are
watched and reloaded when they change unless --no-watch is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, noWatch)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not watch source files for changes")
	return cmd
}

func runServe(ctx context.Context, noWatch bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.Server.LogLevel
	if debugMode {
		level = "debug"
	}
	if err := initLogging(logging.ServeConfig(level), level); err != nil {
		return err
	}
	logger := slog.Default()

	svc, err := kb.New(kb.OptionsFromConfig(cfg, logger))
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	srv, err := mcp.NewServer(svc, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reloader := async.NewReloader(func(ctx context.Context) error {
		_, err := svc.Reload(ctx)
		return err
	}, logger)
	reloader.Start(ctx)
	defer reloader.Stop()

	g, gctx := errgroup.WithContext(ctx)

	// Warm start: the first tool call waits for this build instead of
	// starting its own.
	g.Go(func() error {
		if err := svc.Warm(gctx); err != nil {
			logger.Error("kb_warm_failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if cfg.Watch.Enabled && !noWatch {
		if err := startWatcher(gctx, g, cfg, reloader, logger); err != nil {
			return err
		}
	}

	g.Go(func() error {
		// The client closing stdin ends the session.
		defer cancel()
		return srv.Serve(gctx, cfg.Server.Transport)
	})

	return g.Wait()
}

func startWatcher(ctx context.Context, g *errgroup.Group, cfg *config.Config, reloader *async.Reloader, logger *slog.Logger) error {
	paths := make([]string, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		paths = append(paths, src.Path)
	}

	opts := watcher.DefaultOptions()
	opts.Debounce = cfg.WatchDebounce()
	w, err := watcher.New(paths, opts, logger)
	if err != nil {
		return err
	}

	g.Go(func() error {
		defer w.Stop()
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		for batch := range w.Changes() {
			logger.Info("sources_changed", slog.Int("files", len(batch)))
			reloader.Trigger()
		}
		return nil
	})
	return nil
}
