package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-biz-monitor/internal/core/monitoring"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/server"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

type serveOptions struct {
	addr           string
	allowedOrigins []string
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolved records over a read-only JSON API",
		Long: `Starts an HTTP server exposing the resolved record list.

Endpoints:
  GET /healthz
  GET /api/records?kind=&status=&urgentOnly=&limit=&urgentDays=
  GET /api/records/{id}
  GET /api/summary?urgentDays=

The snapshot is reloaded whenever an export file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, global, opts)
		},
	}

	serveCmd.Flags().StringVar(&opts.addr, "addr", "",
		"Listen address (default 127.0.0.1:8080)")
	serveCmd.Flags().StringSliceVar(&opts.allowedOrigins, "allowed-origins", nil,
		"CORS allowed origins")

	return serveCmd
}

func runServe(cmd *cobra.Command, global *globalOptions, opts *serveOptions) error {
	cfg, err := loadSettings(cmd, global)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if cmd.Flags().Changed("allowed-origins") {
		cfg.Server.AllowedOrigins = opts.allowedOrigins
	}

	if err := initRuntime(cfg, global.debug, true); err != nil {
		return err
	}
	if err := ensureDir(cfg.CacheDir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	dataLoader, err := loader.New(loader.Config{
		DataDir:     cfg.DataDir,
		CacheDir:    cfg.CacheDir,
		Concurrency: runtime.NumCPU(),
	})
	if err != nil {
		return fmt.Errorf("failed to create data loader: %w", err)
	}
	dataLoader.Preload()

	ctx := cmd.Context()
	store := server.NewStore(dataLoader)
	if err := store.Reload(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}

	watcher, err := monitoring.NewFileWatcher([]string{cfg.DataDir}, monitoring.DefaultDebounce)
	if err != nil {
		util.LogWarn(fmt.Sprintf("File watcher unavailable, snapshot will not refresh: %v", err))
	} else {
		defer watcher.Close()
		go store.Watch(ctx, watcher.Events())
	}

	srv := server.New(store, server.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		UrgentDays:     cfg.UrgentDays,
	})
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.DataDir, cfg.Server.Addr)

	return srv.Run(ctx)
}
