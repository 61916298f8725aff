package commands

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-biz-monitor/internal/application/top"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

type topOptions struct {
	timeFormat       string
	refreshRate      int
	refreshPerSecond float64
	reset            bool
}

func newTopCmd(global *globalOptions) *cobra.Command {
	opts := &topOptions{}

	topCmd := &cobra.Command{
		Use:   "top",
		Short: "Watch records in a live terminal dashboard",
		Long: `Similar to the Linux top command, shows the ordered record list in real time.
Urgent records stay at the top and are highlighted.

The view reloads whenever an export file changes and every --refresh-rate
seconds, since records turn urgent as time passes even when nothing changes.

Keys: q quit, s sort, u urgent only, k kind filter, r reload, t layout, h help.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(cmd, global, opts)
		},
	}

	topCmd.Flags().StringVar(&opts.timeFormat, "time-format", "",
		"Time format (12h or 24h)")
	topCmd.Flags().IntVar(&opts.refreshRate, "refresh-rate", 0,
		"Data refresh rate in seconds (default 30)")
	topCmd.Flags().Float64Var(&opts.refreshPerSecond, "refresh-per-second", 0,
		"Display refresh rate (0.1-20 Hz, default 1)")
	topCmd.Flags().BoolVarP(&opts.reset, "reset", "r", false,
		"Clear cache before starting")

	return topCmd
}

func runTop(cmd *cobra.Command, global *globalOptions, opts *topOptions) error {
	cfg, err := loadSettings(cmd, global)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("time-format") {
		cfg.TimeFormat = opts.timeFormat
	}
	if flags.Changed("refresh-rate") {
		if opts.refreshRate <= 0 {
			return fmt.Errorf("--refresh-rate must be positive")
		}
		cfg.RefreshRate = opts.refreshRate
	}
	if flags.Changed("refresh-per-second") {
		if opts.refreshPerSecond < 0.1 || opts.refreshPerSecond > 20 {
			return fmt.Errorf("--refresh-per-second must be between 0.1 and 20")
		}
		cfg.RefreshPerSecond = opts.refreshPerSecond
	}

	// The dashboard owns the terminal, so logs only go to the file
	if err := initRuntime(cfg, global.debug, false); err != nil {
		return err
	}
	if err := ensureDir(cfg.CacheDir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	topConfig := &top.TopConfig{
		DataDir:             cfg.DataDir,
		CacheDir:            cfg.CacheDir,
		UrgentDays:          cfg.UrgentDays,
		Timezone:            cfg.Timezone,
		TimeFormat:          cfg.TimeFormat,
		DataRefreshInterval: time.Duration(cfg.RefreshRate) * time.Second,
		UIRefreshRate:       cfg.RefreshPerSecond,
		Concurrency:         runtime.NumCPU(),
	}

	orchestrator, err := top.NewOrchestrator(topConfig)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	if opts.reset {
		if err := orchestrator.ResetCache(); err != nil {
			util.LogWarn(fmt.Sprintf("Failed to clear cache: %v", err))
		}
	}

	return orchestrator.Run(cmd.Context())
}
