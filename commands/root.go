package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-biz-monitor/internal/analyzer"
	"github.com/penwyp/go-biz-monitor/internal/config"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configDir  string
	dataDir    string
	cacheDir   string
	timezone   string
	urgentDays int
	logFormat  string
	debug      bool
}

type reportOptions struct {
	outputFormat string
	formatAlias  string
	outFile      string
	duration     string
	kinds        string
	statuses     string
	urgentOnly   bool
	limit        int
	reset        bool
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}
	report := &reportOptions{}

	rootCmd := &cobra.Command{
		Use:   "go-biz-monitor [flags]",
		Short: "Business record urgency monitoring tool",
		Long: `go-biz-monitor reads client, invoice and proposal records exported as JSON or
JSONL, derives each record's current status from its status history and flags
records that have been waiting too long.

Records are urgent when their last update is older than the urgency threshold
(default 5 days) and their current status is not a bookkeeping status such as
"created by user" or "invoice deleted". Urgent records are listed first, oldest
first; everything else follows, newest first.

Examples:
  go-biz-monitor                                   # Report with default settings
  go-biz-monitor --dir /path/to/exports            # Report on a specific directory
  go-biz-monitor --urgent-only --kind clients      # Only urgent clients
  go-biz-monitor --output summary                  # Totals plus the top 10 records
  go-biz-monitor --output xlsx --out-file r.xlsx   # Excel workbook
  go-biz-monitor --duration 2w                     # Records updated in the last two weeks
  go-biz-monitor top                               # Live dashboard
  go-biz-monitor serve                             # Read-only JSON API
  go-biz-monitor inspect <id>                      # One record and its timeline`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, global, report)
		},
	}

	// Configuration and input data
	rootCmd.PersistentFlags().StringVar(&global.configDir, "config", config.DefaultConfigDir,
		"Directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&global.dataDir, "dir", "",
		"Record export directory (default from config, ~/.go-biz-monitor/data)")
	rootCmd.PersistentFlags().StringVar(&global.cacheDir, "cache-dir", "",
		"Parsed record cache directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&global.timezone, "timezone", "",
		"Timezone setting (e.g., Europe/Berlin, UTC)")
	rootCmd.PersistentFlags().IntVar(&global.urgentDays, "urgent-days", 0,
		"Days without an update before a record becomes urgent (default 5)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&global.debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&global.logFormat, "log-format", "",
		"Log format (text, json)")

	// Filtering
	rootCmd.Flags().StringVarP(&report.duration, "duration", "d", "",
		"Only records updated within this window (e.g., 12h, 7d, 2w, 1m)")
	rootCmd.Flags().StringVar(&report.kinds, "kind", "",
		"Comma-separated record kinds (client, invoice, proposal)")
	rootCmd.Flags().StringVar(&report.statuses, "status", "",
		"Comma-separated current statuses to keep (case-insensitive)")
	rootCmd.Flags().BoolVarP(&report.urgentOnly, "urgent-only", "u", false,
		"Only urgent records")
	rootCmd.Flags().IntVar(&report.limit, "limit", 0,
		"Limit result count (0 = unlimited, summary defaults to 10)")

	// Output configuration
	rootCmd.Flags().StringVarP(&report.outputFormat, "output", "o", "table",
		"Output format (table, json, csv, xlsx, summary)")
	rootCmd.Flags().StringVar(&report.formatAlias, "format", "",
		"Alias for --output")
	rootCmd.Flags().StringVar(&report.outFile, "out-file", "",
		"Write xlsx output to this file instead of stdout")
	rootCmd.Flags().BoolVarP(&report.reset, "reset", "r", false,
		"Clear cache before analysis")

	rootCmd.AddCommand(newTopCmd(global), newServeCmd(global), newInspectCmd(global))

	return rootCmd
}

// Execute runs the CLI and stops long-running commands on SIGINT/SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer util.CloseLogger()

	return newRootCmd().ExecuteContext(ctx)
}

// loadSettings merges config.yaml and BIZMON_* variables with the flags the
// user actually set, which win.
func loadSettings(cmd *cobra.Command, global *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(expandPath(global.configDir))
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.DataDir = global.dataDir
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = global.cacheDir
	}
	if flags.Changed("timezone") {
		cfg.Timezone = global.timezone
	}
	if flags.Changed("urgent-days") {
		if err := timeline.ValidateUrgentDays(global.urgentDays); err != nil {
			return nil, fmt.Errorf("--urgent-days: %w", err)
		}
		cfg.UrgentDays = global.urgentDays
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = global.logFormat
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.CacheDir = expandPath(cfg.CacheDir)
	cfg.LogFile = expandPath(cfg.LogFile)
	return cfg, nil
}

// initRuntime sets up logging and the timezone. Console logging is only
// enabled for commands that do not own the terminal.
func initRuntime(cfg *config.Config, debug, consoleAllowed bool) error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	if err := ensureDir(filepath.Dir(cfg.LogFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(util.LoggerOptions{
		Level:          logLevel,
		File:           cfg.LogFile,
		Format:         util.ParseLogFormat(cfg.LogFormat),
		DebugToConsole: debug && consoleAllowed,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := util.InitializeTimeProvider(cfg.Timezone); err != nil {
		return fmt.Errorf("failed to initialize timezone: %w", err)
	}

	if cfg.ConfigFile != "" {
		util.LogDebug("Loaded config", util.F("file", cfg.ConfigFile))
	}
	return nil
}

func runReport(cmd *cobra.Command, global *globalOptions, report *reportOptions) error {
	cfg, err := loadSettings(cmd, global)
	if err != nil {
		return err
	}
	if err := initRuntime(cfg, global.debug, true); err != nil {
		return err
	}

	flags := cmd.Flags()
	outputFormat := cfg.Output
	if flags.Changed("output") {
		outputFormat = report.outputFormat
	}
	if flags.Changed("format") {
		outputFormat = report.formatAlias
	}
	limit := cfg.Limit
	if flags.Changed("limit") {
		if report.limit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}
		limit = report.limit
	}

	if err := ensureDir(cfg.CacheDir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	a, err := analyzer.New(&analyzer.Config{
		DataDir:      cfg.DataDir,
		CacheDir:     cfg.CacheDir,
		OutputFormat: strings.ToLower(outputFormat),
		OutFile:      report.outFile,
		Duration:     report.duration,
		Kinds:        report.kinds,
		Statuses:     report.statuses,
		UrgentOnly:   report.urgentOnly,
		Limit:        limit,
		UrgentDays:   cfg.UrgentDays,
		Concurrency:  runtime.NumCPU(),
		Reset:        report.reset,
	})
	if err != nil {
		return err
	}
	a.SetOutput(cmd.OutOrStdout())

	return a.Run(cmd.Context())
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
