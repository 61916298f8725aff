package commands

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

type inspectOptions struct {
	json bool
}

type inspectResult struct {
	UrgentDays int                  `json:"urgentDays"`
	Record     model.ResolvedRecord `json:"record"`
	Timeline   []model.StatusEvent  `json:"timeline"`
}

func newInspectCmd(global *globalOptions) *cobra.Command {
	opts := &inspectOptions{}

	inspectCmd := &cobra.Command{
		Use:   "inspect <id>",
		Short: "Show one record with its full status timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, global, opts, args[0])
		},
	}

	inspectCmd.Flags().BoolVar(&opts.json, "json", false, "Print the record as JSON")

	return inspectCmd
}

func runInspect(cmd *cobra.Command, global *globalOptions, opts *inspectOptions, id string) error {
	cfg, err := loadSettings(cmd, global)
	if err != nil {
		return err
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

	snapshot, err := dataLoader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	record, ok := snapshot.Find(id)
	if !ok {
		return fmt.Errorf("record %q not found", id)
	}

	resolver := timeline.NewResolver(cfg.UrgentDays)
	result := inspectResult{
		UrgentDays: resolver.UrgentDays(),
		Record:     resolver.ResolveOne(record),
		Timeline:   timeline.SortedHistory(record),
	}

	if opts.json {
		data, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	printInspect(cmd.OutOrStdout(), result)
	return nil
}

func printInspect(w io.Writer, result inspectResult) {
	record := result.Record

	urgency := "no"
	if record.Urgent {
		urgency = fmt.Sprintf("YES (no update for more than %d days)", result.UrgentDays)
	}
	age := "-"
	if record.UpdatedAt.Known() {
		age = util.FormatAgeDays(record.AgeDays)
	}

	fmt.Fprintf(w, "%s %s\n", strings.ToUpper(record.Kind.String()), record.DisplayName())
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "%-10s %s\n", "ID:", record.ID)
	fmt.Fprintf(w, "%-10s %s\n", "Status:", record.CurrentStatus)
	fmt.Fprintf(w, "%-10s %s\n", "Urgent:", urgency)
	fmt.Fprintf(w, "%-10s %s\n", "Age:", age)
	fmt.Fprintf(w, "%-10s %s\n", "Updated:", util.FormatDateTime(record.UpdatedAt.Time))
	fmt.Fprintf(w, "%-10s %s\n", "Created:", util.FormatDateTime(record.CreatedAt.Time))
	if record.Email != "" {
		fmt.Fprintf(w, "%-10s %s\n", "Email:", record.Email)
	}
	fmt.Fprintf(w, "%-10s %s\n", "Source:", record.SourceFile)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Timeline (%d events, newest first)\n", len(result.Timeline))
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no status history)")
		return
	}
	for _, event := range result.Timeline {
		status := strings.TrimSpace(event.Status)
		if status == "" {
			status = model.StatusNotAvailable
		}
		fmt.Fprintf(w, "  %-16s  %s\n", util.FormatDateTime(event.Date.Time), status)
	}
}
