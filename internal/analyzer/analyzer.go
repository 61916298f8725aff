package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/constants"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

type Config struct {
	DataDir      string
	CacheDir     string
	OutputFormat string
	OutFile      string
	Duration     string
	Kinds        string
	Statuses     string
	UrgentOnly   bool
	Limit        int
	UrgentDays   int
	Concurrency  int
	Reset        bool
}

type Analyzer struct {
	config   *Config
	loader   *loader.Loader
	resolver *timeline.Resolver
	out      io.Writer
}

func New(config *Config) (*Analyzer, error) {
	if err := timeline.ValidateUrgentDays(config.UrgentDays); err != nil {
		return nil, err
	}

	l, err := loader.New(loader.Config{
		DataDir:     config.DataDir,
		CacheDir:    config.CacheDir,
		Concurrency: config.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		config:   config,
		loader:   l,
		resolver: timeline.NewResolver(config.UrgentDays),
		out:      os.Stdout,
	}, nil
}

// SetOutput redirects the formatted report.
func (a *Analyzer) SetOutput(w io.Writer) {
	a.out = w
}

// SetResolver replaces the resolver, mainly to pin its clock.
func (a *Analyzer) SetResolver(r *timeline.Resolver) {
	a.resolver = r
}

func (a *Analyzer) filter() (RecordFilter, error) {
	kinds, err := ParseKinds(a.config.Kinds)
	if err != nil {
		return RecordFilter{}, err
	}
	since, err := parseDuration(a.config.Duration, a.resolver.Now())
	if err != nil {
		return RecordFilter{}, err
	}
	return RecordFilter{
		Kinds:      kinds,
		Statuses:   ParseStatuses(a.config.Statuses),
		UrgentOnly: a.config.UrgentOnly,
		Since:      since,
	}, nil
}

// BuildReport runs the pipeline up to, but not including, formatting.
func (a *Analyzer) BuildReport(ctx context.Context) (*formatter.Report, error) {
	startTime := time.Now()

	filter, err := a.filter()
	if err != nil {
		return nil, err
	}

	if a.config.Reset {
		if err := a.loader.ResetCache(); err != nil {
			return nil, fmt.Errorf("failed to reset cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	// Phase 1: Preload cache into memory
	preloadStart := time.Now()
	a.loader.Preload()
	preloadDuration := time.Since(preloadStart)

	// Phase 2: Scan, validate and parse
	loadStart := time.Now()
	snapshot, err := a.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	loadDuration := time.Since(loadStart)
	util.LogInfo(fmt.Sprintf("Loaded %d records from %d files", len(snapshot.Records), len(snapshot.Files)))

	// Phase 3: Filter by kind and time window
	filterStart := time.Now()
	records := filter.PreFilter(snapshot.Records)
	filterDuration := time.Since(filterStart)
	util.LogDebug(fmt.Sprintf("Phase 3 - Filter duration: %v, records after filtering: %d", filterDuration, len(records)))

	// Phase 4: Resolve status and order for display
	resolveStart := time.Now()
	now := a.resolver.Now()
	resolved := filter.PostFilter(a.resolver.WithClock(func() time.Time { return now }).Resolve(records))
	resolveDuration := time.Since(resolveStart)
	util.LogDebug(fmt.Sprintf("Phase 4 - Resolve duration: %v, records: %d", resolveDuration, len(resolved)))

	summary := aggregator.Summarize(resolved, a.resolver.UrgentDays(), now)

	limit := a.config.Limit
	if limit <= 0 && a.config.OutputFormat == formatter.FormatSummary {
		limit = constants.DefaultSummaryLimit
	}
	if limit > 0 && len(resolved) > limit {
		util.LogDebug(fmt.Sprintf("Applying result limit: %d -> %d", len(resolved), limit))
		resolved = resolved[:limit]
	}

	util.LogDebug(fmt.Sprintf("Report built in %v (preload:%v load:%v filter:%v resolve:%v)",
		time.Since(startTime), preloadDuration, loadDuration, filterDuration, resolveDuration))

	return &formatter.Report{
		GeneratedAt: now,
		UrgentDays:  a.resolver.UrgentDays(),
		Records:     resolved,
		Summary:     summary,
	}, nil
}

func (a *Analyzer) Run(ctx context.Context) error {
	f, err := formatter.New(a.config.OutputFormat, a.config.OutFile)
	if err != nil {
		return err
	}

	report, err := a.BuildReport(ctx)
	if err != nil {
		return err
	}

	outputStart := time.Now()
	err = f.Format(a.out, report)
	util.LogDebug(fmt.Sprintf("Formatting and output duration: %v", time.Since(outputStart)))
	return err
}
