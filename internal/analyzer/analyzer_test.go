package analyzer

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/constants"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T, config *Config) (*Analyzer, *bytes.Buffer) {
	t.Helper()
	now := time.Now()
	if config.DataDir == "" {
		config.DataDir = t.TempDir()
		require.NoError(t, fixtures.NewTestDataGenerator(config.DataDir, now).GenerateExampleSet())
	}
	config.CacheDir = filepath.Join(t.TempDir(), "cache")
	if config.UrgentDays == 0 {
		config.UrgentDays = constants.DefaultUrgentDays
	}

	a, err := New(config)
	require.NoError(t, err)
	a.SetResolver(a.resolver.WithClock(func() time.Time { return now }))

	var out bytes.Buffer
	a.SetOutput(&out)
	return a, &out
}

func TestAnalyzerConfig(t *testing.T) {
	config := &Config{DataDir: t.TempDir(), CacheDir: t.TempDir(), UrgentDays: 7}

	a, err := New(config)

	require.NoError(t, err)
	assert.Equal(t, 7, a.resolver.UrgentDays())

	for _, days := range []int{0, -3} {
		_, err := New(&Config{DataDir: t.TempDir(), CacheDir: t.TempDir(), UrgentDays: days})
		assert.ErrorIs(t, err, timeline.ErrInvalidUrgentDays, "threshold %d", days)
	}
}

func TestBuildReportOrdersForDisplay(t *testing.T) {
	a, _ := newTestAnalyzer(t, &Config{UrgentDays: 5})

	report, err := a.BuildReport(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "INV-1", "C", "P-1", "B", "INV-2"}, resolvedIDs(report.Records))
	assert.Equal(t, 2, report.Summary.Urgent)
	assert.Equal(t, 6, report.Summary.Total)
	assert.Equal(t, 5, report.UrgentDays)
}

func TestBuildReportFilters(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected []string
	}{
		{name: "urgent only", config: Config{UrgentOnly: true}, expected: []string{"A", "INV-1"}},
		{name: "kind", config: Config{Kinds: "invoices"}, expected: []string{"INV-1", "INV-2"}},
		{name: "status", config: Config{Statuses: "sent"}, expected: []string{"A", "INV-1", "P-1"}},
		{name: "duration", config: Config{Duration: "3d"}, expected: []string{"C", "P-1"}},
		{name: "limit", config: Config{Limit: 3}, expected: []string{"A", "INV-1", "C"}},
		{name: "higher threshold", config: Config{UrgentDays: 10, UrgentOnly: true}, expected: []string{"A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config
			a, _ := newTestAnalyzer(t, &config)

			report, err := a.BuildReport(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.expected, resolvedIDs(report.Records))
		})
	}
}

func TestBuildReportSummaryCountsBeforeLimit(t *testing.T) {
	a, _ := newTestAnalyzer(t, &Config{Limit: 1})

	report, err := a.BuildReport(context.Background())

	require.NoError(t, err)
	assert.Len(t, report.Records, 1)
	assert.Equal(t, 6, report.Summary.Total)
}

func TestBuildReportSummaryDefaultLimit(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, fixtures.NewTestDataGenerator(dataDir, time.Now()).GenerateLargeDataset("clients.json", 25))
	a, _ := newTestAnalyzer(t, &Config{DataDir: dataDir, OutputFormat: "summary"})

	report, err := a.BuildReport(context.Background())

	require.NoError(t, err)
	assert.Len(t, report.Records, constants.DefaultSummaryLimit)
}

func TestBuildReportInvalidFilters(t *testing.T) {
	a, _ := newTestAnalyzer(t, &Config{Kinds: "meetings"})
	_, err := a.BuildReport(context.Background())
	assert.Error(t, err)

	a, _ = newTestAnalyzer(t, &Config{Duration: "later"})
	_, err = a.BuildReport(context.Background())
	assert.Error(t, err)
}

func TestBuildReportNoFiles(t *testing.T) {
	a, _ := newTestAnalyzer(t, &Config{DataDir: t.TempDir()})

	_, err := a.BuildReport(context.Background())

	assert.ErrorIs(t, err, loader.ErrNoRecordFiles)
}

func TestRunFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"table", "Alpha Ltd"},
		{"json", `"currentStatus": "sent"`},
		{"csv", "Kind,ID,Name,Status"},
		{"summary", "Business Records Summary Report"},
		{"xlsx", "PK"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			a, out := newTestAnalyzer(t, &Config{OutputFormat: tt.format})

			require.NoError(t, a.Run(context.Background()))
			assert.True(t, strings.Contains(out.String(), tt.want))
		})
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	a, out := newTestAnalyzer(t, &Config{OutputFormat: "yaml"})

	err := a.Run(context.Background())

	assert.ErrorContains(t, err, "unsupported output format")
	assert.Empty(t, out.String())
}

func TestRunWithReset(t *testing.T) {
	a, _ := newTestAnalyzer(t, &Config{OutputFormat: "json"})
	require.NoError(t, a.Run(context.Background()))

	a.config.Reset = true
	report, err := a.BuildReport(context.Background())

	require.NoError(t, err)
	assert.Len(t, report.Records, 6)
}

func TestResolverCanBeReplaced(t *testing.T) {
	a, _ := newTestAnalyzer(t, &Config{})
	a.SetResolver(timeline.NewResolver(100))

	report, err := a.BuildReport(context.Background())

	require.NoError(t, err)
	assert.Zero(t, report.Summary.Urgent)
}
