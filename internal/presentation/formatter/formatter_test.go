package formatter

import (
	"testing"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
	"github.com/penwyp/go-biz-monitor/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// sampleReport resolves the three-client example (A urgent, C and B not)
// plus a record without updatedAt.
func sampleReport(t *testing.T) *Report {
	t.Helper()
	require.NoError(t, util.InitializeTimeProvider("UTC"))

	at := func(days int) model.Timestamp {
		return model.NewTimestamp(reportNow.Add(-time.Duration(days) * 24 * time.Hour))
	}
	records := []model.TrackedRecord{
		{ID: "A", Kind: model.KindClient, Name: "Alpha Ltd", UpdatedAt: at(11),
			StatusHistory: []model.StatusEvent{{Status: "sent", Date: at(11)}}},
		{ID: "B", Kind: model.KindClient, Name: "Beta GmbH", UpdatedAt: at(20),
			StatusHistory: []model.StatusEvent{{Status: "created by user", Date: at(20)}}},
		{ID: "C", Kind: model.KindInvoice, InvoiceNumber: "1042", UpdatedAt: at(1),
			StatusHistory: []model.StatusEvent{{Status: "paid", Date: at(1)}}},
		{ID: "D", Kind: model.KindProposal, Title: "日本語の提案"},
	}

	resolver := timeline.NewResolver(5).WithClock(func() time.Time { return reportNow })
	resolved := resolver.Resolve(records)
	return &Report{
		GeneratedAt: reportNow,
		UrgentDays:  5,
		Records:     resolved,
		Summary:     aggregator.Summarize(resolved, 5, reportNow),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		want    interface{}
		wantErr bool
	}{
		{"", &TableFormatter{}, false},
		{"table", &TableFormatter{}, false},
		{"JSON", &JSONFormatter{}, false},
		{"csv", &CSVFormatter{}, false},
		{"xlsx", &XLSXFormatter{}, false},
		{"summary", &SummaryFormatter{}, false},
		{"yaml", nil, true},
	}

	for _, tt := range tests {
		t.Run("format_"+tt.name, func(t *testing.T) {
			f, err := New(tt.name, "")
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "supported: table, json, csv, xlsx, summary")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestRecordRow(t *testing.T) {
	report := sampleReport(t)

	assert.Equal(t, []string{"client", "A", "Alpha Ltd", "sent", "2024-05-21 12:00", "11 days", "yes"}, recordRow(report.Records[0]))
	assert.Equal(t, []string{"invoice", "C", "#1042", "paid", "2024-05-31 12:00", "1 day", ""}, recordRow(report.Records[1]))
	assert.Equal(t, []string{"proposal", "D", "日本語の提案", model.StatusNotAvailable, "-", "-", ""}, recordRow(report.Records[3]))
}
