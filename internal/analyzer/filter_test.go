package analyzer

import (
	"testing"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "single hour", input: "1h", expected: time.Hour},
		{name: "multiple days", input: "7d", expected: 7 * 24 * time.Hour},
		{name: "single week", input: "1w", expected: 7 * 24 * time.Hour},
		{name: "month", input: "1m", expected: 30 * 24 * time.Hour},
		{name: "year", input: "1y", expected: 365 * 24 * time.Hour},
		{name: "combined", input: "1w2d", expected: 9 * 24 * time.Hour},
		{name: "invalid", input: "soon", wantErr: true},
		{name: "trailing garbage", input: "7dxyz", wantErr: true},
		{name: "leading garbage", input: "x1h", wantErr: true},
		{name: "separated units", input: "1w 2d", wantErr: true},
		{name: "missing unit", input: "7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseDuration(tt.input, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, now.Add(-tt.expected), result)
		})
	}

	empty, err := parseDuration("", now)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds("clients, Invoice,,proposal")
	require.NoError(t, err)
	assert.Equal(t, []model.RecordKind{model.KindClient, model.KindInvoice, model.KindProposal}, kinds)

	kinds, err = ParseKinds("")
	require.NoError(t, err)
	assert.Empty(t, kinds)

	_, err = ParseKinds("client,meeting")
	assert.ErrorContains(t, err, `unknown record kind "meeting"`)
}

func TestParseStatuses(t *testing.T) {
	assert.Equal(t, []string{"sent", "Paid"}, ParseStatuses(" sent ,Paid,"))
	assert.Empty(t, ParseStatuses(""))
}

func TestPreFilter(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []model.TrackedRecord{
		{ID: "c-new", Kind: model.KindClient, UpdatedAt: model.NewTimestamp(now.Add(-time.Hour))},
		{ID: "c-old", Kind: model.KindClient, UpdatedAt: model.NewTimestamp(now.Add(-30 * 24 * time.Hour))},
		{ID: "i-new", Kind: model.KindInvoice, UpdatedAt: model.NewTimestamp(now.Add(-time.Hour))},
		{ID: "c-none", Kind: model.KindClient},
	}

	assert.Equal(t, records, RecordFilter{}.PreFilter(records))

	byKind := RecordFilter{Kinds: []model.RecordKind{model.KindClient}}.PreFilter(records)
	assert.Equal(t, []string{"c-new", "c-old", "c-none"}, trackedIDs(byKind))

	since := RecordFilter{Since: now.Add(-7 * 24 * time.Hour)}.PreFilter(records)
	assert.Equal(t, []string{"c-new", "i-new"}, trackedIDs(since), "records without updatedAt fall outside any window")
}

func TestPostFilter(t *testing.T) {
	records := []model.ResolvedRecord{
		{TrackedRecord: model.TrackedRecord{ID: "1"}, CurrentStatus: "sent", Urgent: true},
		{TrackedRecord: model.TrackedRecord{ID: "2"}, CurrentStatus: "Paid"},
		{TrackedRecord: model.TrackedRecord{ID: "3"}, CurrentStatus: "SENT"},
	}

	assert.Len(t, RecordFilter{}.PostFilter(records), 3)
	assert.Equal(t, []string{"1"}, resolvedIDs(RecordFilter{UrgentOnly: true}.PostFilter(records)))
	assert.Equal(t, []string{"1", "3"}, resolvedIDs(RecordFilter{Statuses: []string{"sent"}}.PostFilter(records)))
	assert.Equal(t, []string{"1", "2", "3"}, resolvedIDs(RecordFilter{Statuses: []string{"paid", " Sent "}}.PostFilter(records)))
	assert.Empty(t, RecordFilter{UrgentOnly: true, Statuses: []string{"paid"}}.PostFilter(records))
}

func trackedIDs(records []model.TrackedRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func resolvedIDs(records []model.ResolvedRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}
