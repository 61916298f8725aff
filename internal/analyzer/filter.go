package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
)

// RecordFilter narrows a snapshot before and after resolution. The zero value
// keeps everything.
type RecordFilter struct {
	Kinds      []model.RecordKind
	Statuses   []string
	UrgentOnly bool
	Since      time.Time
}

// ParseKinds accepts a comma-separated list such as "clients,invoice".
func ParseKinds(s string) ([]model.RecordKind, error) {
	var kinds []model.RecordKind
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kind := model.ParseRecordKind(part)
		if kind == model.KindUnknown && !strings.EqualFold(part, string(model.KindUnknown)) {
			return nil, fmt.Errorf("unknown record kind %q (expected client, invoice, proposal)", part)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// ParseStatuses splits a comma-separated status list.
func ParseStatuses(s string) []string {
	var statuses []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			statuses = append(statuses, part)
		}
	}
	return statuses
}

func (f RecordFilter) matchesKind(kind model.RecordKind) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (f RecordFilter) matchesStatus(status string) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	folded := timeline.FoldStatus(status)
	for _, s := range f.Statuses {
		if timeline.FoldStatus(s) == folded {
			return true
		}
	}
	return false
}

// PreFilter applies the filters that do not depend on resolution.
func (f RecordFilter) PreFilter(records []model.TrackedRecord) []model.TrackedRecord {
	if len(f.Kinds) == 0 && f.Since.IsZero() {
		return records
	}
	filtered := make([]model.TrackedRecord, 0, len(records))
	for _, record := range records {
		if !f.matchesKind(record.Kind) {
			continue
		}
		if !f.Since.IsZero() && (!record.UpdatedAt.Known() || record.UpdatedAt.Before(f.Since)) {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

// PostFilter applies status and urgency filters while keeping display order.
func (f RecordFilter) PostFilter(records []model.ResolvedRecord) []model.ResolvedRecord {
	if len(f.Statuses) == 0 && !f.UrgentOnly {
		return records
	}
	filtered := make([]model.ResolvedRecord, 0, len(records))
	for _, record := range records {
		if f.UrgentOnly && !record.Urgent {
			continue
		}
		if !f.matchesStatus(record.CurrentStatus) {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

var (
	durationFormat  = regexp.MustCompile(`^(\d+[hymwd])+$`)
	durationPattern = regexp.MustCompile(`(\d+)([hymwd])`)
)

// parseDuration turns "7d", "2w", "1m12h" into the instant that far before now.
// Months count as 30 days and years as 365.
func parseDuration(durationStr string, now time.Time) (time.Time, error) {
	if durationStr == "" {
		return time.Time{}, nil
	}

	if !durationFormat.MatchString(durationStr) {
		return time.Time{}, fmt.Errorf("invalid duration format: %s", durationStr)
	}
	matches := durationPattern.FindAllStringSubmatch(durationStr, -1)

	var totalDuration time.Duration
	for _, match := range matches {
		value, err := strconv.Atoi(match[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid number in duration: %s", match[1])
		}

		switch match[2] {
		case "h":
			totalDuration += time.Duration(value) * time.Hour
		case "d":
			totalDuration += time.Duration(value) * 24 * time.Hour
		case "w":
			totalDuration += time.Duration(value) * 7 * 24 * time.Hour
		case "m":
			totalDuration += time.Duration(value) * 30 * 24 * time.Hour
		case "y":
			totalDuration += time.Duration(value) * 365 * 24 * time.Hour
		default:
			return time.Time{}, fmt.Errorf("unsupported time unit: %s", match[2])
		}
	}

	return now.Add(-totalDuration), nil
}
