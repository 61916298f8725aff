package timeline

import (
	"slices"
	"strings"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/constants"
	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// CurrentStatus returns the status of the most recent history entry. Entries
// sharing the latest date resolve to the one appended last. Records without
// history, or whose latest status is blank, report model.StatusNotAvailable.
func CurrentStatus(record model.TrackedRecord) string {
	history := SortedHistory(record)
	if len(history) == 0 {
		return model.StatusNotAvailable
	}
	status := strings.TrimSpace(history[0].Status)
	if status == "" {
		return model.StatusNotAvailable
	}
	return status
}

// SortedHistory returns a copy of the status history, newest first. Entries
// with equal dates appear in reverse insertion order so the last appended one
// leads.
func SortedHistory(record model.TrackedRecord) []model.StatusEvent {
	n := len(record.StatusHistory)
	history := make([]model.StatusEvent, n)
	for i, event := range record.StatusHistory {
		history[n-1-i] = event
	}
	slices.SortStableFunc(history, func(a, b model.StatusEvent) int {
		return compareMillisDesc(a.Date.Millis(), b.Date.Millis())
	})
	return history
}

// AgeInDays is the fractional number of days between updatedAt and now.
func AgeInDays(record model.TrackedRecord, now time.Time) float64 {
	return float64(now.UnixMilli()-record.UpdatedAt.Millis()) / float64(constants.MillisPerDay)
}

// IsUrgent reports whether the record has sat longer than urgentDays in a
// status that is not ignored. Exactly urgentDays old is not urgent. A record
// without a usable updatedAt is never urgent.
func IsUrgent(record model.TrackedRecord, urgentDays int, ignored IgnoredStatuses, now time.Time) bool {
	if ignored.Contains(CurrentStatus(record)) {
		return false
	}
	if !record.UpdatedAt.Known() {
		return false
	}
	return AgeInDays(record, now) > float64(urgentDays)
}

// OrderForDisplay returns a new slice with urgent records first, oldest first,
// followed by the rest, newest first. Ties keep their input order and the
// input slice is left untouched.
func OrderForDisplay(records []model.TrackedRecord, urgentDays int, ignored IgnoredStatuses, now time.Time) []model.TrackedRecord {
	urgent := make([]model.TrackedRecord, 0, len(records))
	rest := make([]model.TrackedRecord, 0, len(records))
	for _, record := range records {
		if IsUrgent(record, urgentDays, ignored, now) {
			urgent = append(urgent, record)
		} else {
			rest = append(rest, record)
		}
	}

	slices.SortStableFunc(urgent, func(a, b model.TrackedRecord) int {
		return -compareMillisDesc(a.UpdatedAt.Millis(), b.UpdatedAt.Millis())
	})
	slices.SortStableFunc(rest, func(a, b model.TrackedRecord) int {
		return compareMillisDesc(a.UpdatedAt.Millis(), b.UpdatedAt.Millis())
	})

	return append(urgent, rest...)
}

func compareMillisDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

// Resolver bundles the urgency threshold, the ignored statuses and a clock so
// that views can resolve records without passing them around.
type Resolver struct {
	urgentDays int
	ignored    IgnoredStatuses
	now        func() time.Time
}

// NewResolver creates a resolver using the canonical ignored statuses and the
// global time provider.
func NewResolver(urgentDays int) *Resolver {
	return &Resolver{
		urgentDays: urgentDays,
		ignored:    DefaultIgnoredStatuses(),
		now:        func() time.Time { return util.GetTimeProvider().Now() },
	}
}

// WithClock returns a copy of the resolver reading time from now.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	clone := *r
	clone.now = now
	return &clone
}

// WithUrgentDays returns a copy of the resolver using a different threshold.
func (r *Resolver) WithUrgentDays(days int) *Resolver {
	clone := *r
	clone.urgentDays = days
	return &clone
}

// WithIgnored returns a copy of the resolver using a different ignored set.
func (r *Resolver) WithIgnored(ignored IgnoredStatuses) *Resolver {
	clone := *r
	clone.ignored = ignored
	return &clone
}

func (r *Resolver) UrgentDays() int {
	return r.urgentDays
}

func (r *Resolver) Now() time.Time {
	return r.now()
}

func (r *Resolver) IsUrgent(record model.TrackedRecord) bool {
	return IsUrgent(record, r.urgentDays, r.ignored, r.now())
}

func (r *Resolver) OrderForDisplay(records []model.TrackedRecord) []model.TrackedRecord {
	return OrderForDisplay(records, r.urgentDays, r.ignored, r.now())
}

// ResolveOne annotates a single record.
func (r *Resolver) ResolveOne(record model.TrackedRecord) model.ResolvedRecord {
	return r.resolveAt(record, r.now())
}

// Resolve orders the records for display and annotates each one. The clock is
// read once so every record is judged against the same instant.
func (r *Resolver) Resolve(records []model.TrackedRecord) []model.ResolvedRecord {
	now := r.now()
	ordered := OrderForDisplay(records, r.urgentDays, r.ignored, now)
	resolved := make([]model.ResolvedRecord, len(ordered))
	for i, record := range ordered {
		resolved[i] = r.resolveAt(record, now)
	}
	return resolved
}

func (r *Resolver) resolveAt(record model.TrackedRecord, now time.Time) model.ResolvedRecord {
	age := 0.0
	if record.UpdatedAt.Known() {
		age = AgeInDays(record, now)
	}
	return model.ResolvedRecord{
		TrackedRecord: record,
		CurrentStatus: CurrentStatus(record),
		Urgent:        IsUrgent(record, r.urgentDays, r.ignored, now),
		AgeDays:       age,
	}
}
