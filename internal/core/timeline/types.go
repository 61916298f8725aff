package timeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
)

// ErrInvalidUrgentDays is returned for thresholds below one day.
var ErrInvalidUrgentDays = errors.New("urgent days must be a positive integer")

// ValidateUrgentDays is the one check every entry point applies to a
// configured, flagged or requested threshold.
func ValidateUrgentDays(days int) error {
	if days < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidUrgentDays, days)
	}
	return nil
}

// IgnoredStatuses is a case-insensitive set of statuses that never make a
// record urgent.
type IgnoredStatuses map[string]struct{}

// NewIgnoredStatuses builds a set from the given statuses.
func NewIgnoredStatuses(statuses ...string) IgnoredStatuses {
	set := make(IgnoredStatuses, len(statuses))
	for _, s := range statuses {
		set[FoldStatus(s)] = struct{}{}
	}
	return set
}

// DefaultIgnoredStatuses returns the canonical bookkeeping statuses shared by
// every view.
func DefaultIgnoredStatuses() IgnoredStatuses {
	return NewIgnoredStatuses(
		model.StatusImportedFromGoogle,
		model.StatusCreatedByUser,
		model.StatusProposalDeleted,
		model.StatusInvoiceDeleted,
	)
}

// Contains reports whether status is in the set, ignoring case and
// surrounding whitespace.
func (s IgnoredStatuses) Contains(status string) bool {
	_, ok := s[FoldStatus(status)]
	return ok
}

// List returns the folded statuses in sorted order.
func (s IgnoredStatuses) List() []string {
	out := make([]string, 0, len(s))
	for status := range s {
		out = append(out, status)
	}
	sort.Strings(out)
	return out
}

// FoldStatus is the comparison key for status strings.
func FoldStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
