package interaction

import (
	"slices"
	"strings"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
)

// SortMode selects how the dashboard list is ordered
type SortMode int

const (
	SortDisplayOrder SortMode = iota
	SortByName
	SortByUpdated
	SortByStatus
)

var sortModeNames = map[SortMode]string{
	SortDisplayOrder: "urgency",
	SortByName:       "name",
	SortByUpdated:    "updated",
	SortByStatus:     "status",
}

func (m SortMode) String() string {
	if name, ok := sortModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// Next cycles urgency → name → updated → status → urgency
func (m SortMode) Next() SortMode {
	return (m + 1) % SortMode(len(sortModeNames))
}

// RecordSorter handles sorting of resolved records
type RecordSorter struct {
	mode SortMode
}

// NewRecordSorter creates a sorter that keeps the resolver's display order
func NewRecordSorter() *RecordSorter {
	return &RecordSorter{mode: SortDisplayOrder}
}

func (s *RecordSorter) Mode() SortMode {
	return s.mode
}

// Cycle switches to the next sort mode and returns it
func (s *RecordSorter) Cycle() SortMode {
	s.mode = s.mode.Next()
	return s.mode
}

// Sort returns a sorted copy. Input is expected in display order, which also
// breaks ties for every other mode.
func (s *RecordSorter) Sort(records []model.ResolvedRecord) []model.ResolvedRecord {
	sorted := slices.Clone(records)

	switch s.mode {
	case SortByName:
		slices.SortStableFunc(sorted, func(a, b model.ResolvedRecord) int {
			return strings.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
		})
	case SortByUpdated:
		slices.SortStableFunc(sorted, func(a, b model.ResolvedRecord) int {
			am, bm := a.UpdatedAt.Millis(), b.UpdatedAt.Millis()
			switch {
			case am > bm:
				return -1
			case am < bm:
				return 1
			default:
				return 0
			}
		})
	case SortByStatus:
		slices.SortStableFunc(sorted, func(a, b model.ResolvedRecord) int {
			return strings.Compare(timeline.FoldStatus(a.CurrentStatus), timeline.FoldStatus(b.CurrentStatus))
		})
	}
	return sorted
}
