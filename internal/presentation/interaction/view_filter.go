package interaction

import (
	"github.com/penwyp/go-biz-monitor/internal/core/model"
)

// ViewFilter holds the dashboard's interactive filters
type ViewFilter struct {
	Kind       model.RecordKind // empty means all kinds
	UrgentOnly bool
}

// CycleKind steps all → clients → invoices → proposals → all
func (f *ViewFilter) CycleKind() model.RecordKind {
	if f.Kind == "" {
		f.Kind = model.AllKinds[0]
		return f.Kind
	}
	for i, kind := range model.AllKinds {
		if kind == f.Kind && i+1 < len(model.AllKinds) {
			f.Kind = model.AllKinds[i+1]
			return f.Kind
		}
	}
	f.Kind = ""
	return f.Kind
}

func (f *ViewFilter) ToggleUrgent() bool {
	f.UrgentOnly = !f.UrgentOnly
	return f.UrgentOnly
}

// KindLabel is the heading shown for the current kind filter
func (f ViewFilter) KindLabel() string {
	if f.Kind == "" {
		return "All"
	}
	return f.Kind.Plural()
}

// Apply keeps the records matching the filter, preserving order
func (f ViewFilter) Apply(records []model.ResolvedRecord) []model.ResolvedRecord {
	if f.Kind == "" && !f.UrgentOnly {
		return records
	}
	filtered := make([]model.ResolvedRecord, 0, len(records))
	for _, r := range records {
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		if f.UrgentOnly && !r.Urgent {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
