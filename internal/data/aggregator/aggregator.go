package aggregator

import (
	"sort"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
)

// StatusCount counts records per current status. Status keeps the spelling
// seen first; grouping is case-insensitive.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Urgent int    `json:"urgent"`
}

type KindSummary struct {
	Kind     model.RecordKind `json:"kind"`
	Total    int              `json:"total"`
	Urgent   int              `json:"urgent"`
	Statuses []StatusCount    `json:"statuses"`
}

// Summary is the dashboard overview of one snapshot.
type Summary struct {
	GeneratedAt  time.Time             `json:"generatedAt"`
	UrgentDays   int                   `json:"urgentDays"`
	Total        int                   `json:"total"`
	Urgent       int                   `json:"urgent"`
	Kinds        []KindSummary         `json:"kinds"`
	Statuses     []StatusCount         `json:"statuses"`
	OldestUrgent *model.ResolvedRecord `json:"oldestUrgent,omitempty"`
}

// KindTotals returns the summary for kind, or a zero entry.
func (s *Summary) KindTotals(kind model.RecordKind) KindSummary {
	for _, k := range s.Kinds {
		if k.Kind == kind {
			return k
		}
	}
	return KindSummary{Kind: kind}
}

type Aggregator struct {
	resolver *timeline.Resolver
}

func NewAggregator(resolver *timeline.Resolver) *Aggregator {
	return &Aggregator{resolver: resolver}
}

// Aggregate resolves the records against a single instant and summarizes
// them, so the summary always agrees with the returned list.
func (a *Aggregator) Aggregate(records []model.TrackedRecord) ([]model.ResolvedRecord, *Summary) {
	now := a.resolver.Now()
	resolver := a.resolver.WithClock(func() time.Time { return now })

	resolved := resolver.Resolve(records)
	return resolved, Summarize(resolved, resolver.UrgentDays(), now)
}

type statusBucket struct {
	counts map[string]*StatusCount
	order  []string
}

func newStatusBucket() *statusBucket {
	return &statusBucket{counts: make(map[string]*StatusCount)}
}

func (b *statusBucket) add(status string, urgent bool) {
	key := timeline.FoldStatus(status)
	entry, ok := b.counts[key]
	if !ok {
		entry = &StatusCount{Status: status}
		b.counts[key] = entry
		b.order = append(b.order, key)
	}
	entry.Count++
	if urgent {
		entry.Urgent++
	}
}

// sorted orders by count descending, then by status name.
func (b *statusBucket) sorted() []StatusCount {
	out := make([]StatusCount, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, *b.counts[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return timeline.FoldStatus(out[i].Status) < timeline.FoldStatus(out[j].Status)
	})
	return out
}

// Summarize builds a Summary from already resolved records. Known kinds are
// always listed; unknown ones only when present.
func Summarize(records []model.ResolvedRecord, urgentDays int, generatedAt time.Time) *Summary {
	summary := &Summary{
		GeneratedAt: generatedAt,
		UrgentDays:  urgentDays,
	}

	kindIndex := make(map[model.RecordKind]int)
	kindStatuses := make(map[model.RecordKind]*statusBucket)
	for _, kind := range model.AllKinds {
		kindIndex[kind] = len(summary.Kinds)
		summary.Kinds = append(summary.Kinds, KindSummary{Kind: kind})
		kindStatuses[kind] = newStatusBucket()
	}
	overall := newStatusBucket()

	for i := range records {
		record := records[i]
		kind := record.Kind
		if kind == "" {
			kind = model.KindUnknown
		}
		idx, ok := kindIndex[kind]
		if !ok {
			idx = len(summary.Kinds)
			kindIndex[kind] = idx
			summary.Kinds = append(summary.Kinds, KindSummary{Kind: kind})
			kindStatuses[kind] = newStatusBucket()
		}

		summary.Total++
		summary.Kinds[idx].Total++
		if record.Urgent {
			summary.Urgent++
			summary.Kinds[idx].Urgent++
			if summary.OldestUrgent == nil || record.UpdatedAt.Before(summary.OldestUrgent.UpdatedAt.Time) {
				oldest := record
				summary.OldestUrgent = &oldest
			}
		}
		overall.add(record.CurrentStatus, record.Urgent)
		kindStatuses[kind].add(record.CurrentStatus, record.Urgent)
	}

	for i := range summary.Kinds {
		summary.Kinds[i].Statuses = kindStatuses[summary.Kinds[i].Kind].sorted()
	}
	summary.Statuses = overall.sorted()
	return summary
}
