package top

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// View is one consistent picture of the data: records resolved against a
// single instant and the summary computed from them.
type View struct {
	Records    []model.ResolvedRecord
	Summary    *aggregator.Summary
	FileCount  int
	LoadedAt   time.Time
	ResolvedAt time.Time
}

// RefreshController reloads record files and rebuilds the view. A new view is
// built completely before it is handed out, so readers never observe a
// partial refresh.
type RefreshController struct {
	dataSource DataSource
	aggregator *aggregator.Aggregator

	mu           sync.RWMutex
	snapshot     *loader.Snapshot
	refreshMutex sync.Mutex // Prevent concurrent refreshes
}

// NewRefreshController creates a new RefreshController instance
func NewRefreshController(dataSource DataSource, resolver *timeline.Resolver) *RefreshController {
	return &RefreshController{
		dataSource: dataSource,
		aggregator: aggregator.NewAggregator(resolver),
	}
}

// RefreshData rebuilds the view. Files are reloaded when forced, on the first
// call, or when any record file changed; otherwise the current snapshot is
// resolved again, since urgency moves with the clock. On failure the previous
// view stays in place.
func (rc *RefreshController) RefreshData(ctx context.Context, force bool) (*View, error) {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()

	rc.mu.RLock()
	snapshot := rc.snapshot
	rc.mu.RUnlock()

	reload := force || snapshot == nil
	if !reload {
		changed, err := rc.dataSource.ChangedFiles()
		if err != nil {
			return nil, fmt.Errorf("failed to check for changes: %w", err)
		}
		if len(changed) > 0 {
			util.LogInfo(fmt.Sprintf("Detected %d changed files, reloading", len(changed)))
			reload = true
		}
	}

	if reload {
		loaded, err := rc.dataSource.Load(ctx)
		switch {
		case errors.Is(err, loader.ErrNoRecordFiles):
			util.LogWarn(err.Error())
			loaded = &loader.Snapshot{LoadedAt: util.GetTimeProvider().Now()}
		case err != nil:
			return nil, fmt.Errorf("failed to load records: %w", err)
		}
		snapshot = loaded
	}

	view := rc.buildView(snapshot)

	rc.mu.Lock()
	rc.snapshot = snapshot
	rc.mu.Unlock()

	return view, nil
}

func (rc *RefreshController) buildView(snapshot *loader.Snapshot) *View {
	resolved, summary := rc.aggregator.Aggregate(snapshot.Records)

	util.LogDebug(fmt.Sprintf("Resolved %d records, %d urgent", summary.Total, summary.Urgent))

	return &View{
		Records:    resolved,
		Summary:    summary,
		FileCount:  len(snapshot.Files),
		LoadedAt:   snapshot.LoadedAt,
		ResolvedAt: summary.GeneratedAt,
	}
}
