package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// Source loads a fresh snapshot of the record files
type Source interface {
	Load(ctx context.Context) (*loader.Snapshot, error)
}

// Store holds the snapshot served by the API. Reloads build a complete new
// snapshot before swapping it in; a failed reload keeps the previous one.
type Store struct {
	source Source

	mu       sync.RWMutex
	snapshot *loader.Snapshot
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Reload loads the record files again. An empty data directory yields an
// empty snapshot rather than an error.
func (s *Store) Reload(ctx context.Context) error {
	snapshot, err := s.source.Load(ctx)
	switch {
	case errors.Is(err, loader.ErrNoRecordFiles):
		util.LogWarn(err.Error())
		snapshot = &loader.Snapshot{LoadedAt: util.GetTimeProvider().Now()}
	case err != nil:
		return fmt.Errorf("failed to reload records: %w", err)
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	util.LogInfo("Records reloaded", util.F("records", len(snapshot.Records)), util.F("files", len(snapshot.Files)))
	return nil
}

// Snapshot returns the current snapshot, or nil before the first reload
func (s *Store) Snapshot() *loader.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Watch reloads on every file event until ctx is done or events closes
func (s *Store) Watch(ctx context.Context, events <-chan model.FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			util.LogDebug("File changed", util.F("path", event.Path), util.F("op", event.Operation))
			if err := s.Reload(ctx); err != nil {
				util.LogError(err.Error())
			}
		}
	}
}
