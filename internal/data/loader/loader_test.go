package loader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/cache"
	"github.com/penwyp/go-biz-monitor/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) (*Loader, *fixtures.TestDataGenerator) {
	t.Helper()
	dataDir := t.TempDir()
	gen := fixtures.NewTestDataGenerator(dataDir, time.Now())
	l, err := New(Config{DataDir: dataDir, CacheDir: filepath.Join(t.TempDir(), "cache"), Concurrency: 2})
	require.NoError(t, err)
	return l, gen
}

func recordIDs(records []model.TrackedRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestLoadEmptyDirectory(t *testing.T) {
	l, _ := newTestLoader(t)

	snapshot, err := l.Load(context.Background())

	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, ErrNoRecordFiles)
}

func TestLoadExampleSet(t *testing.T) {
	l, gen := newTestLoader(t)
	require.NoError(t, gen.GenerateExampleSet())

	snapshot, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, snapshot.Files, 3)
	// files sorted by path: clients.json, invoices.jsonl, proposals/proposals.json
	assert.Equal(t, []string{"A", "B", "C", "INV-1", "INV-2", "P-1"}, recordIDs(snapshot.Records))
	assert.Equal(t, int64(3), snapshot.Stats.TotalFiles)
	assert.Equal(t, int64(0), snapshot.Stats.CacheHits)

	kinds := map[string]model.RecordKind{}
	for _, r := range snapshot.Records {
		kinds[r.ID] = r.Kind
	}
	assert.Equal(t, model.KindClient, kinds["A"])
	assert.Equal(t, model.KindInvoice, kinds["INV-1"])
	assert.Equal(t, model.KindProposal, kinds["P-1"])
}

func TestLoadUsesCacheOnSecondRun(t *testing.T) {
	l, gen := newTestLoader(t)
	require.NoError(t, gen.GenerateExampleSet())

	_, err := l.Load(context.Background())
	require.NoError(t, err)
	snapshot, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), snapshot.Stats.CacheHits)
	assert.Equal(t, float64(100), snapshot.Stats.HitRate)
	assert.Len(t, snapshot.Records, 6)
}

func TestLoadReparsesChangedFile(t *testing.T) {
	l, gen := newTestLoader(t)
	require.NoError(t, gen.GenerateExampleSet())
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, gen.WriteJSON("clients.json", []fixtures.RecordEntry{
		gen.Record("D", "Delta", time.Hour, "sent"),
	}))
	snapshot, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), snapshot.Stats.CacheHits)
	assert.Equal(t, []string{"D", "INV-1", "INV-2", "P-1"}, recordIDs(snapshot.Records))
}

func TestLoadSkipsBrokenFile(t *testing.T) {
	l, gen := newTestLoader(t)
	require.NoError(t, gen.GenerateExampleSet())
	require.NoError(t, gen.WriteRaw("broken.json", "this is not json"))

	snapshot, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.Stats.Failures)
	assert.Len(t, snapshot.Records, 6)
}

func TestLoadCancelledContext(t *testing.T) {
	l, gen := newTestLoader(t)
	require.NoError(t, gen.GenerateExampleSet())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotFind(t *testing.T) {
	l, gen := newTestLoader(t)
	require.NoError(t, gen.GenerateExampleSet())
	snapshot, err := l.Load(context.Background())
	require.NoError(t, err)

	record, ok := snapshot.Find("C")
	assert.True(t, ok)
	assert.Equal(t, "Gamma Inc", record.Name)

	_, ok = snapshot.Find("missing")
	assert.False(t, ok)

	var nilSnapshot *Snapshot
	_, ok = nilSnapshot.Find("C")
	assert.False(t, ok)
}

func TestChangedFiles(t *testing.T) {
	l, gen := newTestLoader(t)
	require.NoError(t, gen.GenerateExampleSet())

	changed, err := l.ChangedFiles()
	require.NoError(t, err)
	assert.Len(t, changed, 3, "nothing loaded yet so every file is new")

	_, err = l.Load(context.Background())
	require.NoError(t, err)
	changed, err = l.ChangedFiles()
	require.NoError(t, err)
	assert.Empty(t, changed)

	require.NoError(t, gen.WriteJSONL("invoices.jsonl", []fixtures.RecordEntry{gen.Record("INV-9", "", time.Hour, "sent")}))
	require.NoError(t, os.Remove(gen.Path("clients.json")))
	require.NoError(t, gen.WriteJSON("extra-clients.json", []fixtures.RecordEntry{}))

	changed, err = l.ChangedFiles()
	require.NoError(t, err)
	sort.Strings(changed)
	assert.Equal(t, []string{
		gen.Path("clients.json"),
		gen.Path("extra-clients.json"),
		gen.Path("invoices.jsonl"),
	}, changed)
}

func TestResetCache(t *testing.T) {
	l, gen := newTestLoader(t)
	require.NoError(t, gen.GenerateExampleSet())
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, l.ResetCache())
	snapshot, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(0), snapshot.Stats.CacheHits)
}

type stubCache struct {
	cache.Cache
	preloadErr error
	preloaded  bool
	statsRead  bool
}

func (s *stubCache) Preload() error {
	s.preloaded = true
	return s.preloadErr
}

func (s *stubCache) GetCacheStats() (int, int) {
	s.statsRead = true
	return 0, 0
}

func TestPreloadToleratesErrors(t *testing.T) {
	stub := &stubCache{preloadErr: os.ErrPermission}
	l := NewWithCache(Config{DataDir: t.TempDir()}, stub)

	l.Preload()

	assert.True(t, stub.preloaded)
	assert.True(t, stub.statsRead, "preload reports what the cache holds")
	assert.Greater(t, l.config.Concurrency, 0)
}
