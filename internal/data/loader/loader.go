package loader

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/cache"
	"github.com/penwyp/go-biz-monitor/internal/data/parser"
	"github.com/penwyp/go-biz-monitor/internal/data/scanner"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// ErrNoRecordFiles is returned when the data directory holds no record files.
var ErrNoRecordFiles = errors.New("no record files found")

type Config struct {
	DataDir     string
	CacheDir    string
	Concurrency int
}

// Snapshot is the merged, read-only result of one load. Records keep the
// order of their files (sorted by path) and their position within each file.
type Snapshot struct {
	Records  []model.TrackedRecord
	Files    []string
	LoadedAt time.Time
	Stats    StatsSummary
}

// Find returns the first record with the given id.
func (s *Snapshot) Find(id string) (model.TrackedRecord, bool) {
	if s == nil {
		return model.TrackedRecord{}, false
	}
	for _, record := range s.Records {
		if record.ID == id {
			return record, true
		}
	}
	return model.TrackedRecord{}, false
}

type Loader struct {
	config  Config
	cache   cache.Cache
	scanner *scanner.FileScanner
	parser  *parser.Parser

	mu        sync.Mutex
	fileState map[string]util.FileInfo
}

func New(config Config) (*Loader, error) {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}

	fileCache, err := cache.NewFileCache(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return NewWithCache(config, fileCache), nil
}

// NewWithCache builds a loader around an existing cache implementation.
func NewWithCache(config Config, c cache.Cache) *Loader {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}
	return &Loader{
		config:    config,
		cache:     c,
		scanner:   scanner.NewFileScanner(config.DataDir),
		parser:    parser.NewParser(config.Concurrency),
		fileState: make(map[string]util.FileInfo),
	}
}

func (l *Loader) Preload() {
	preloadStart := time.Now()
	if err := l.cache.Preload(); err != nil {
		util.LogWarn(fmt.Sprintf("Cache preload failed: %v", err))
	}
	memoryCount, fileCount := l.cache.GetCacheStats()
	util.LogDebug(fmt.Sprintf("Cache preload duration: %v, %d entries loaded from %d cache files",
		time.Since(preloadStart), memoryCount, fileCount))
}

func (l *Loader) ResetCache() error {
	return l.cache.Clear()
}

// Load scans the data directory and merges cached and freshly parsed records.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	startTime := time.Now()

	scanStart := time.Now()
	files, err := l.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan files: %w", err)
	}
	util.LogDebug(fmt.Sprintf("File scan duration: %v, found %d files", time.Since(scanStart), len(files)))

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRecordFiles, l.config.DataDir)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := NewLoadStats()
	perFile := make(map[string][]model.TrackedRecord, len(files))

	batchStart := time.Now()
	validCache := l.cache.BatchValidate(files)
	util.LogDebug(fmt.Sprintf("Batch cache validation duration: %v", time.Since(batchStart)))

	var filesToParse []string
	missReasons := make(map[string]cache.CacheMissReason)
	for _, file := range files {
		result := validCache[file]
		if !result.Valid {
			filesToParse = append(filesToParse, file)
			missReasons[file] = result.MissReason
			continue
		}

		cached := l.cache.Get(file)
		if cached.Found && cached.Data != nil {
			stats.IncrementTotal()
			stats.IncrementHit()
			perFile[file] = cached.Data.Records
		} else {
			filesToParse = append(filesToParse, file)
			missReasons[file] = cached.MissReason
		}
	}

	util.LogDebug(fmt.Sprintf("Cache hit for %d files, need to parse %d files",
		len(files)-len(filesToParse), len(filesToParse)))

	if len(filesToParse) > 0 {
		parseStart := time.Now()
		for result := range l.parser.ParseFiles(filesToParse) {
			stats.IncrementTotal()
			if result.Error != nil {
				stats.IncrementFailure()
				util.LogWarn(fmt.Sprintf("Failed to parse file %s: %v", result.File, result.Error))
				continue
			}

			stats.IncrementMiss(result.File, missReasons[result.File])
			perFile[result.File] = result.Records

			if err := l.cache.Set(result.File, result.Records); err != nil {
				util.LogWarn(fmt.Sprintf("Failed to save cache for %s: %v", result.File, err))
			}
		}
		util.LogDebug(fmt.Sprintf("File parsing duration: %v", time.Since(parseStart)))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []model.TrackedRecord
	for _, file := range files {
		records = append(records, perFile[file]...)
	}

	l.rememberFiles(files)

	stats.LogFinal()
	util.LogDebug(fmt.Sprintf("Load complete: %d files, %d records in %v", len(files), len(records), time.Since(startTime)))

	return &Snapshot{
		Records:  records,
		Files:    files,
		LoadedAt: util.GetTimeProvider().Now(),
		Stats:    stats.Summary(),
	}, nil
}

func (l *Loader) rememberFiles(files []string) {
	state := make(map[string]util.FileInfo, len(files))
	for _, file := range files {
		if info, err := util.GetFileInfo(file); err == nil {
			state[file] = *info
		}
	}

	l.mu.Lock()
	l.fileState = state
	l.mu.Unlock()
}

// ChangedFiles reports files that were added, removed or modified since the
// last Load.
func (l *Loader) ChangedFiles() ([]string, error) {
	files, err := l.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan files: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]struct{}, len(files))
	var changed []string
	for _, file := range files {
		seen[file] = struct{}{}
		previous, known := l.fileState[file]
		if !known {
			changed = append(changed, file)
			continue
		}
		current, err := util.GetFileInfo(file)
		if err != nil {
			changed = append(changed, file)
			continue
		}
		if what := current.Diff(previous); what != "" {
			util.LogDebug(fmt.Sprintf("Record file changed: %s (%s)", file, what))
			changed = append(changed, file)
		}
	}
	for file := range l.fileState {
		if _, ok := seen[file]; !ok {
			changed = append(changed, file)
		}
	}
	return changed, nil
}
