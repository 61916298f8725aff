package monitoring

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/scanner"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// DefaultDebounce coalesces the burst of writes an editor or exporter makes
// when saving one file.
const DefaultDebounce = 250 * time.Millisecond

// FileWatcher watches directory trees and reports changes to record files.
// Events for the same path inside the debounce window are merged into one.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	paths    []string
	debounce time.Duration
	events   chan model.FileEvent

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewFileWatcher(paths []string, debounce time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &FileWatcher{
		watcher:  watcher,
		paths:    paths,
		debounce: debounce,
		events:   make(chan model.FileEvent, 100),
		done:     make(chan struct{}),
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	fw.wg.Add(1)
	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return fw.watcher.Add(filepath.Dir(path))
	}

	// Recursively add directories
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := fw.watcher.Add(p); err != nil {
				util.LogWarn("Failed to watch directory", util.F("path", p), util.F("error", err.Error()))
			}
		}
		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()
	defer close(fw.events)

	pending := make(map[string]fsnotify.Op)
	var order []string
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	flush := func() {
		for _, path := range order {
			select {
			case fw.events <- model.FileEvent{Path: path, Operation: pending[path].String()}:
			default:
				// a reload is already queued; the consumer rescans everything
				util.LogDebug("File event dropped, channel full", util.F("path", path))
			}
		}
		pending = make(map[string]fsnotify.Op)
		order = order[:0]
	}

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fw.addPath(event.Name)
					continue
				}
			}
			if !scanner.IsRecordFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if _, seen := pending[event.Name]; !seen {
				order = append(order, event.Name)
			}
			pending[event.Name] |= event.Op
			timer.Reset(fw.debounce)

		case <-timer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Events delivers debounced record file changes. The channel is closed once
// the watcher stops.
func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
		fw.wg.Wait()
	})
	return err
}
