package top

import (
	"context"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/presentation/display"
	"github.com/penwyp/go-biz-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-biz-monitor/internal/presentation/layout"
)

// DataSource manages data loading and caching
type DataSource interface {
	// Preload warms the cache from disk
	Preload()
	// Load scans and parses record files into a snapshot
	Load(ctx context.Context) (*loader.Snapshot, error)
	// ChangedFiles returns files that changed since the last load
	ChangedFiles() ([]string, error)
	// ResetCache drops every cached file
	ResetCache() error
}

// DisplayController handles terminal display operations
type DisplayController interface {
	// EnterAlternateScreen switches to alternate terminal screen
	EnterAlternateScreen()
	// ExitAlternateScreen returns to normal terminal screen
	ExitAlternateScreen()
	// ClearScreen clears the terminal screen
	ClearScreen()
	// RenderWithState renders one dashboard frame
	RenderWithState(data *layout.DashboardData, state display.DisplayState)
}

// InputHandler processes keyboard and other input events
type InputHandler interface {
	// Events returns a channel of keyboard events
	Events() <-chan interaction.KeyEvent
	// Close cleans up input handler resources
	Close() error
}

// FileMonitor watches for file changes
type FileMonitor interface {
	// Events returns a channel of file change events
	Events() <-chan model.FileEvent
	// Close stops monitoring and cleans up resources
	Close() error
}
