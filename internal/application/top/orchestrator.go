package top

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/core/monitoring"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/presentation/display"
	"github.com/penwyp/go-biz-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// Orchestrator coordinates all components for the top command
type Orchestrator struct {
	config *TopConfig

	// Core components
	dataSource   DataSource
	refreshCtrl  *RefreshController
	stateManager *StateManager

	// UI components
	display  DisplayController
	keyboard InputHandler

	// Monitoring
	watcher FileMonitor

	newKeyboard func() (InputHandler, error)
	newWatcher  func(paths []string) (FileMonitor, error)
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(config *TopConfig) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dataLoader, err := loader.New(loader.Config{
		DataDir:     config.DataDir,
		CacheDir:    config.CacheDir,
		Concurrency: config.Concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create data loader: %w", err)
	}

	termDisplay := display.NewTerminalDisplay(&display.DisplayConfig{TimeFormat: config.TimeFormat})

	newKeyboard := func() (InputHandler, error) {
		return interaction.NewKeyboardReader()
	}
	newWatcher := func(paths []string) (FileMonitor, error) {
		return monitoring.NewFileWatcher(paths, monitoring.DefaultDebounce)
	}

	return newOrchestrator(config, dataLoader, termDisplay, newKeyboard, newWatcher), nil
}

func newOrchestrator(config *TopConfig, dataSource DataSource, disp DisplayController,
	newKeyboard func() (InputHandler, error), newWatcher func(paths []string) (FileMonitor, error)) *Orchestrator {
	resolver := timeline.NewResolver(config.UrgentDays)
	return &Orchestrator{
		config:       config,
		dataSource:   dataSource,
		refreshCtrl:  NewRefreshController(dataSource, resolver),
		stateManager: NewStateManager(),
		display:      disp,
		newKeyboard:  newKeyboard,
		newWatcher:   newWatcher,
	}
}

// ResetCache drops cached parse results so the first load reparses every file
func (o *Orchestrator) ResetCache() error {
	return o.dataSource.ResetCache()
}

// Run starts the orchestrator main loop
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting Biz Monitor Top...")

	defer o.Close()

	// Initialize global time provider with configured timezone
	if err := util.InitializeTimeProvider(o.config.Timezone); err != nil {
		return fmt.Errorf("failed to initialize timezone: %w", err)
	}

	// Phase 1: Initialize keyboard
	keyboard, err := o.newKeyboard()
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	o.keyboard = keyboard

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	o.stateManager.SetLoadingState(true, "Loading records...")
	o.updateDisplay()

	// Phase 2: Preload cache and load data
	o.dataSource.Preload()
	if err := o.refreshData(ctx, true); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}

	// Phase 3: Start file monitoring. Polling on the data ticker still picks
	// up changes when the watcher cannot start.
	var fileEvents <-chan model.FileEvent
	if watcher, err := o.newWatcher([]string{o.config.DataDir}); err != nil {
		util.LogWarn(fmt.Sprintf("File watcher unavailable, relying on periodic refresh: %v", err))
	} else {
		o.watcher = watcher
		fileEvents = watcher.Events()
	}

	// Phase 4: Main event loop
	uiTicker := time.NewTicker(o.config.UIInterval())
	defer uiTicker.Stop()

	dataTicker := time.NewTicker(o.config.DataRefreshInterval)
	defer dataTicker.Stop()

	o.updateDisplay()

	keyEvents := o.keyboard.Events()
	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down Biz Monitor Top...")
			return nil

		case <-uiTicker.C:
			o.updateDisplay()

		case <-dataTicker.C:
			// urgency depends on the clock, so resolve again even without changes
			if err := o.refreshData(ctx, false); err != nil {
				util.LogError(fmt.Sprintf("Failed to refresh data: %v", err))
			}

		case event, ok := <-fileEvents:
			if !ok {
				fileEvents = nil
				continue
			}
			o.handleFileChange(ctx, event)

		case keyEvent, ok := <-keyEvents:
			if !ok {
				return nil
			}
			if o.handleKeyboard(ctx, keyEvent) {
				return nil
			}
			o.updateDisplay()
		}
	}
}

// updateDisplay updates the terminal display
func (o *Orchestrator) updateDisplay() {
	o.display.RenderWithState(o.stateManager.DashboardData(), o.stateManager.GetDisplayState())
}

// refreshData rebuilds the view and publishes it
func (o *Orchestrator) refreshData(ctx context.Context, force bool) error {
	if force {
		o.stateManager.SetLoadingState(true, "Reloading records...")
		defer o.stateManager.SetLoadingState(false, "")
	}

	view, err := o.refreshCtrl.RefreshData(ctx, force)
	if err != nil {
		return err
	}
	o.stateManager.SetView(view)
	return nil
}

// handleFileChange reloads after the watcher reports a record file change
func (o *Orchestrator) handleFileChange(ctx context.Context, event model.FileEvent) {
	util.LogDebug(fmt.Sprintf("File changed: %s (%s)", event.Path, event.Operation))

	if err := o.refreshData(ctx, false); err != nil {
		util.LogError(fmt.Sprintf("Failed to handle file change: %v", err))
		return
	}
	o.updateDisplay()
}

// handleKeyboard handles keyboard events and reports whether to exit
func (o *Orchestrator) handleKeyboard(ctx context.Context, event interaction.KeyEvent) bool {
	switch interaction.ActionFor(event) {
	case interaction.ActionQuit:
		return true

	case interaction.ActionBack:
		// ESC closes help; otherwise it quits
		if !o.stateManager.GetDisplayState().ShowHelp {
			return true
		}
		o.stateManager.UpdateDisplayState(func(s *display.DisplayState) {
			s.ShowHelp = false
		})

	case interaction.ActionCycleSort:
		mode := o.stateManager.CycleSort()
		o.stateManager.SetStatusMessage("Sort: " + mode.String())

	case interaction.ActionToggleUrgent:
		if o.stateManager.ToggleUrgentOnly() {
			o.stateManager.SetStatusMessage("Showing urgent records only")
		} else {
			o.stateManager.SetStatusMessage("Showing all records")
		}

	case interaction.ActionCycleKind:
		o.stateManager.SetStatusMessage("Kind: " + o.stateManager.CycleKind())

	case interaction.ActionReload:
		if err := o.refreshData(ctx, true); err != nil {
			util.LogError(fmt.Sprintf("Failed to reload: %v", err))
			o.stateManager.SetStatusMessage("Reload failed: " + err.Error())
		} else {
			o.stateManager.SetStatusMessage("Reloaded")
		}

	case interaction.ActionToggleHelp:
		o.stateManager.UpdateDisplayState(func(s *display.DisplayState) {
			s.ShowHelp = !s.ShowHelp
		})

	case interaction.ActionToggleLayout:
		o.stateManager.UpdateDisplayState(func(s *display.DisplayState) {
			s.LayoutStyle = (s.LayoutStyle + 1) % 2
		})
	}

	return false
}

// Close cleans up all resources
func (o *Orchestrator) Close() error {
	if o.keyboard != nil {
		if err := o.keyboard.Close(); err != nil {
			util.LogError(fmt.Sprintf("Failed to restore terminal: %v", err))
		}
	}

	if o.watcher != nil {
		if err := o.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
	}

	return nil
}
