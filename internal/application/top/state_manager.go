package top

import (
	"sync"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/presentation/display"
	"github.com/penwyp/go-biz-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-biz-monitor/internal/presentation/layout"
)

// statusMessageTTL is how long a key acknowledgement stays on screen
const statusMessageTTL = 3 * time.Second

// StateManager manages application state in a thread-safe manner
type StateManager struct {
	mu sync.RWMutex

	view *View

	// Loading state
	isLoading      bool
	loadingMessage string

	// Interaction state
	displayState  display.DisplayState
	statusExpires time.Time
	sorter        *interaction.RecordSorter
	filter        interaction.ViewFilter
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{
		sorter:       interaction.NewRecordSorter(),
		displayState: display.DisplayState{LayoutStyle: layout.LayoutFull},
	}
}

// SetView swaps in a freshly built view
func (sm *StateManager) SetView(view *View) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.view = view
}

// SetLoadingState updates loading state and message
func (sm *StateManager) SetLoadingState(isLoading bool, message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.isLoading = isLoading
	sm.loadingMessage = message
}

// SetStatusMessage shows a short-lived message under the dashboard
func (sm *StateManager) SetStatusMessage(message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.displayState.StatusMessage = message
	sm.statusExpires = time.Now().Add(statusMessageTTL)
}

// UpdateDisplayState updates specific fields of the display state
func (sm *StateManager) UpdateDisplayState(updateFunc func(*display.DisplayState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	updateFunc(&sm.displayState)
}

// GetDisplayState returns the display state for the next frame. Loading only
// shows the loading screen while there is no data yet; later reloads keep
// the previous view on screen.
func (sm *StateManager) GetDisplayState() display.DisplayState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.displayState.StatusMessage != "" && time.Now().After(sm.statusExpires) {
		sm.displayState.StatusMessage = ""
	}

	state := sm.displayState
	state.IsLoading = sm.isLoading && sm.view == nil
	state.LoadingMessage = sm.loadingMessage
	return state
}

func (sm *StateManager) CycleSort() interaction.SortMode {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sorter.Cycle()
}

func (sm *StateManager) ToggleUrgentOnly() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.filter.ToggleUrgent()
}

// CycleKind steps the kind filter and returns its label
func (sm *StateManager) CycleKind() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.filter.CycleKind()
	return sm.filter.KindLabel()
}

// DashboardData applies the interactive filter and sort to the current view.
// The summary always covers the whole view so header totals stay stable while
// the list is narrowed.
func (sm *StateManager) DashboardData() *layout.DashboardData {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	data := &layout.DashboardData{
		SortLabel:  sm.sorter.Mode().String(),
		KindLabel:  sm.filter.KindLabel(),
		UrgentOnly: sm.filter.UrgentOnly,
	}
	if sm.view == nil {
		return data
	}

	data.Summary = sm.view.Summary
	data.Records = sm.sorter.Sort(sm.filter.Apply(sm.view.Records))
	data.LastReload = sm.view.LoadedAt
	data.FileCount = sm.view.FileCount
	return data
}
