package util

import (
	"fmt"
	"sync"
	"time"
)

// TimeProvider is a global time utility that handles timezone-aware time operations
type TimeProvider struct {
	location *time.Location
	clock    func() time.Time
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	mu                 sync.Mutex
)

// NewTimeProvider creates a provider for the given timezone ("" or "Local"
// means the system zone).
func NewTimeProvider(timezone string) (*TimeProvider, error) {
	provider := &TimeProvider{clock: time.Now}
	if err := provider.SetTimezone(timezone); err != nil {
		return nil, err
	}
	return provider, nil
}

// InitializeTimeProvider initializes the global time provider with the specified timezone
func InitializeTimeProvider(timezone string) error {
	provider, err := NewTimeProvider(timezone)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	globalTimeProvider = provider
	return nil
}

// GetTimeProvider returns the global time provider instance
// If not initialized, it defaults to Local timezone
func GetTimeProvider() *TimeProvider {
	mu.Lock()
	defer mu.Unlock()
	if globalTimeProvider == nil {
		globalTimeProvider = &TimeProvider{location: time.Local, clock: time.Now}
	}
	return globalTimeProvider
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Europe/London, Australia/Sydney", timezone, err)
		}
		loc = l
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.location = loc
	return nil
}

// SetClock replaces the wall clock, used by tests to freeze time.
func (tp *TimeProvider) SetClock(clock func() time.Time) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.clock = clock
}

// Location returns the configured timezone
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// Now returns the current time in the configured timezone
func (tp *TimeProvider) Now() time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.clock().In(tp.location)
}

// In converts a time to the configured timezone
func (tp *TimeProvider) In(t time.Time) time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return t.In(tp.location)
}

// Format formats a time according to the layout in the configured timezone
func (tp *TimeProvider) Format(t time.Time, layout string) string {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return t.In(tp.location).Format(layout)
}

// FormatNow formats the current time according to the layout
func (tp *TimeProvider) FormatNow(layout string) string {
	return tp.Format(tp.Now(), layout)
}
