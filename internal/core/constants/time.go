package constants

import "time"

const (
	// Age is measured in wall-clock milliseconds and converted to fractional days.
	MillisPerDay = int64(24 * time.Hour / time.Millisecond)

	// Default urgency threshold in days
	DefaultUrgentDays = 5

	// Summary views show a bounded prefix of the ordered list
	DefaultSummaryLimit = 10

	// Live dashboard refresh
	DefaultDataRefreshInterval = 30 * time.Second
	DefaultUIRefreshRate       = 1.0

	// Cache fingerprints are skipped for files untouched this long
	FingerprintSkipAge = 48 * time.Hour
)
