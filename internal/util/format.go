package util

import (
	"fmt"
	"math"
	"time"
)

// FormatNumber renders counts with thousands separators.
func FormatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var result []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, digit)
	}
	if neg {
		return "-" + string(result)
	}
	return string(result)
}

// FormatAgeDays renders a fractional day count the way list views show it:
// "today" under one day, "1 day", "12 days".
func FormatAgeDays(days float64) string {
	if days < 1 {
		return "today"
	}
	whole := int(math.Floor(days))
	if whole == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", whole)
}

// FormatDate renders t in the configured timezone, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return GetTimeProvider().Format(t, "2006-01-02")
}

// FormatDateTime renders t with minutes, or "-" for the zero time.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return GetTimeProvider().Format(t, "2006-01-02 15:04")
}

// FormatDuration renders d as "1h 5m" or "5m".
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatPercent renders part/total as a percentage with one decimal.
func FormatPercent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
