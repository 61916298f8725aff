package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	ColorReset   = "\033[0m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"

	// Terminal control sequences
	ClearScreen         = "\033[2J"     // Clear entire screen
	ClearLine           = "\033[2K"     // Clear entire line
	ClearLineFromCursor = "\033[0K"     // Clear from cursor to end of line
	ClearToEndOfScreen  = "\033[J"      // Clear from cursor to end of screen
	ClearScrollback     = "\033[3J"     // Clear scrollback buffer
	ResetScrollRegion   = "\033[r"      // Reset scroll region
	MoveCursorHome      = "\033[H"      // Move cursor to home position
	HideCursor          = "\033[?25l"   // Hide cursor
	ShowCursor          = "\033[?25h"   // Show cursor
	EnterAltScreen      = "\033[?1049h" // Switch to alternate screen buffer
	ExitAltScreen       = "\033[?1049l" // Return to normal screen buffer
)

// GetDisplayWidth calculates the actual display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// TruncateToWidth shortens text to width display cells, marking the cut with "…".
func TruncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

// PadToWidth pads text with spaces to width display cells.
func PadToWidth(text string, width int, leftAlign bool) string {
	actual := runewidth.StringWidth(text)
	if actual >= width {
		return text
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return text + padding
	}
	return padding + text
}

// Colorize wraps text in a color sequence.
func Colorize(text, color string) string {
	return color + text + ColorReset
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorMagenta, title, ColorReset)
}

// FormatDataTitle formats data section titles (Green + Bold)
func FormatDataTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorGreen, title, ColorReset)
}

// FormatSectionSeparator creates a visual separator line of the given width
func FormatSectionSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return fmt.Sprintf("%s%s%s", ColorCyan, strings.Repeat("─", width), ColorReset)
}

// MoveCursor returns ANSI sequence to move cursor to specific position
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\033[%d;%dH", row, col)
}
