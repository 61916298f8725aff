package layout

import (
	"os"

	"golang.org/x/term"

	"github.com/penwyp/go-biz-monitor/internal/util"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	minWidth      = 60
	maxWidth      = 160
)

// Sizer holds the terminal dimensions a frame is rendered for
type Sizer struct {
	Width  int
	Height int
}

func NewSizer(width, height int) *Sizer {
	return &Sizer{Width: width, Height: height}
}

// DetectSizer reads the size of stdout, falling back to 100x30 when stdout
// is not a terminal.
func DetectSizer() *Sizer {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return NewSizer(defaultWidth, defaultHeight)
	}
	return NewSizer(width, height)
}

// PadString pads a string to a specific display width, handling wide runes
func (s Sizer) PadString(text string, width int, leftAlign bool) string {
	return util.PadToWidth(text, width, leftAlign)
}

// GetMaxWidth returns the frame width: the terminal width minus a margin,
// clamped to a readable range.
func (s Sizer) GetMaxWidth() int {
	width := s.Width - 2
	if width < minWidth {
		width = minWidth
	}
	if s.Width > 0 && s.Width < minWidth {
		width = s.Width
	}
	if width > maxWidth {
		width = maxWidth
	}
	return width
}

// RowBudget returns how many list rows fit once reserved lines are drawn
func (s Sizer) RowBudget(reserved int) int {
	rows := s.Height - reserved
	if rows < 1 {
		return 1
	}
	return rows
}
