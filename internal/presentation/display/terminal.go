package display

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/presentation/layout"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// DisplayConfig holds settings that stay fixed for a dashboard session
type DisplayConfig struct {
	TimeFormat string
}

// DisplayState is the interaction state a frame is drawn for
type DisplayState struct {
	LayoutStyle    int
	ShowHelp       bool
	IsLoading      bool
	LoadingMessage string
	StatusMessage  string
}

type displayMode int

const (
	modeNormal displayMode = iota
	modeHelp
	modeLoading
)

type TerminalDisplay struct {
	out               io.Writer
	config            *DisplayConfig
	sizer             func() *layout.Sizer
	inAlternateScreen bool
	isFirstRender     bool
	lastLayoutStyle   int
	currentMode       displayMode
	lastDraw          time.Time
}

func NewTerminalDisplay(config *DisplayConfig) *TerminalDisplay {
	return NewTerminalDisplayTo(os.Stdout, config, layout.DetectSizer)
}

// NewTerminalDisplayTo renders into out, measuring the screen with sizer
func NewTerminalDisplayTo(out io.Writer, config *DisplayConfig, sizer func() *layout.Sizer) *TerminalDisplay {
	if config == nil {
		config = &DisplayConfig{}
	}
	if sizer == nil {
		sizer = layout.DetectSizer
	}
	return &TerminalDisplay{
		out:           out,
		config:        config,
		sizer:         sizer,
		isFirstRender: true,
		currentMode:   modeNormal,
	}
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	if td.inAlternateScreen {
		return
	}
	td.write(util.EnterAltScreen + util.ClearScreen + util.ClearScrollback +
		util.ResetScrollRegion + util.HideCursor + util.MoveCursorHome)
	td.inAlternateScreen = true
	td.isFirstRender = true
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	if !td.inAlternateScreen {
		return
	}
	td.write(util.ClearScreen + util.MoveCursorHome + util.ShowCursor + util.ExitAltScreen)
	td.inAlternateScreen = false
}

// ClearScreen clears the alternate screen buffer
func (td *TerminalDisplay) ClearScreen() {
	if td.inAlternateScreen {
		td.write(util.ClearScreen + util.MoveCursorHome)
	}
}

// LastDraw reports when the last frame was written
func (td *TerminalDisplay) LastDraw() time.Time {
	return td.lastDraw
}

func (td *TerminalDisplay) determineDisplayMode(state DisplayState) displayMode {
	// Help > Loading > Normal
	if state.ShowHelp {
		return modeHelp
	}
	if state.IsLoading {
		return modeLoading
	}
	return modeNormal
}

// RenderWithState draws one frame. The frame is assembled in memory and
// written with a single call so the terminal never shows a half-drawn view.
func (td *TerminalDisplay) RenderWithState(data *layout.DashboardData, state DisplayState) {
	var frame bytes.Buffer

	mode := td.determineDisplayMode(state)
	if td.isFirstRender || mode != td.currentMode || state.LayoutStyle != td.lastLayoutStyle {
		frame.WriteString(util.ClearScreen)
		td.isFirstRender = false
		td.currentMode = mode
		td.lastLayoutStyle = state.LayoutStyle
	}
	frame.WriteString(util.MoveCursorHome)

	var body bytes.Buffer
	sizer := td.sizer()
	switch mode {
	case modeHelp:
		td.renderHelp(&body)
	case modeLoading:
		td.renderLoadingScreen(&body, sizer, state.LoadingMessage)
	default:
		param := layout.LayoutParam{
			Sizer:      sizer,
			TimeFormat: td.config.TimeFormat,
			Now:        util.GetTimeProvider().Now(),
		}
		layout.GetLayoutStrategy(state.LayoutStyle).Render(&body, data, param)
		if state.StatusMessage != "" {
			fmt.Fprintf(&body, "  Status: %s\n", state.StatusMessage)
		}
	}

	// Clear the tail of every line so shorter frames leave nothing behind
	for _, line := range strings.SplitAfter(body.String(), "\n") {
		if line == "" {
			continue
		}
		frame.WriteString(strings.TrimSuffix(line, "\n"))
		frame.WriteString(util.ClearLineFromCursor)
		if strings.HasSuffix(line, "\n") {
			frame.WriteString("\r\n")
		}
	}
	frame.WriteString(util.ClearToEndOfScreen)

	td.write(frame.String())
	td.lastDraw = time.Now()
}

func (td *TerminalDisplay) renderHelp(w io.Writer) {
	lines := []string{
		"Biz Monitor Top - Help",
		strings.Repeat("═", 60),
		"",
		"Keyboard Shortcuts:",
		"",
		"  q/Ctrl+C  - Quit the program",
		"  s         - Cycle sort (urgency → name → updated → status)",
		"  u         - Show only urgent records",
		"  k         - Cycle kind filter (all → clients → invoices → proposals)",
		"  r         - Reload data now",
		"  t         - Change layout style (Full → Minimal)",
		"  h/?       - Show this help",
		"  ESC       - Close help (or quit if nothing is open)",
		"",
		"Colors:",
		"  Red  - Urgent: open longer than the urgency threshold",
		"  Gray - No status recorded",
		"",
		strings.Repeat("═", 60),
		"Press 'h' to return...",
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (td *TerminalDisplay) renderLoadingScreen(w io.Writer, sizer *layout.Sizer, message string) {
	if message == "" {
		message = "Loading data..."
	}

	boxWidth := 50
	padding := (sizer.Width - boxWidth) / 2
	if padding < 0 {
		padding = 0
	}
	indent := strings.Repeat(" ", padding)
	inner := boxWidth - 2

	for i := 0; i < sizer.Height/2-5; i++ {
		fmt.Fprintln(w)
	}

	spinner := spinnerFrames[int(time.Now().Unix())%len(spinnerFrames)]
	center := func(text string) string {
		return "║" + util.PadToWidth(centerText(text, inner), inner, true) + "║"
	}

	fmt.Fprintf(w, "%s╔%s╗\n", indent, strings.Repeat("═", inner))
	fmt.Fprintf(w, "%s%s\n", indent, center("Biz Monitor"))
	fmt.Fprintf(w, "%s╠%s╣\n", indent, strings.Repeat("═", inner))
	fmt.Fprintf(w, "%s║%s║\n", indent, strings.Repeat(" ", inner))
	fmt.Fprintf(w, "%s%s\n", indent, center(spinner+" "+message))
	fmt.Fprintf(w, "%s║%s║\n", indent, strings.Repeat(" ", inner))
	fmt.Fprintf(w, "%s%s\n", indent, center("Press 'q' to quit"))
	fmt.Fprintf(w, "%s╚%s╝\n", indent, strings.Repeat("═", inner))
}

func centerText(text string, width int) string {
	text = util.TruncateToWidth(text, width)
	pad := (width - util.GetDisplayWidth(text)) / 2
	return strings.Repeat(" ", pad) + text
}

func (td *TerminalDisplay) write(s string) {
	_, _ = io.WriteString(td.out, s)
}
