// Package vterm is a small VT100 screen model for asserting on what a
// redrawing terminal view actually leaves visible.
package vterm

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Screen applies written bytes to a fixed-size cell grid. It understands
// cursor positioning and the erase sequences; colors and private modes
// (cursor visibility, alternate screen) are accepted and ignored.
type Screen struct {
	rows, cols int
	cells      [][]rune
	x, y       int
	pending    []byte
}

// New creates a blank screen
func New(rows, cols int) *Screen {
	s := &Screen{rows: rows, cols: cols, cells: make([][]rune, rows)}
	for i := range s.cells {
		s.cells[i] = blankRow(cols)
	}
	return s
}

func blankRow(cols int) []rune {
	row := make([]rune, cols)
	for i := range row {
		row[i] = ' '
	}
	return row
}

// Write implements io.Writer. Escape sequences split across writes are
// completed on the next call.
func (s *Screen) Write(p []byte) (int, error) {
	buf := append(s.pending, p...)
	s.pending = nil

	for i := 0; i < len(buf); {
		switch c := buf[i]; {
		case c == 0x1b:
			n, ok := s.escape(buf[i:])
			if !ok {
				s.pending = append([]byte(nil), buf[i:]...)
				return len(p), nil
			}
			i += n
		case c == '\r':
			s.x = 0
			i++
		case c == '\n':
			s.lineFeed()
			i++
		case c == '\b':
			if s.x > 0 {
				s.x--
			}
			i++
		default:
			r, size := utf8.DecodeRune(buf[i:])
			if r == utf8.RuneError && !utf8.FullRune(buf[i:]) {
				s.pending = append([]byte(nil), buf[i:]...)
				return len(p), nil
			}
			s.put(r)
			i += size
		}
	}
	return len(p), nil
}

// escape handles one CSI sequence at the start of b and reports how many
// bytes it used. ok is false when the sequence is incomplete.
func (s *Screen) escape(b []byte) (n int, ok bool) {
	if len(b) < 2 {
		return 0, false
	}
	if b[1] != '[' {
		return 2, true
	}

	private := false
	var params []int
	current, seen := 0, false
	for i := 2; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '?' && i == 2:
			private = true
		case c >= '0' && c <= '9':
			current = current*10 + int(c-'0')
			seen = true
		case c == ';':
			params = append(params, current)
			current, seen = 0, false
		case c >= 0x40 && c <= 0x7e:
			if seen || len(params) > 0 {
				params = append(params, current)
			}
			if !private {
				s.command(c, params)
			}
			return i + 1, true
		}
	}
	return 0, false
}

func param(params []int, i, def int) int {
	if i < len(params) && params[i] > 0 {
		return params[i]
	}
	return def
}

func (s *Screen) command(cmd byte, params []int) {
	switch cmd {
	case 'H', 'f':
		s.y = min(param(params, 0, 1), s.rows) - 1
		s.x = min(param(params, 1, 1), s.cols) - 1
	case 'A':
		s.y = max(0, s.y-param(params, 0, 1))
	case 'B':
		s.y = min(s.rows-1, s.y+param(params, 0, 1))
	case 'C':
		s.x = min(s.cols-1, s.x+param(params, 0, 1))
	case 'D':
		s.x = max(0, s.x-param(params, 0, 1))
	case 'J':
		mode := 0
		if len(params) > 0 {
			mode = params[0]
		}
		switch mode {
		case 0:
			s.eraseLine(s.x, s.cols)
			for i := s.y + 1; i < s.rows; i++ {
				s.cells[i] = blankRow(s.cols)
			}
		case 1:
			for i := 0; i < s.y; i++ {
				s.cells[i] = blankRow(s.cols)
			}
			s.eraseLine(0, s.x+1)
		case 2, 3:
			for i := range s.cells {
				s.cells[i] = blankRow(s.cols)
			}
		}
	case 'K':
		mode := 0
		if len(params) > 0 {
			mode = params[0]
		}
		switch mode {
		case 0:
			s.eraseLine(s.x, s.cols)
		case 1:
			s.eraseLine(0, s.x+1)
		case 2:
			s.eraseLine(0, s.cols)
		}
	}
	// SGR ('m') and scroll region ('r') do not change cell contents
}

func (s *Screen) eraseLine(from, to int) {
	if s.y < 0 || s.y >= s.rows {
		return
	}
	for j := max(from, 0); j < min(to, s.cols); j++ {
		s.cells[s.y][j] = ' '
	}
}

func (s *Screen) put(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	if s.x+w > s.cols {
		s.x = 0
		s.lineFeed()
	}
	s.cells[s.y][s.x] = r
	// the trailing cell of a wide rune stays empty in the rendered text
	for k := 1; k < w; k++ {
		s.cells[s.y][s.x+k] = 0
	}
	s.x += w
}

func (s *Screen) lineFeed() {
	s.x = 0
	if s.y < s.rows-1 {
		s.y++
		return
	}
	copy(s.cells, s.cells[1:])
	s.cells[s.rows-1] = blankRow(s.cols)
}

// Line returns row n without trailing blanks
func (s *Screen) Line(n int) string {
	if n < 0 || n >= s.rows {
		return ""
	}
	var b strings.Builder
	for _, r := range s.cells[n] {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Lines returns every row up to the last non-blank one
func (s *Screen) Lines() []string {
	lines := make([]string, s.rows)
	last := -1
	for i := range lines {
		lines[i] = s.Line(i)
		if lines[i] != "" {
			last = i
		}
	}
	return lines[:last+1]
}

func (s *Screen) String() string {
	return strings.Join(s.Lines(), "\n")
}

func (s *Screen) Contains(text string) bool {
	return strings.Contains(s.String(), text)
}

// Cursor reports the zero-based cursor position
func (s *Screen) Cursor() (row, col int) {
	return s.y, s.x
}
