package vterm

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenSequences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		row   int
		col   int
	}{
		{
			name:  "plain_text",
			input: "hello\r\nworld",
			want:  []string{"hello", "world"},
			row:   1,
			col:   5,
		},
		{
			name:  "cursor_position",
			input: "\x1b[2;3Hx",
			want:  []string{"", "  x"},
			row:   1,
			col:   3,
		},
		{
			name:  "erase_line_from_cursor",
			input: "abcdef\x1b[1;3H\x1b[0K",
			want:  []string{"ab"},
			row:   0,
			col:   2,
		},
		{
			name:  "erase_to_end_of_screen",
			input: "one\r\ntwo\r\nthree\x1b[2;2H\x1b[J",
			want:  []string{"one", "t"},
			row:   1,
			col:   1,
		},
		{
			name:  "clear_screen_keeps_cursor",
			input: "abc\x1b[2J",
			want:  []string{},
			row:   0,
			col:   3,
		},
		{
			name:  "colors_and_private_modes_ignored",
			input: "\x1b[?1049h\x1b[?25l\x1b[31mred\x1b[0m\x1b[r",
			want:  []string{"red"},
			row:   0,
			col:   3,
		},
		{
			name:  "wraps_and_scrolls",
			input: "1234567890ab\r\nc\r\nd",
			want:  []string{"ab", "c", "d"},
			row:   2,
			col:   1,
		},
		{
			name:  "wide_runes_take_two_cells",
			input: "日本x",
			want:  []string{"日本x"},
			row:   0,
			col:   5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(3, 10)
			_, err := io.WriteString(s, tt.input)
			assert.NoError(t, err)

			assert.Equal(t, tt.want, s.Lines())
			row, col := s.Cursor()
			assert.Equal(t, tt.row, row)
			assert.Equal(t, tt.col, col)
		})
	}
}

func TestScreenSplitWrites(t *testing.T) {
	s := New(2, 10)

	_, _ = io.WriteString(s, "abcdef\x1b[1;")
	_, _ = io.WriteString(s, "4H\x1b")
	_, _ = io.WriteString(s, "[K")
	_, _ = s.Write([]byte("é")[:1])
	_, _ = s.Write([]byte("é")[1:])

	assert.Equal(t, "abcé", s.Line(0))
	assert.True(t, s.Contains("abcé"))
	assert.Equal(t, "", s.Line(5), "rows outside the screen are empty")
}
