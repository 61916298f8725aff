package interaction

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardReaderParseInput(t *testing.T) {
	kr := newKeyboardReader(strings.NewReader(""))

	tests := []struct {
		name     string
		input    []byte
		expected *KeyEvent
	}{
		{name: "regular char", input: []byte{'a'}, expected: &KeyEvent{Key: 'a', Type: KeyChar}},
		{name: "ctrl+c", input: []byte{3}, expected: &KeyEvent{Key: 3, Type: KeyChar}},
		{name: "escape", input: []byte{27}, expected: &KeyEvent{Key: 27, Type: KeyEscape}},
		{name: "arrow up", input: []byte{27, '[', 'A'}, expected: &KeyEvent{Key: 'A', Type: KeyArrow}},
		{name: "unknown escape", input: []byte{27, 'x'}, expected: nil},
		{name: "empty", input: []byte{}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, kr.parseInput(tt.input))
		})
	}
}

func TestKeyboardReaderFromReader(t *testing.T) {
	pr, pw := io.Pipe()
	kr := NewKeyboardReaderFrom(pr)
	defer kr.Close()

	go func() {
		_, _ = pw.Write([]byte("s"))
		_, _ = pw.Write([]byte("q"))
	}()

	var got []rune
	for len(got) < 2 {
		select {
		case ev := <-kr.Events():
			got = append(got, ev.Key)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for key events")
		}
	}
	assert.Equal(t, []rune{'s', 'q'}, got)

	require.NoError(t, kr.Close())
	require.NoError(t, kr.Close(), "closing twice is a no-op")
	_ = pw.Close()
}

type flakyReader struct {
	calls int
	err   error
}

func (r *flakyReader) Read(p []byte) (int, error) {
	r.calls++
	if r.calls == 1 {
		p[0] = 'r'
		return 1, nil
	}
	return 0, r.err
}

func TestKeyboardReaderClosesEvents(t *testing.T) {
	tests := []struct {
		name  string
		input io.Reader
		keys  []rune
	}{
		{name: "end_of_input", input: io.MultiReader(strings.NewReader("s"), strings.NewReader("u")), keys: []rune{'s', 'u'}},
		{name: "persistent_read_error", input: &flakyReader{err: errors.New("device gone")}, keys: []rune{'r'}},
		{name: "wrapped_eof", input: &flakyReader{err: fmt.Errorf("read: %w", io.EOF)}, keys: []rune{'r'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kr := NewKeyboardReaderFrom(tt.input)
			defer kr.Close()

			var got []rune
			for {
				select {
				case ev, ok := <-kr.Events():
					if !ok {
						assert.Equal(t, tt.keys, got)
						return
					}
					got = append(got, ev.Key)
				case <-time.After(2 * time.Second):
					t.Fatal("event channel was not closed")
				}
			}
		})
	}
}

func TestKeyboardReaderRetriesTransientErrors(t *testing.T) {
	reader := &flakyReader{err: errors.New("interrupted")}
	kr := NewKeyboardReaderFrom(reader)
	defer kr.Close()

	for range kr.Events() {
	}

	assert.Equal(t, maxReadFailures+1, reader.calls, "one successful read plus the tolerated failures")
}

func TestKeyboardReaderCloseStopsReading(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	kr := NewKeyboardReaderFrom(pr)

	require.NoError(t, kr.Close())
	go func() { _, _ = pw.Write([]byte("x")) }()

	select {
	case _, ok := <-kr.Events():
		if ok {
			// the pending key may still be delivered once
			_, ok = <-kr.Events()
		}
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("event channel was not closed after Close")
	}
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		event    KeyEvent
		expected Action
	}{
		{KeyEvent{Key: 'q'}, ActionQuit},
		{KeyEvent{Key: 3}, ActionQuit},
		{KeyEvent{Key: 's'}, ActionCycleSort},
		{KeyEvent{Key: 'u'}, ActionToggleUrgent},
		{KeyEvent{Key: 'k'}, ActionCycleKind},
		{KeyEvent{Key: 'R'}, ActionReload},
		{KeyEvent{Key: '?'}, ActionToggleHelp},
		{KeyEvent{Key: 't'}, ActionToggleLayout},
		{KeyEvent{Key: 27, Type: KeyEscape}, ActionBack},
		{KeyEvent{Key: 'A', Type: KeyArrow}, ActionNone},
		{KeyEvent{Key: 'z'}, ActionNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ActionFor(tt.event), string(tt.event.Key))
	}
}

func resolved(id, name, status string, updatedDaysAgo int, urgent bool, kind model.RecordKind) model.ResolvedRecord {
	r := model.ResolvedRecord{
		TrackedRecord: model.TrackedRecord{ID: id, Name: name, Kind: kind},
		CurrentStatus: status,
		Urgent:        urgent,
	}
	if updatedDaysAgo >= 0 {
		r.UpdatedAt = model.NewTimestamp(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -updatedDaysAgo))
	}
	return r
}

func ids(records []model.ResolvedRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestRecordSorter(t *testing.T) {
	// display order: urgent oldest first, then newest first
	records := []model.ResolvedRecord{
		resolved("1", "zeta", "sent", 11, true, model.KindClient),
		resolved("2", "Alpha", "paid", 1, false, model.KindInvoice),
		resolved("3", "beta", "Accepted", 3, false, model.KindClient),
		resolved("4", "gamma", "sent", -1, false, model.KindProposal),
	}

	sorter := NewRecordSorter()
	assert.Equal(t, SortDisplayOrder, sorter.Mode())
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(sorter.Sort(records)))

	assert.Equal(t, SortByName, sorter.Cycle())
	assert.Equal(t, []string{"2", "3", "4", "1"}, ids(sorter.Sort(records)))

	assert.Equal(t, SortByUpdated, sorter.Cycle())
	assert.Equal(t, []string{"2", "3", "1", "4"}, ids(sorter.Sort(records)))

	assert.Equal(t, SortByStatus, sorter.Cycle())
	assert.Equal(t, []string{"3", "2", "1", "4"}, ids(sorter.Sort(records)))

	assert.Equal(t, SortDisplayOrder, sorter.Cycle())
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(records), "input is not modified")
}

func TestSortModeString(t *testing.T) {
	assert.Equal(t, "urgency", SortDisplayOrder.String())
	assert.Equal(t, "name", SortByName.String())
	assert.Equal(t, "updated", SortByUpdated.String())
	assert.Equal(t, "status", SortByStatus.String())
	assert.Equal(t, "unknown", SortMode(42).String())
}

func TestViewFilter(t *testing.T) {
	records := []model.ResolvedRecord{
		resolved("1", "a", "sent", 11, true, model.KindClient),
		resolved("2", "b", "paid", 1, false, model.KindInvoice),
		resolved("3", "c", "sent", 9, true, model.KindInvoice),
	}

	var f ViewFilter
	assert.Equal(t, "All", f.KindLabel())
	assert.Len(t, f.Apply(records), 3)

	assert.Equal(t, model.KindClient, f.CycleKind())
	assert.Equal(t, []string{"1"}, ids(f.Apply(records)))
	assert.Equal(t, model.KindInvoice, f.CycleKind())
	assert.Equal(t, "Invoices", f.KindLabel())
	assert.Equal(t, []string{"2", "3"}, ids(f.Apply(records)))

	assert.True(t, f.ToggleUrgent())
	assert.Equal(t, []string{"3"}, ids(f.Apply(records)))

	assert.Equal(t, model.KindProposal, f.CycleKind())
	assert.Equal(t, model.RecordKind(""), f.CycleKind())
	assert.Equal(t, []string{"1", "3"}, ids(f.Apply(records)))
	assert.False(t, f.ToggleUrgent())
}
