package interaction

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/penwyp/go-biz-monitor/internal/util"
)

// KeyboardReader handles keyboard input in raw mode
type KeyboardReader struct {
	fd       int
	in       io.Reader
	oldState *term.State
	input    chan KeyEvent
	stop     chan struct{}
}

// KeyEvent represents a keyboard event
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyType represents the type of key pressed
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyArrow
)

const (
	keyCtrlC  = 3
	keyEscape = 27
)

// Consecutive read failures tolerated before the reader gives up. The wait
// between attempts grows linearly with the failure count.
const (
	maxReadFailures  = 5
	readRetryBackoff = 20 * time.Millisecond
)

// Action is what the dashboard does in response to a key
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionCycleSort
	ActionToggleUrgent
	ActionCycleKind
	ActionReload
	ActionToggleHelp
	ActionToggleLayout
	ActionBack
)

// NewKeyboardReader puts stdin into raw mode and starts reading keys
func NewKeyboardReader() (*KeyboardReader, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enable raw mode: %w", err)
	}

	kr := newKeyboardReader(os.Stdin)
	kr.fd = fd
	kr.oldState = oldState
	go kr.readInput()
	return kr, nil
}

// NewKeyboardReaderFrom reads keys from r without touching terminal state
func NewKeyboardReaderFrom(r io.Reader) *KeyboardReader {
	kr := newKeyboardReader(r)
	go kr.readInput()
	return kr
}

func newKeyboardReader(r io.Reader) *KeyboardReader {
	return &KeyboardReader{
		fd:    -1,
		in:    r,
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}
}

// readInput reads keyboard input in a goroutine. The event channel is closed
// when input ends, when reading keeps failing, or after Close.
func (kr *KeyboardReader) readInput() {
	defer close(kr.input)
	buf := make([]byte, 3)
	failures := 0

	for {
		select {
		case <-kr.stop:
			return
		default:
		}

		n, err := kr.in.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			failures++
			if failures >= maxReadFailures {
				util.LogWarn(fmt.Sprintf("Keyboard input failed %d times, giving up: %v", failures, err))
				return
			}
			util.LogDebug(fmt.Sprintf("Keyboard read failed: %v", err))
			select {
			case <-time.After(time.Duration(failures) * readRetryBackoff):
			case <-kr.stop:
				return
			}
			continue
		}
		failures = 0
		if n == 0 {
			continue
		}

		event := kr.parseInput(buf[:n])
		if event == nil {
			continue
		}
		select {
		case kr.input <- *event:
		case <-kr.stop:
			return
		}
	}
}

// parseInput parses raw keyboard input
func (kr *KeyboardReader) parseInput(buf []byte) *KeyEvent {
	if len(buf) == 0 {
		return nil
	}

	if buf[0] == keyCtrlC {
		return &KeyEvent{Key: keyCtrlC, Type: KeyChar}
	}

	if buf[0] == keyEscape {
		if len(buf) == 1 {
			return &KeyEvent{Key: keyEscape, Type: KeyEscape}
		}
		if len(buf) >= 3 && buf[1] == '[' {
			return &KeyEvent{Key: rune(buf[2]), Type: KeyArrow}
		}
		return nil
	}

	return &KeyEvent{Key: rune(buf[0]), Type: KeyChar}
}

// Events returns the keyboard event channel. It is closed once the reader
// stops.
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops the keyboard reader and restores the terminal
func (kr *KeyboardReader) Close() error {
	select {
	case <-kr.stop:
		return nil
	default:
		close(kr.stop)
	}
	if kr.oldState != nil {
		return term.Restore(kr.fd, kr.oldState)
	}
	return nil
}

// ActionFor maps a key event to a dashboard action
func ActionFor(event KeyEvent) Action {
	if event.Type != KeyChar {
		if event.Type == KeyEscape {
			return ActionBack
		}
		return ActionNone
	}
	switch event.Key {
	case 'q', 'Q', keyCtrlC:
		return ActionQuit
	case 's', 'S':
		return ActionCycleSort
	case 'u', 'U':
		return ActionToggleUrgent
	case 'k', 'K':
		return ActionCycleKind
	case 'r', 'R':
		return ActionReload
	case 'h', 'H', '?':
		return ActionToggleHelp
	case 't', 'T':
		return ActionToggleLayout
	default:
		return ActionNone
	}
}
