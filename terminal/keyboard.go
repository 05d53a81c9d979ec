package terminal

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/term"
	"github.com/spinrut/chip8"
)

// DefaultHoldDuration is how long a key stays down after its character was read.
// Terminals only report characters, never releases.
const DefaultHoldDuration = 150 * time.Millisecond

const (
	ctrlC = 0x03
	esc   = 0x1B
)

// Keyboard reads the controlling terminal in raw mode and maps characters to logical keys
type Keyboard struct {
	// HoldDuration is how long a key is reported as pressed after it was typed
	HoldDuration time.Duration
	// OnInterrupt is called when Ctrl-C or Escape is typed
	OnInterrupt func()

	device string
	lookup map[rune]byte
	now    func() time.Time

	tty    *term.Term
	closed atomic.Bool

	mu        sync.Mutex
	pressedAt [chip8.KeyCount]time.Time
}

func NewKeyboard(layout chip8.KeyboardLayout) *Keyboard {
	return &Keyboard{
		HoldDuration: DefaultHoldDuration,
		OnInterrupt:  func() {},
		device:       "/dev/tty",
		lookup:       chip8.LookupMap(layout),
		now:          time.Now,
	}
}

// Boot implements chip8.Keyboard.
// It switches the terminal to raw mode and starts reading it.
func (kb *Keyboard) Boot() error {
	if kb.tty != nil {
		return nil
	}

	tty, err := term.Open(kb.device, term.RawMode)
	if err != nil {
		return err
	}
	kb.tty = tty

	go kb.read(tty)

	return nil
}

// IsPressed implements chip8.Keyboard.
func (kb *Keyboard) IsPressed(k byte) bool {
	if k >= chip8.KeyCount {
		return false
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	at := kb.pressedAt[k]
	return !at.IsZero() && kb.now().Sub(at) < kb.HoldDuration
}

// Close restores the terminal mode
func (kb *Keyboard) Close() error {
	if kb.tty == nil {
		return nil
	}

	tty := kb.tty
	kb.tty = nil
	kb.closed.Store(true)

	return errors.Join(tty.Restore(), tty.Close())
}

func (kb *Keyboard) read(r io.Reader) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			kb.handleInput(buf[:n])
		}
		if err != nil {
			if !kb.closed.Load() && !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.EOF) {
				slog.Error("Could not read the terminal", slog.Any("error", err))
			}
			return
		}
	}
}

func (kb *Keyboard) handleInput(input []byte) {
	now := kb.now()

	kb.mu.Lock()
	defer kb.mu.Unlock()

	for _, b := range input {
		if b == ctrlC || b == esc {
			go kb.OnInterrupt()
			continue
		}

		if k, ok := kb.lookup[rune(b)]; ok {
			kb.pressedAt[k] = now
		}
	}
}
