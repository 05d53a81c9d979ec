package chip8

import (
	"sync/atomic"
	"unicode"
)

// KeyCount is the number of logical keys, numbered 0x0 to 0xF
const KeyCount = 16

type Keyboard interface {
	// Boot initializes the component
	Boot() error
	// IsPressed reports whether the logical key k is down. Keys above 0xF are never pressed.
	IsPressed(k byte) bool
}

// FirstPressed returns the lowest logical key that is currently down
func FirstPressed(kb Keyboard) (byte, bool) {
	for k := byte(0); k < KeyCount; k++ {
		if kb.IsPressed(k) {
			return k, true
		}
	}

	return 0, false
}

// KeyboardState has one bit per key, the most significant bit being key 0
type KeyboardState uint16

func keyMask(k byte) KeyboardState {
	return 0b1000000000000000 >> k
}

func (s KeyboardState) IsPressed(k byte) bool {
	if k >= KeyCount {
		return false
	}

	return s&keyMask(k) > 0
}

// InMemoryKeyboard is a keyboard whose state is set by the host.
// It is safe to update it from a goroutine other than the one running the CPU.
type InMemoryKeyboard struct {
	state atomic.Uint32
}

func NewInMemoryKeyboard() *InMemoryKeyboard {
	return &InMemoryKeyboard{}
}

// Boot implements Keyboard.
func (kb *InMemoryKeyboard) Boot() error {
	return nil
}

// IsPressed implements Keyboard.
func (kb *InMemoryKeyboard) IsPressed(k byte) bool {
	return kb.Get().IsPressed(k)
}

func (kb *InMemoryKeyboard) Get() KeyboardState {
	return KeyboardState(kb.state.Load())
}

func (kb *InMemoryKeyboard) Set(s KeyboardState) {
	kb.state.Store(uint32(s))
}

func (kb *InMemoryKeyboard) Press(k byte) {
	if k >= KeyCount {
		return
	}

	for {
		old := kb.state.Load()
		if kb.state.CompareAndSwap(old, old|uint32(keyMask(k))) {
			return
		}
	}
}

func (kb *InMemoryKeyboard) Release(k byte) {
	if k >= KeyCount {
		return
	}

	for {
		old := kb.state.Load()
		if kb.state.CompareAndSwap(old, old&^uint32(keyMask(k))) {
			return
		}
	}
}

// KeyboardLayout has the host character bound to each logical key
type KeyboardLayout [KeyCount]rune

// DefaultKeyboardLayout maps the left side of a QWERTY keyboard onto the hex keypad
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var DefaultKeyboardLayout = KeyboardLayout{
	'x', '1', '2', '3',
	'q', 'w', 'e', 'a',
	's', 'd', 'z', 'c',
	'4', 'r', 'f', 'v',
}

// LookupMap returns the logical key of every character of the layout.
// Letters are registered in lower and upper case.
func LookupMap(layout KeyboardLayout) map[rune]byte {
	m := make(map[rune]byte, KeyCount*2)
	for k, r := range layout {
		m[unicode.ToLower(r)] = byte(k)
		m[unicode.ToUpper(r)] = byte(k)
	}

	return m
}
