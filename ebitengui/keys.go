package ebitengui

import (
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spinrut/chip8"
)

var runeToKey = map[rune]ebiten.Key{
	'0': ebiten.KeyDigit0, '1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3,
	'4': ebiten.KeyDigit4, '5': ebiten.KeyDigit5, '6': ebiten.KeyDigit6, '7': ebiten.KeyDigit7,
	'8': ebiten.KeyDigit8, '9': ebiten.KeyDigit9,

	'a': ebiten.KeyA, 'b': ebiten.KeyB, 'c': ebiten.KeyC, 'd': ebiten.KeyD, 'e': ebiten.KeyE,
	'f': ebiten.KeyF, 'g': ebiten.KeyG, 'h': ebiten.KeyH, 'i': ebiten.KeyI, 'j': ebiten.KeyJ,
	'k': ebiten.KeyK, 'l': ebiten.KeyL, 'm': ebiten.KeyM, 'n': ebiten.KeyN, 'o': ebiten.KeyO,
	'p': ebiten.KeyP, 'q': ebiten.KeyQ, 'r': ebiten.KeyR, 's': ebiten.KeyS, 't': ebiten.KeyT,
	'u': ebiten.KeyU, 'v': ebiten.KeyV, 'w': ebiten.KeyW, 'x': ebiten.KeyX, 'y': ebiten.KeyY,
	'z': ebiten.KeyZ,
}

// KeyMap binds the physical keys of the layout to logical keys.
// Characters without a physical key are skipped.
func KeyMap(layout chip8.KeyboardLayout) map[ebiten.Key]byte {
	m := make(map[ebiten.Key]byte, chip8.KeyCount)
	for k, r := range layout {
		if key, ok := runeToKey[unicode.ToLower(r)]; ok {
			m[key] = byte(k)
		}
	}

	return m
}

func KeyboardStateOf(pressed []ebiten.Key, keymap map[ebiten.Key]byte) chip8.KeyboardState {
	var s chip8.KeyboardState
	for _, key := range pressed {
		if k, ok := keymap[key]; ok {
			s |= 0b1000000000000000 >> k
		}
	}

	return s
}
