package chip8

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProgramDoesNotFitIntoMemory = errors.New("the program does not fit into memory")

// ErrAddressOutOfRange is returned when an access of Length bytes starting at Address
// would leave the memory
type ErrAddressOutOfRange struct {
	Address uint16
	Length  int
}

func (err ErrAddressOutOfRange) Error() string {
	return fmt.Sprintf("memory access out of range: %d bytes at address=%03X", err.Length, err.Address)
}

const (
	MemorySize = 4096

	StartOfProgram = 0x200
	MaxProgramSize = MemorySize - StartOfProgram

	FontAddress   = 0x050
	FontGlyphSize = 5
)

var font = [16 * FontGlyphSize]byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}

// Glyph returns the five bytes of the built-in sprite for the hex digit d
func Glyph(d byte) []byte {
	start := int(d&0x0F) * FontGlyphSize
	return font[start : start+FontGlyphSize]
}

type Memory [MemorySize]byte

// NewMemory creates a memory of 4096 bytes with the font loaded
func NewMemory() *Memory {
	m := Memory{}
	m.loadFont()

	return &m
}

func (mem Memory) Clone() *Memory {
	m := Memory{}
	copy(m[:], mem[:])

	return &m
}

func (mem Memory) String() string {
	sb := strings.Builder{}

	sb.WriteString("[ ")
	for _, b := range mem[:StartOfProgram] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]\n")
	sb.WriteString("[ ")
	for _, b := range mem[StartOfProgram:] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]")

	return sb.String()
}

func (mem Memory) IsEqual(other Memory) bool {
	return mem == other
}

// Slice returns the n bytes starting at addr, sharing the underlying memory.
// It fails if any of those bytes lies outside the memory.
func (mem *Memory) Slice(addr uint16, n int) ([]byte, error) {
	if n < 0 || int(addr)+n > MemorySize {
		return nil, ErrAddressOutOfRange{Address: addr, Length: n}
	}

	return mem[int(addr) : int(addr)+n], nil
}

// ReadWord reads the big-endian 16-bit word at addr
func (mem *Memory) ReadWord(addr uint16) (uint16, error) {
	b, err := mem.Slice(addr, 2)
	if err != nil {
		return 0, err
	}

	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// LoadProgram clears the memory, restores the font and copies the program at the
// start-of-program address. Nothing is modified if the program is too big.
func (mem *Memory) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return ErrProgramDoesNotFitIntoMemory
	}

	*mem = Memory{}
	mem.loadFont()
	copy(mem[StartOfProgram:], program)

	return nil
}

func (mem *Memory) loadFont() {
	copy(mem[FontAddress:], font[:])
}
