package chip8_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spinrut/chip8"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testMachine struct {
	cpu     *chip8.Cpu
	kb      *chip8.InMemoryKeyboard
	display *chip8.InMemoryDisplay
	buzzer  *chip8.DummyBuzzer
	clock   *fakeClock
}

func newTestMachine(t *testing.T, program []byte, configs ...chip8.CpuConfigCb) testMachine {
	t.Helper()

	m := testMachine{
		kb:      chip8.NewInMemoryKeyboard(),
		display: chip8.NewInMemoryDisplay(),
		buzzer:  chip8.NewDummyBuzzer(),
		clock:   &fakeClock{now: time.Unix(0, 0)},
	}

	configs = append([]chip8.CpuConfigCb{chip8.WithClock(m.clock.Now)}, configs...)
	m.cpu = chip8.NewCpu(chip8.NewMemory(), chip8.SmallScreen, m.display, m.kb, m.buzzer, configs...)

	if err := m.cpu.LoadProgram(program); err != nil {
		t.Fatalf(`LoadProgram() returned an error %v`, err)
	}

	if err := m.cpu.Boot(); err != nil {
		t.Fatalf(`Boot() returned an error %v`, err)
	}

	return m
}

func runNCycles(cpu *chip8.Cpu, n int) error {
	for i := 0; i < n; i++ {
		if err := cpu.Step(); err != nil {
			return err
		}
	}

	return nil
}

func mustRunNCycles(t *testing.T, cpu *chip8.Cpu, n int) {
	t.Helper()

	if err := runNCycles(cpu, n); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
}

func assertVxEq(t *testing.T, msg string, cpu *chip8.Cpu, x, kk byte) {
	t.Helper()

	if cpu.V[x] != kk {
		t.Fatalf(`%s: cpu.V[%x] = %x, expected %x`, msg, x, cpu.V[x], kk)
	}
}

func assertPcEq(t *testing.T, msg string, cpu *chip8.Cpu, pc uint16) {
	t.Helper()

	if cpu.Pc != pc {
		t.Fatalf(`%s: cpu.Pc = %03X, expected %03X`, msg, cpu.Pc, pc)
	}
}

// TestProgramLoading loads a program that jumps to itself
func TestProgramLoading(t *testing.T) {
	program := []byte{
		// jump to the start of the program
		0x12, 0x00,
	}
	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 2)

	assertPcEq(t, "JP to itself", m.cpu, 0x200)

	if m.cpu.Memory[0x200] != 0x12 || m.cpu.Memory[0x201] != 0x00 {
		t.Fatalf(`program not loaded at 0x200: %X %X`, m.cpu.Memory[0x200], m.cpu.Memory[0x201])
	}

	if !bytes.Equal(m.cpu.Memory[chip8.FontAddress:chip8.FontAddress+5], chip8.Glyph(0)) {
		t.Fatalf(`font not loaded at %03X`, chip8.FontAddress)
	}
}

func TestProgramTooBigIsRefused(t *testing.T) {
	m := newTestMachine(t, []byte{0x60, 0x01})

	err := m.cpu.LoadProgram(make([]byte, chip8.MaxProgramSize+1))
	if !errors.Is(err, chip8.ErrProgramDoesNotFitIntoMemory) {
		t.Fatalf(`LoadProgram() = %v, expected %v`, err, chip8.ErrProgramDoesNotFitIntoMemory)
	}

	// the previous program is still there
	if m.cpu.Memory[0x200] != 0x60 || m.cpu.Memory[0x201] != 0x01 {
		t.Fatalf(`memory was modified by a refused program`)
	}

	if err := m.cpu.LoadProgram(make([]byte, chip8.MaxProgramSize)); err != nil {
		t.Fatalf(`LoadProgram() of a program filling the memory returned %v`, err)
	}
}

// TestConstantSetInstructions
func TestConstantSetInstructions(t *testing.T) {
	program := []byte{
		// set v0 to 128
		0x60, 128,
		// set v1 to 16
		0x61, 16,
		// set v2 to 1
		0x62, 1,
		// add to v2 4
		0x72, 4,
		// add to v1 255, wraps without touching VF
		0x71, 255,
	}
	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 5)

	assertVxEq(t, "LD V0", m.cpu, 0x0, 128)
	assertVxEq(t, "ADD V1 wraps", m.cpu, 0x1, 15)
	assertVxEq(t, "ADD V2", m.cpu, 0x2, 5)
	assertVxEq(t, "ADD Vx kk leaves VF", m.cpu, 0xF, 0)
}

// TestSimpleSkips checks every skip instruction both ways
func TestSimpleSkips(t *testing.T) {
	program := []byte{
		// set v0 to 128
		0x60, 128,
		// set v1 to 16
		0x61, 16,
		// set v2 to 128
		0x62, 128,

		// if v0 == 128, do not set v3 to 1
		0x30, 128,
		0x63, 1,

		// if v0 == 16, do not set vA to 1
		0x30, 16,
		0x6A, 1,

		// if v0 != 128, do not set v4 to 1
		0x40, 128,
		0x64, 1,

		// if v0 != 16, do not set vB to 1
		0x40, 16,
		0x6B, 1,

		// if v0 == v1, do not set v5 to 1
		0x50, 0x10,
		0x65, 1,

		// if v0 == v2, do not set v6 to 1
		0x50, 0x20,
		0x66, 1,

		// if v0 != v1, do not set v7 to 1
		0x90, 0x10,
		0x67, 1,

		// if v0 != v2, do not set v8 to 1
		0x90, 0x20,
		0x68, 1,
	}
	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 15)

	assertVxEq(t, "SE Vx kk true", m.cpu, 0x3, 0x0)
	assertVxEq(t, "SE Vx kk false", m.cpu, 0xA, 0x1)
	assertVxEq(t, "SNE Vx kk true", m.cpu, 0xB, 0x0)
	assertVxEq(t, "SNE Vx kk false", m.cpu, 0x4, 0x1)
	assertVxEq(t, "SE Vx Vy true", m.cpu, 0x6, 0x0)
	assertVxEq(t, "SE Vx Vy false", m.cpu, 0x5, 0x1)
	assertVxEq(t, "SNE Vx Vy true", m.cpu, 0x7, 0x0)
	assertVxEq(t, "SNE Vx Vy false", m.cpu, 0x8, 0x1)
}

func TestSkipsAdvanceThePcByFourOrTwo(t *testing.T) {
	cases := []struct {
		name   string
		opCode []byte
		want   uint16
	}{
		{"SE Vx kk taken", []byte{0x30, 0x07}, 0x204},
		{"SE Vx kk not taken", []byte{0x30, 0x08}, 0x202},
		{"SNE Vx kk taken", []byte{0x40, 0x08}, 0x204},
		{"SNE Vx kk not taken", []byte{0x40, 0x07}, 0x202},
		{"SE Vx Vy taken", []byte{0x50, 0x10}, 0x204},
		{"SE Vx Vy not taken", []byte{0x50, 0x20}, 0x202},
		{"SNE Vx Vy taken", []byte{0x90, 0x20}, 0x204},
		{"SNE Vx Vy not taken", []byte{0x90, 0x10}, 0x202},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := newTestMachine(t, c.opCode)
			m.cpu.V[0] = 7
			m.cpu.V[1] = 7
			m.cpu.V[2] = 9

			mustRunNCycles(t, m.cpu, 1)
			assertPcEq(t, c.name, m.cpu, c.want)
		})
	}
}

func TestArithmeticFlags(t *testing.T) {
	cases := []struct {
		name       string
		vx, vy     byte
		op         byte
		want, flag byte
	}{
		{"ADD overflows", 0xFF, 0x01, 0x4, 0x00, 1},
		{"ADD no overflow", 0x10, 0x01, 0x4, 0x11, 0},
		{"SUB no borrow", 5, 3, 0x5, 2, 1},
		{"SUB equal operands", 5, 5, 0x5, 0, 1},
		{"SUB borrow", 3, 5, 0x5, 0xFE, 0},
		{"SUBN no borrow", 3, 5, 0x7, 2, 1},
		{"SUBN borrow", 5, 3, 0x7, 0xFE, 0},
		{"SHR shifts Vy out", 0x00, 0b00000011, 0x6, 0b00000001, 1},
		{"SHR even", 0x00, 0b00000010, 0x6, 0b00000001, 0},
		{"SHL shifts Vy out", 0x00, 0b10000001, 0xE, 0b00000010, 1},
		{"SHL no carry", 0x00, 0b01000000, 0xE, 0b10000000, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			program := []byte{
				// V1 = vx, V2 = vy
				0x61, c.vx,
				0x62, c.vy,
				// 8 1 2 op
				0x81, 0x20 | c.op,
			}
			m := newTestMachine(t, program)
			mustRunNCycles(t, m.cpu, 3)

			assertVxEq(t, "result", m.cpu, 0x1, c.want)
			assertVxEq(t, "flag", m.cpu, 0xF, c.flag)
			assertVxEq(t, "Vy untouched", m.cpu, 0x2, c.vy)
		})
	}
}

func TestLogicalInstructions(t *testing.T) {
	program := []byte{
		0x61, 0b1100,
		0x62, 0b1010,
		0x63, 0b1100,
		0x64, 0b1100,
		0x65, 0x00,
		// V3 |= V2, V4 &= V2, V1 ^= V2, V5 = V2
		0x83, 0x21,
		0x84, 0x22,
		0x81, 0x23,
		0x85, 0x20,
	}
	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 9)

	assertVxEq(t, "OR", m.cpu, 0x3, 0b1110)
	assertVxEq(t, "AND", m.cpu, 0x4, 0b1000)
	assertVxEq(t, "XOR", m.cpu, 0x1, 0b0110)
	assertVxEq(t, "LD Vx Vy", m.cpu, 0x5, 0b1010)
}

// TestFlagWinsWhenVfIsTheDestination uses VF as the destination of flag setting instructions
func TestFlagWinsWhenVfIsTheDestination(t *testing.T) {
	cases := []struct {
		name    string
		vf, vy  byte
		op      byte
		flag    byte
		comment string
	}{
		{"ADD VF, Vy carry", 0xFF, 0x02, 0x4, 1, "sum is 0x01 but carry wins"},
		{"ADD VF, Vy no carry", 0x01, 0x02, 0x4, 0, "sum is 0x03 but flag wins"},
		{"SUB VF, Vy", 0x05, 0x03, 0x5, 1, "difference is 2 but flag wins"},
		{"SUB VF, Vy borrow", 0x03, 0x05, 0x5, 0, "difference is 0xFE but flag wins"},
		{"SUBN VF, Vy", 0x03, 0x05, 0x7, 1, "difference is 2 but flag wins"},
		{"SHR VF, Vy", 0x00, 0x02, 0x6, 0, "result is 1 but flag wins"},
		{"SHL VF, Vy", 0x00, 0x81, 0xE, 1, "result is 2 but flag wins"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			program := []byte{
				0x6F, c.vf,
				0x62, c.vy,
				0x8F, 0x20 | c.op,
			}
			m := newTestMachine(t, program)
			mustRunNCycles(t, m.cpu, 3)

			assertVxEq(t, c.comment, m.cpu, 0xF, c.flag)
		})
	}
}

// TestDrawReadsTheOriginBeforeTheFlag draws at (VF, VF)
func TestDrawReadsTheOriginBeforeTheFlag(t *testing.T) {
	program := []byte{
		0x6F, 0x05,
		// I = glyph 0, whose first row is 0xF0
		0xA0, 0x50,
		// DRW VF, VF, 1
		0xDF, 0xF1,
	}
	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 3)

	for x := 5; x < 9; x++ {
		if !m.cpu.Screen().At(m.cpu.ScreenSettings, x, 5) {
			t.Fatalf(`pixel (%d, 5) is off, the sprite was not drawn at VF`, x)
		}
	}
	if m.cpu.Screen().At(m.cpu.ScreenSettings, 0, 0) {
		t.Fatalf(`pixel (0, 0) is on, the sprite was drawn after clearing VF`)
	}
	assertVxEq(t, "DRW VF, VF no collision", m.cpu, 0xF, 0)
}

func TestShiftQuirk(t *testing.T) {
	program := []byte{
		0x61, 0b00000101,
		0x62, 0b11110000,
		// SHR V1, V2
		0x81, 0x26,
	}

	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 3)
	assertVxEq(t, "SHR copies Vy", m.cpu, 0x1, 0b01111000)
	assertVxEq(t, "SHR copies Vy flag", m.cpu, 0xF, 0)

	m = newTestMachine(t, program, chip8.WithQuirks(chip8.FlagQuirkShiftIgnoresVy))
	mustRunNCycles(t, m.cpu, 3)
	assertVxEq(t, "SHR ignores Vy", m.cpu, 0x1, 0b00000010)
	assertVxEq(t, "SHR ignores Vy flag", m.cpu, 0xF, 1)
}

func TestJumpWithOffset(t *testing.T) {
	program := []byte{
		0x60, 0x10,
		0x63, 0x20,
		// JP V0, 0x300
		0xB3, 0x00,
	}

	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 3)
	assertPcEq(t, "JP V0", m.cpu, 0x310)
	if m.cpu.I != 0 {
		t.Fatalf(`JP V0 modified I = %03X`, m.cpu.I)
	}

	m = newTestMachine(t, program, chip8.WithQuirks(chip8.FlagQuirkJumpUsesVx))
	mustRunNCycles(t, m.cpu, 3)
	assertPcEq(t, "JP Vx", m.cpu, 0x320)
}

func TestAddToIndex(t *testing.T) {
	program := []byte{
		0xAF, 0xFF,
		0x61, 0x02,
		// ADD I, V1
		0xF1, 0x1E,
	}

	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 3)
	if m.cpu.I != 0x1001 {
		t.Fatalf(`cpu.I = %X, expected 1001`, m.cpu.I)
	}
	assertVxEq(t, "ADD I overflow", m.cpu, 0xF, 1)

	m = newTestMachine(t, program, chip8.WithQuirks(chip8.FlagQuirkAddIndexIgnoresOverflow))
	mustRunNCycles(t, m.cpu, 3)
	assertVxEq(t, "ADD I overflow ignored", m.cpu, 0xF, 0)

	m = newTestMachine(t, []byte{0xA1, 0x00, 0x61, 0x02, 0xF1, 0x1E})
	mustRunNCycles(t, m.cpu, 3)
	if m.cpu.I != 0x102 {
		t.Fatalf(`cpu.I = %X, expected 102`, m.cpu.I)
	}
	assertVxEq(t, "ADD I in range", m.cpu, 0xF, 0)

	// I wraps at 16 bits but the flag still sees the overflow
	m = newTestMachine(t, []byte{0x61, 0xFF, 0xF1, 0x1E})
	m.cpu.I = 0xFFF0
	mustRunNCycles(t, m.cpu, 2)
	if m.cpu.I != 0x00EF {
		t.Fatalf(`cpu.I = %X, expected EF`, m.cpu.I)
	}
	assertVxEq(t, "ADD I wraps", m.cpu, 0xF, 1)
}

func TestStoreAndLoadRegisters(t *testing.T) {
	program := []byte{
		0x60, 0x01,
		0x61, 0x02,
		0x62, 0x03,
		0xA3, 0x00,
		// LD [I], V2
		0xF2, 0x55,
		0x60, 0x00,
		0x61, 0x00,
		0x62, 0x00,
		0xA3, 0x00,
		// LD V1, [I]
		0xF1, 0x65,
	}

	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 10)

	if !bytes.Equal(m.cpu.Memory[0x300:0x304], []byte{1, 2, 3, 0}) {
		t.Fatalf(`memory at 0x300 = %v`, m.cpu.Memory[0x300:0x304])
	}
	assertVxEq(t, "LD V0 from memory", m.cpu, 0x0, 1)
	assertVxEq(t, "LD V1 from memory", m.cpu, 0x1, 2)
	assertVxEq(t, "LD stops at Vx", m.cpu, 0x2, 0)
	if m.cpu.I != 0x300 {
		t.Fatalf(`cpu.I = %X, expected 300`, m.cpu.I)
	}

	m = newTestMachine(t, program, chip8.WithQuirks(chip8.FlagQuirkMemoryMovesIndex))
	mustRunNCycles(t, m.cpu, 5)
	if m.cpu.I != 0x302 {
		t.Fatalf(`cpu.I after LD [I], V2 = %X, expected 302`, m.cpu.I)
	}

	m = newTestMachine(t, []byte{0xA3, 0x00, 0xF3, 0x65}, chip8.WithQuirks(chip8.FlagQuirkMemoryMovesIndex))
	mustRunNCycles(t, m.cpu, 2)
	if m.cpu.I != 0x303 {
		t.Fatalf(`cpu.I after LD V3, [I] = %X, expected 303`, m.cpu.I)
	}
}

// TestFontRoundTrip points I at a glyph and copies it through V0
func TestFontRoundTrip(t *testing.T) {
	for digit := byte(0); digit < 16; digit++ {
		program := []byte{
			// V1 = digit
			0x61, digit,
			// LD F, V1
			0xF1, 0x29,
			// LD V0, [I]
			0xF0, 0x65,
			// LD [I], V0
			0xF0, 0x55,
		}
		m := newTestMachine(t, program)
		mustRunNCycles(t, m.cpu, 4)

		want := uint16(chip8.FontAddress + 5*uint16(digit))
		if m.cpu.I != want {
			t.Fatalf(`digit %X: cpu.I = %03X, expected %03X`, digit, m.cpu.I, want)
		}
		assertVxEq(t, "first glyph row", m.cpu, 0x0, chip8.Glyph(digit)[0])
		if !bytes.Equal(m.cpu.Memory[want:want+5], chip8.Glyph(digit)) {
			t.Fatalf(`digit %X: memory = %v, expected glyph %v`, digit, m.cpu.Memory[want:want+5], chip8.Glyph(digit))
		}
	}
}

func TestBinaryCodedDecimal(t *testing.T) {
	cases := map[byte][]byte{
		0:   {0, 0, 0},
		7:   {0, 0, 7},
		42:  {0, 4, 2},
		100: {1, 0, 0},
		255: {2, 5, 5},
	}

	for v, digits := range cases {
		program := []byte{
			0x63, v,
			0xA4, 0x00,
			// LD B, V3
			0xF3, 0x33,
		}
		m := newTestMachine(t, program)
		mustRunNCycles(t, m.cpu, 3)

		if !bytes.Equal(m.cpu.Memory[0x400:0x403], digits) {
			t.Fatalf(`BCD of %d = %v, expected %v`, v, m.cpu.Memory[0x400:0x403], digits)
		}
		if m.cpu.I != 0x400 {
			t.Fatalf(`LD B, Vx modified I = %03X`, m.cpu.I)
		}
	}
}

func TestRandomIsMaskedByKk(t *testing.T) {
	program := []byte{
		// RND V4, 0x0F
		0xC4, 0x0F,
	}
	m := newTestMachine(t, program, chip8.WithRandom(bytes.NewReader([]byte{0xAB})))
	mustRunNCycles(t, m.cpu, 1)

	assertVxEq(t, "RND", m.cpu, 0x4, 0x0B)
}

func TestCallAndReturn(t *testing.T) {
	program := []byte{
		// 200: CALL 0x206
		0x22, 0x06,
		// 202: V1 = 1
		0x61, 0x01,
		// 204: JP 0x204
		0x12, 0x04,
		// 206: V2 = 2
		0x62, 0x02,
		// 208: RET
		0x00, 0xEE,
	}
	m := newTestMachine(t, program)

	mustRunNCycles(t, m.cpu, 1)
	assertPcEq(t, "CALL", m.cpu, 0x206)
	if m.cpu.Stack.Len() != 1 {
		t.Fatalf(`stack length = %d, expected 1`, m.cpu.Stack.Len())
	}

	mustRunNCycles(t, m.cpu, 3)
	assertPcEq(t, "RET", m.cpu, 0x204)
	assertVxEq(t, "subroutine ran", m.cpu, 0x2, 2)
	assertVxEq(t, "returned", m.cpu, 0x1, 1)
}

func TestReturnOnEmptyStackIsFatal(t *testing.T) {
	m := newTestMachine(t, []byte{0x00, 0xEE})

	err := m.cpu.Step()
	if !errors.Is(err, chip8.ErrStackUnderflow) {
		t.Fatalf(`Step() = %v, expected %v`, err, chip8.ErrStackUnderflow)
	}

	var instErr chip8.InstructionError
	if !errors.As(err, &instErr) || instErr.Pc != 0x200 || instErr.OpCode != 0x00EE {
		t.Fatalf(`Step() = %#v, expected the instruction and its address`, err)
	}

	// The CPU refuses to continue
	if err := m.cpu.Step(); !errors.Is(err, chip8.ErrStackUnderflow) {
		t.Fatalf(`Step() after a failure = %v`, err)
	}
}

func TestCallOnFullStackIsFatal(t *testing.T) {
	// 200: CALL 0x200, forever
	m := newTestMachine(t, []byte{0x22, 0x00})

	mustRunNCycles(t, m.cpu, chip8.StackSize)
	if err := m.cpu.Step(); !errors.Is(err, chip8.ErrStackOverflow) {
		t.Fatalf(`Step() = %v, expected %v`, err, chip8.ErrStackOverflow)
	}
}

func TestUnknownOpCodes(t *testing.T) {
	for _, opCode := range [][]byte{
		{0x01, 0x23},
		{0x51, 0x21},
		{0x81, 0x28},
		{0x91, 0x2F},
		{0xE1, 0x00},
		{0xF1, 0xFF},
	} {
		m := newTestMachine(t, opCode)
		if err := m.cpu.Step(); !errors.Is(err, chip8.ErrOpCodeUnknown) {
			t.Fatalf(`Step() on %X = %v, expected %v`, opCode, err, chip8.ErrOpCodeUnknown)
		}
	}
}

func TestMachineRoutineInterpreter(t *testing.T) {
	var called uint16
	mri := func(opCode uint16, cpu *chip8.Cpu) error {
		called = opCode
		return nil
	}

	m := newTestMachine(t, []byte{0x01, 0x23}, chip8.WithMachineRoutineInterpreter(mri))
	mustRunNCycles(t, m.cpu, 1)

	if called != 0x0123 {
		t.Fatalf(`machine routine interpreter called with %04X`, called)
	}
}

func TestOutOfBoundsAccessesAreFatal(t *testing.T) {
	cases := []struct {
		name    string
		program []byte
		steps   int
	}{
		{"fetch past the end", []byte{0x1F, 0xFF}, 2},
		{"sprite read past the end", []byte{0xAF, 0xFE, 0xD0, 0x03}, 2},
		{"store past the end", []byte{0xAF, 0xFF, 0xF1, 0x55}, 2},
		{"load past the end", []byte{0xAF, 0xFF, 0xF1, 0x65}, 2},
		{"bcd past the end", []byte{0xAF, 0xFE, 0xF0, 0x33}, 2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := newTestMachine(t, c.program)

			err := runNCycles(m.cpu, c.steps)
			var rangeErr chip8.ErrAddressOutOfRange
			if !errors.As(err, &rangeErr) {
				t.Fatalf(`Step() = %v, expected an out of range error`, err)
			}
		})
	}
}

func TestWaitForKey(t *testing.T) {
	program := []byte{
		// LD V5, K
		0xF5, 0x0A,
	}
	m := newTestMachine(t, program)

	mustRunNCycles(t, m.cpu, 3)
	assertPcEq(t, "no key pressed", m.cpu, 0x200)

	m.kb.Press(0xC)
	m.kb.Press(0x9)
	mustRunNCycles(t, m.cpu, 1)
	assertPcEq(t, "key pressed", m.cpu, 0x202)
	assertVxEq(t, "lowest pressed key", m.cpu, 0x5, 0x9)
}

func TestKeySkips(t *testing.T) {
	program := []byte{
		0x60, 0x0A,
		// SKP V0
		0xE0, 0x9E,
		0x61, 0x01,
		// SKNP V0
		0xE0, 0xA1,
		0x62, 0x01,
	}

	m := newTestMachine(t, program)
	m.kb.Press(0xA)
	mustRunNCycles(t, m.cpu, 4)
	assertVxEq(t, "SKP pressed", m.cpu, 0x1, 0)
	assertVxEq(t, "SKNP pressed", m.cpu, 0x2, 1)

	m = newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 4)
	assertVxEq(t, "SKP released", m.cpu, 0x1, 1)
	assertVxEq(t, "SKNP released", m.cpu, 0x2, 0)
}

func TestDrawCollision(t *testing.T) {
	program := []byte{
		// I = 0x300, which holds 0xFF
		0xA3, 0x00,
		0x60, 0x08,
		0x61, 0x04,
		// DRW V0, V1, 1
		0xD0, 0x11,
		0x6E, 0x00,
		// DRW V0, V1, 1
		0xD0, 0x11,
	}
	m := newTestMachine(t, program)
	m.cpu.Memory[0x300] = 0xFF

	mustRunNCycles(t, m.cpu, 4)
	assertVxEq(t, "first draw", m.cpu, 0xF, 0)
	for x := 8; x < 16; x++ {
		if !m.cpu.Screen().At(m.cpu.ScreenSettings, x, 4) {
			t.Fatalf(`pixel (%d, 4) is off after the first draw`, x)
		}
	}

	mustRunNCycles(t, m.cpu, 2)
	assertVxEq(t, "second draw", m.cpu, 0xF, 1)
	for _, on := range m.cpu.Screen() {
		if on {
			t.Fatalf(`screen not blank after drawing the sprite twice`)
		}
	}
}

func TestTimers(t *testing.T) {
	program := []byte{
		0x60, 0x02,
		// LD DT, V0
		0xF0, 0x15,
		// LD ST, V0
		0xF0, 0x18,
		// LD V1, DT
		0xF1, 0x07,
	}
	m := newTestMachine(t, program)

	m.cpu.TickTimers()
	if m.cpu.Dt != 0 || m.cpu.St != 0 {
		t.Fatalf(`timers at 0 wrapped to Dt=%d St=%d`, m.cpu.Dt, m.cpu.St)
	}

	mustRunNCycles(t, m.cpu, 3)
	m.cpu.TickTimers()
	if !m.buzzer.IsPlaying || m.buzzer.Beeps != 1 {
		t.Fatalf(`buzzer not playing with St=%d`, m.cpu.St)
	}

	mustRunNCycles(t, m.cpu, 1)
	assertVxEq(t, "LD Vx, DT", m.cpu, 0x1, 1)

	m.cpu.TickTimers()
	m.cpu.TickTimers()
	if m.cpu.Dt != 0 || m.cpu.St != 0 {
		t.Fatalf(`timers did not saturate at 0: Dt=%d St=%d`, m.cpu.Dt, m.cpu.St)
	}
	if m.buzzer.IsPlaying {
		t.Fatalf(`buzzer still playing after the sound timer expired`)
	}
}

// TestClearAndJumpForever runs 00E0 followed by a jump back to it for two seconds of frames
func TestClearAndJumpForever(t *testing.T) {
	program := []byte{
		// CLS
		0x00, 0xE0,
		// JP 0x200
		0x12, 0x00,
	}
	m := newTestMachine(t, program)
	m.cpu.Screen().DrawSprite(m.cpu.ScreenSettings, 0, 0, []byte{0xFF})

	for i := 0; i < 2*int(chip8.FrameRate); i++ {
		if err := m.cpu.RunFrame(); err != nil {
			t.Fatalf(`RunFrame() returned an error %v`, err)
		}
		m.clock.Advance(time.Second / time.Duration(chip8.FrameRate))
	}

	if m.cpu.Cycles() < chip8.DefaultSpeed {
		t.Fatalf(`only %d instructions ran in two seconds`, m.cpu.Cycles())
	}
	if m.cpu.Pc != 0x200 && m.cpu.Pc != 0x202 {
		t.Fatalf(`cpu.Pc = %03X left the loop`, m.cpu.Pc)
	}

	if m.display.Renders == 0 {
		t.Fatalf(`the display was never rendered`)
	}
	for _, on := range m.display.Screen {
		if on {
			t.Fatalf(`screen not cleared`)
		}
	}
}

func TestRunFrameCatchesUpAfterAStall(t *testing.T) {
	// JP 0x200
	m := newTestMachine(t, []byte{0x12, 0x00}, chip8.WithSpeed(600))

	if err := m.cpu.RunFrame(); err != nil {
		t.Fatalf(`RunFrame() returned an error %v`, err)
	}
	if m.cpu.Cycles() != 0 {
		t.Fatalf(`first frame ran %d instructions, expected 0`, m.cpu.Cycles())
	}

	m.clock.Advance(100 * time.Millisecond)
	if err := m.cpu.RunFrame(); err != nil {
		t.Fatalf(`RunFrame() returned an error %v`, err)
	}
	if m.cpu.Cycles() != 60 {
		t.Fatalf(`stalled frame ran %d instructions, expected 60`, m.cpu.Cycles())
	}
	if m.cpu.Frames() != 2 {
		t.Fatalf(`cpu.Frames() = %d, expected 2`, m.cpu.Frames())
	}
}

func TestPausedCpuDoesNotRun(t *testing.T) {
	m := newTestMachine(t, []byte{0x12, 0x00})
	m.cpu.Stop()

	for i := 0; i < 10; i++ {
		m.clock.Advance(time.Second)
		if err := m.cpu.RunFrame(); err != nil {
			t.Fatalf(`RunFrame() returned an error %v`, err)
		}
	}
	if m.cpu.Cycles() != 0 {
		t.Fatalf(`paused cpu ran %d instructions`, m.cpu.Cycles())
	}

	// Resuming does not replay the time spent paused
	m.cpu.Start()
	if err := m.cpu.RunFrame(); err != nil {
		t.Fatalf(`RunFrame() returned an error %v`, err)
	}
	if m.cpu.Cycles() != 0 {
		t.Fatalf(`resumed cpu ran %d instructions on its first frame`, m.cpu.Cycles())
	}
}

func TestRunFrameRequiresBoot(t *testing.T) {
	cpu := chip8.NewCpu(chip8.NewMemory(), chip8.SmallScreen, chip8.NewDummyDisplay(), chip8.NewInMemoryKeyboard(), chip8.NewDummyBuzzer())

	if err := cpu.RunFrame(); !errors.Is(err, chip8.ErrCpuIsNotBooted) {
		t.Fatalf(`RunFrame() = %v, expected %v`, err, chip8.ErrCpuIsNotBooted)
	}
}

func TestResetRestoresTheProgram(t *testing.T) {
	program := []byte{
		0x60, 0x42,
		0xA2, 0x00,
		// LD [I], V0 overwrites the first instruction
		0xF0, 0x55,
	}
	m := newTestMachine(t, program)
	mustRunNCycles(t, m.cpu, 3)

	if m.cpu.Memory[0x200] != 0x42 {
		t.Fatalf(`program did not modify itself`)
	}

	if err := m.cpu.Reset(); err != nil {
		t.Fatalf(`Reset() returned an error %v`, err)
	}
	assertPcEq(t, "Reset", m.cpu, 0x200)
	assertVxEq(t, "Reset", m.cpu, 0x0, 0)
	if m.cpu.Memory[0x200] != 0x60 {
		t.Fatalf(`Reset() did not restore the program`)
	}
}

func TestHooksRunAroundCycles(t *testing.T) {
	m := newTestMachine(t, []byte{0x60, 0x01, 0x00, 0xEE})

	var before, after, failures int
	m.cpu.AddBeforeCycleHook(func(cpu *chip8.Cpu) { before++ })
	m.cpu.AddAfterCycleHook(func(cpu *chip8.Cpu) { after++ })
	m.cpu.AddErrorHook(func(cpu *chip8.Cpu) { failures++ })

	_ = runNCycles(m.cpu, 2)

	if before != 2 || after != 1 || failures != 1 {
		t.Fatalf(`hooks ran before=%d after=%d error=%d, expected 2 1 1`, before, after, failures)
	}
}
