package chip8

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrCpuIsNotBooted = errors.New("the CPU has not been booted properly")
var ErrOpCodeUnknown = errors.New("unknown opcode")

// InstructionError wraps the error that stopped the CPU with the instruction that caused it
type InstructionError struct {
	OpCode uint16
	// Address the instruction was fetched from
	Pc uint16
	// Fetching is set when the instruction could not even be read
	Fetching bool
	Err      error
}

func (err InstructionError) Error() string {
	if err.Fetching {
		return fmt.Sprintf("fetch at PC=%03X: %v", err.Pc, err.Err)
	}

	return fmt.Sprintf("opcode=%04X (%s) at PC=%03X: %v", err.OpCode, Disassemble(err.OpCode), err.Pc, err.Err)
}

func (err InstructionError) Unwrap() error {
	return err.Err
}

// MachineRoutineInterpreter interpretes SYS calls (0nnn)
type MachineRoutineInterpreter func(opCode uint16, cpu *Cpu) error

const (
	DefaultSpeed uint = 700
	MaxSpeed     uint = 1400
	MinSpeed     uint = 5
	// FrameRate is the rate in Hz of the presentation ticks, which also decrement the timers
	FrameRate uint = 60
)

type CpuConfig struct {
	Quirks Quirks
	// Speed in instructions per second
	Speed uint
	// Source of the random bytes of Cxnn
	Random io.Reader
	// Clock used to pace the instructions
	Now func() time.Time

	MachineRoutineInterpreter MachineRoutineInterpreter
}

type CpuConfigCb func(config *CpuConfig)

func WithQuirks(q Quirks) CpuConfigCb {
	return func(config *CpuConfig) {
		config.Quirks = q
	}
}

func WithSpeed(inHz uint) CpuConfigCb {
	return func(config *CpuConfig) {
		config.Speed = inHz
	}
}

func WithRandom(r io.Reader) CpuConfigCb {
	return func(config *CpuConfig) {
		config.Random = r
	}
}

func WithClock(now func() time.Time) CpuConfigCb {
	return func(config *CpuConfig) {
		config.Now = now
	}
}

func WithMachineRoutineInterpreter(mri MachineRoutineInterpreter) CpuConfigCb {
	return func(config *CpuConfig) {
		config.MachineRoutineInterpreter = mri
	}
}

// Chip-8 CPU
type Cpu struct {
	Memory *Memory
	// V 8-bit registers
	V [16]byte
	// I 16-bit register (12-bit usable)
	I uint16
	// Delay timer register
	Dt byte
	// Sound timer register
	St byte
	// Program counter
	Pc uint16
	// Stack of return addresses
	Stack Stack

	cycles uint
	frames uint

	speedInHz uint
	pacer     *Pacer

	ScreenSettings ScreenSettings
	screen         Screen
	isScreenDirty  bool

	Display  Display
	Keyboard Keyboard
	Buzzer   Buzzer

	machineRoutineInterpreter MachineRoutineInterpreter

	quirks Quirks
	random io.Reader

	program   []byte
	isBooted  bool
	isPaused  bool
	isBuzzing bool
	lastError error

	// Hooks that run before every frame
	beforeFrameHooks []Hook
	// Hooks that run before every cycle
	beforeCycleHooks []Hook
	// Hooks that run after every cycle
	afterCycleHooks []Hook
	// Hooks that run after every frame
	afterFrameHooks []Hook
	// Hooks that run after an error
	errorHooks []Hook
}

func NewCpu(memory *Memory, screenSettings ScreenSettings, display Display, keyboard Keyboard, buzzer Buzzer, configs ...CpuConfigCb) *Cpu {
	config := &CpuConfig{
		Quirks: 0,
		Speed:  DefaultSpeed,
		Random: rand.Reader,
		Now:    time.Now,
	}
	for _, cb := range configs {
		cb(config)
	}

	cpu := &Cpu{
		Memory: memory,

		V:  [16]byte{},
		I:  0,
		Dt: 0,
		St: 0,
		Pc: StartOfProgram,

		pacer: NewPacer(config.Speed, config.Now),

		ScreenSettings: screenSettings,
		screen:         NewScreen(screenSettings),
		isScreenDirty:  true,

		Display:  display,
		Keyboard: keyboard,
		Buzzer:   buzzer,

		machineRoutineInterpreter: config.MachineRoutineInterpreter,

		quirks: config.Quirks,
		random: config.Random,

		beforeFrameHooks: make([]Hook, 0),
		beforeCycleHooks: make([]Hook, 0),
		afterCycleHooks:  make([]Hook, 0),
		afterFrameHooks:  make([]Hook, 0),
		errorHooks:       make([]Hook, 0),
	}
	cpu.SetSpeedInHz(config.Speed)

	return cpu
}

func (cpu Cpu) IsRunning() bool {
	return !cpu.isPaused
}

func (cpu Cpu) IsSoundTimerActive() bool {
	return cpu.St > 0
}

func (cpu Cpu) IsDelayTimerActive() bool {
	return cpu.Dt > 0
}

func (cpu Cpu) SoundTimer() byte {
	return cpu.St
}

func (cpu Cpu) Quirks() Quirks {
	return cpu.quirks
}

func (cpu Cpu) SpeedInHz() uint {
	return cpu.speedInHz
}

// SetSpeedInHz changes the number of instructions run per second.
// The value is clamped to [MinSpeed, MaxSpeed].
func (cpu *Cpu) SetSpeedInHz(inHz uint) {
	cpu.speedInHz = min(max(inHz, MinSpeed), MaxSpeed)
	cpu.pacer.SetRate(cpu.speedInHz)
}

func (cpu Cpu) Cycles() uint {
	return cpu.cycles
}

func (cpu Cpu) Frames() uint {
	return cpu.frames
}

// Screen returns the display buffer. It must not be modified.
func (cpu *Cpu) Screen() Screen {
	return cpu.screen
}

// LastError returns the error that stopped the CPU, if any
func (cpu Cpu) LastError() error {
	return cpu.lastError
}

// Boot initializes all the components
// If the CPU was already booted, this method is a noop
func (cpu *Cpu) Boot() error {
	if cpu.isBooted {
		return nil
	}

	if err := cpu.Display.Boot(); err != nil {
		return err
	}

	if err := cpu.Keyboard.Boot(); err != nil {
		return err
	}

	if err := cpu.Buzzer.Boot(); err != nil {
		return err
	}

	cpu.isBooted = true

	return nil
}

// LoadProgram loads the program into memory and resets the machine.
// If the program does not fit, the CPU is left untouched.
func (cpu *Cpu) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return ErrProgramDoesNotFitIntoMemory
	}

	cpu.program = make([]byte, len(program))
	copy(cpu.program, program)

	return cpu.Reset()
}

// Reset puts the machine back in the state it had right after the program was loaded
func (cpu *Cpu) Reset() error {
	if err := cpu.Memory.LoadProgram(cpu.program); err != nil {
		return err
	}

	cpu.V = [16]byte{}
	cpu.I = 0
	cpu.Dt = 0
	cpu.St = 0
	cpu.Pc = StartOfProgram
	cpu.Stack.Reset()

	cpu.frames = 0
	cpu.cycles = 0
	cpu.lastError = nil
	cpu.pacer.Resync()

	if cpu.isBuzzing {
		cpu.Buzzer.Stop()
		cpu.isBuzzing = false
	}

	cpu.clearScreen()

	return nil
}

// Start resumes the execution on the following frames
func (cpu *Cpu) Start() {
	cpu.isPaused = false
}

// Stop pauses the execution. Frames keep running but no instruction is executed and
// the timers are frozen.
func (cpu *Cpu) Stop() {
	cpu.isPaused = true
}

// LoopAtSpeed sets the speed an starts the loop
func (cpu *Cpu) LoopAtSpeed(ctx context.Context, speedInHz uint) error {
	cpu.SetSpeedInHz(speedInHz)
	return cpu.Loop(ctx)
}

// Loop runs a frame FrameRate times per second until the context is done or an
// instruction fails
func (cpu *Cpu) Loop(ctx context.Context) error {
	if !cpu.isBooted {
		return ErrCpuIsNotBooted
	}

	ticker := time.NewTicker(time.Second / time.Duration(FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := cpu.RunFrame(); err != nil {
				return err
			}
		}
	}
}

// RunFrame is the presentation tick of the machine.
// It runs as many instructions as the time elapsed since the previous frame allows,
// decrements the timers once and renders the screen if it changed.
func (cpu *Cpu) RunFrame() error {
	if !cpu.isBooted {
		return ErrCpuIsNotBooted
	}

	if cpu.lastError != nil {
		return cpu.lastError
	}

	cpu.runBeforeFrameHooks()

	if cpu.isPaused {
		cpu.pacer.Resync()
		return cpu.render()
	}

	cpu.pacer.Accumulate()
	for cpu.pacer.Next() {
		if err := cpu.Step(); err != nil {
			return err
		}
	}

	cpu.TickTimers()

	if err := cpu.render(); err != nil {
		return err
	}

	cpu.frames++
	cpu.runAfterFrameHooks()

	return nil
}

// Step executes a single instruction, even if the CPU is paused
func (cpu *Cpu) Step() error {
	if cpu.lastError != nil {
		return cpu.lastError
	}

	cpu.runBeforeCycleHooks()
	if err := cpu.executeNextInstruction(); err != nil {
		cpu.lastError = err
		cpu.runErrorHooks()
		return err
	}
	cpu.cycles++
	cpu.runAfterCycleHooks()

	return nil
}

// TickTimers decrements both timers without going below zero and drives the buzzer
func (cpu *Cpu) TickTimers() {
	if cpu.Dt > 0 {
		cpu.Dt--
	}
	if cpu.St > 0 {
		cpu.St--
	}

	if cpu.St > 0 && !cpu.isBuzzing {
		cpu.Buzzer.Play()
		cpu.isBuzzing = true
	} else if cpu.St == 0 && cpu.isBuzzing {
		cpu.Buzzer.Stop()
		cpu.isBuzzing = false
	}
}

// NextOpCode returns the instruction the CPU will execute next
func (cpu *Cpu) NextOpCode() (uint16, error) {
	return cpu.Memory.ReadWord(cpu.Pc)
}

func (cpu *Cpu) render() error {
	if !cpu.isScreenDirty {
		return nil
	}

	cpu.isScreenDirty = false
	if err := cpu.Display.Render(cpu.screen, cpu.ScreenSettings); err != nil {
		cpu.lastError = err
		cpu.runErrorHooks()
		return err
	}

	return nil
}

func (cpu *Cpu) clearScreen() {
	cpu.screen.Clear()
	cpu.isScreenDirty = true
}

func (cpu *Cpu) executeNextInstruction() error {
	pc := cpu.Pc
	opCode, err := cpu.Memory.ReadWord(pc)
	if err != nil {
		return InstructionError{Pc: pc, Fetching: true, Err: err}
	}
	cpu.Pc += 2

	if err := cpu.executeInstruction(opCode); err != nil {
		return InstructionError{OpCode: opCode, Pc: pc, Err: err}
	}

	return nil
}
