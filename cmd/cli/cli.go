package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spinrut/chip8"
	"github.com/spinrut/chip8/sound"
	"github.com/spinrut/chip8/terminal"
	"github.com/spinrut/chip8/web"
)

func main() {
	speed := flag.Uint("speed", chip8.DefaultSpeed, fmt.Sprintf("Instructions per second, in the range [%d, %d].", chip8.MinSpeed, chip8.MaxSpeed))
	debug := flag.Bool("debug", false, "Log every instruction to stderr.")
	noTerm := flag.Bool("noterm", false, "Turn off the terminal display of the emulator.")
	disasm := flag.Bool("disasm", false, "Print the disassembled program and exit.")
	beep := flag.Bool("beep", false, "Play the buzzer on the default audio device.")
	record := flag.String("record", "", "Record the buzzer to this WAV file.")
	stats := flag.String("stats", "", "Serve the runtime stats of the process on this address.")
	quirks := chip8.RegisterQuirkFlags(flag.CommandLine)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "must provide the path to a rom as an argument")
		flag.Usage()
		os.Exit(2)
	}

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		slog.Error("Could not read the program", slog.Any("error", err))
		os.Exit(1)
	}

	if *disasm {
		fmt.Print(chip8.DisassembleProgram(program))
		return
	}

	q, err := quirks.Quirks()
	if err != nil {
		slog.Error("Invalid quirks", slog.Any("error", err))
		os.Exit(2)
	}

	if err := run(program, q, *speed, *noTerm, *beep, *debug, *record, *stats); err != nil {
		slog.Error("Emulation stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(program []byte, q chip8.Quirks, speed uint, noTerm, beep, debug bool, record, stats string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if stats != "" {
		web.LaunchStats(stats)
	}

	kb := terminal.NewKeyboard(chip8.DefaultKeyboardLayout)
	kb.OnInterrupt = cancel
	defer kb.Close()

	var d chip8.Display = terminal.NewDisplay(chip8.SmallScreen)
	if noTerm {
		d = chip8.NewInMemoryDisplay()
	}

	var b chip8.Buzzer = chip8.NewDummyBuzzer()
	if beep {
		beeper := sound.NewDefaultBeeper()
		defer beeper.Close()
		b = beeper
	}

	cpu := chip8.NewCpu(chip8.NewMemory(), chip8.SmallScreen, d, kb, b,
		chip8.WithQuirks(q),
		chip8.WithSpeed(speed),
	)
	if debug {
		chip8.NewTracer(cpu, slog.Default())
	}

	if record != "" {
		rec := sound.NewDefaultRecorder()
		cpu.AddAfterFrameHook(rec.Hook)
		defer func() {
			if err := rec.Save(record); err != nil {
				slog.Error("Could not save the recording", slog.String("path", record), slog.Any("error", err))
				return
			}
			slog.Info("Recording saved", slog.String("path", record), slog.Duration("duration", rec.Duration()))
		}()
	}

	if err := cpu.LoadProgram(program); err != nil {
		return err
	}
	if err := cpu.Boot(); err != nil {
		return err
	}

	slog.Info("Running", slog.Uint64("speed", uint64(cpu.SpeedInHz())), slog.String("quirks", q.String()))

	return cpu.Loop(ctx)
}
