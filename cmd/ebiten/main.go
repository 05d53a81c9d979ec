package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/spinrut/chip8"
	"github.com/spinrut/chip8/ebitengui"
	"github.com/spinrut/chip8/sound"
)

func main() {
	speed := flag.Uint("speed", chip8.DefaultSpeed, "Instructions per second.")
	scale := flag.Int("scale", ebitengui.DefaultScale, "Size of a pixel on the window.")
	debug := flag.Bool("debug", false, "Log every instruction.")
	mute := flag.Bool("mute", false, "Do not play the buzzer.")
	beepFile := flag.String("beep", "", "WAV file played in a loop instead of the square wave.")
	quirks := chip8.RegisterQuirkFlags(flag.CommandLine)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if flag.NArg() < 1 {
		slog.Error("must provide the path to a rom as an argument")
		os.Exit(2)
	}

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		slog.Error("Could not read the program", slog.Any("error", err))
		os.Exit(1)
	}

	q, err := quirks.Quirks()
	if err != nil {
		slog.Error("Invalid quirks", slog.Any("error", err))
		os.Exit(2)
	}

	var buzzer chip8.Buzzer = chip8.NewDummyBuzzer()
	if !*mute {
		buzzer, err = newBeeper(*beepFile)
		if err != nil {
			slog.Error("Could not load the beep", slog.String("path", *beepFile), slog.Any("error", err))
			os.Exit(1)
		}
	}

	game := ebitengui.NewGame(func(config *ebitengui.GameConfig) {
		config.Scale = *scale
		config.Buzzer = buzzer
		config.CpuConfigs = []chip8.CpuConfigCb{
			chip8.WithQuirks(q),
			chip8.WithSpeed(*speed),
		}
	})
	if *debug {
		chip8.NewTracer(game.Cpu, slog.Default())
	}

	if err := game.Cpu.LoadProgram(program); err != nil {
		slog.Error("Could not load the program", slog.Any("error", err))
		os.Exit(1)
	}

	if err := game.Run(); err != nil {
		slog.Error("Emulation stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func newBeeper(path string) (*sound.Beeper, error) {
	if path == "" {
		return sound.NewDefaultBeeper(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sample, err := sound.LoadSample(f, sound.DefaultSampleRate)
	if err != nil {
		return nil, err
	}

	return sound.NewBeeper(sample, sound.DefaultSampleRate), nil
}
