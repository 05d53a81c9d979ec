package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/spinrut/chip8"
	"github.com/spinrut/chip8/gui"
)

func main() {
	autostart := flag.Bool("start", false, "Starts the console automatically if there is a program loaded.")
	debug := flag.Bool("debug", false, "Log every instruction.")
	mute := flag.Bool("mute", false, "Do not play the buzzer.")
	initialSpeed := flag.Uint("speed", chip8.DefaultSpeed, fmt.Sprintf("The starting speed of the CPU in Hz. It has to be in the range [%d, %d].", chip8.MinSpeed, chip8.MaxSpeed))
	quirks := chip8.RegisterQuirkFlags(flag.CommandLine)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	q, err := quirks.Quirks()
	if err != nil {
		slog.Error("Invalid quirks", slog.Any("error", err))
		os.Exit(2)
	}

	app := gui.NewConsoleApp(func(config *gui.AppConfig) {
		config.Speed = *initialSpeed
		config.Quirks = q
		config.UseDebugger = *debug
		if *mute {
			config.Buzzer = chip8.NewDummyBuzzer()
		}
	})

	if flag.NArg() > 0 {
		app.Load(flag.Arg(0))
	}

	if err := app.Run(*autostart); err != nil {
		slog.Error("Could not start the console", slog.Any("error", err))
		os.Exit(1)
	}
}
