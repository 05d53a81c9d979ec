package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spinrut/chip8"
	"github.com/spinrut/chip8/web"
)

func main() {
	port := flag.Int("port", 9999, "The port of the server.")
	speed := flag.Uint("speed", chip8.DefaultSpeed, "Speed in instructions per second.")
	static := flag.String("static", "./static", "Directory served on /.")
	debug := flag.Bool("debug", false, "Serve the register stream on /debugger and log at debug level.")
	stats := flag.String("stats", "", "Serve the runtime stats of the process on this address.")
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

	if *stats != "" {
		web.LaunchStats(*stats)
	}

	server := web.NewServer(chip8.NewMemory(), func(config *web.ServerConfig) {
		config.UseDebugger = *debug
		config.StaticDir = *static
		config.CpuConfigs = []chip8.CpuConfigCb{
			chip8.WithQuirks(q),
			chip8.WithSpeed(*speed),
		}
	})
	if err := server.LoadProgram(program); err != nil {
		slog.Error("Could not load the program", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := server.ListenAndServe(ctx, fmt.Sprintf(":%d", *port)); err != nil {
		slog.Error("Server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
