package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spinrut/chip8"
)

var ErrServerStopped = errors.New("the server is not running")

// command runs on the goroutine that owns the CPU
type command struct {
	run  func(cpu *chip8.Cpu) error
	done chan error
}

// Server exposes a CPU over HTTP.
// It is the display and the keyboard of the CPU: the screen is pushed to the browser
// through a websocket and the browser sends back the state of its keypad.
type Server struct {
	*chip8.InMemoryKeyboard

	cpu      *chip8.Cpu
	debugger *HttpDebugger

	staticDir string

	socket  *websocket.Conn
	wsMutex sync.Mutex

	commands chan command
}

type ServerConfig struct {
	ScreenSettings chip8.ScreenSettings
	UseDebugger    bool
	// StaticDir is served on /
	StaticDir  string
	Buzzer     chip8.Buzzer
	CpuConfigs []chip8.CpuConfigCb
}
type ServerConfigCb func(config *ServerConfig)

func NewServer(mem *chip8.Memory, configs ...ServerConfigCb) *Server {
	config := &ServerConfig{
		ScreenSettings: chip8.SmallScreen,
		UseDebugger:    false,
		StaticDir:      "./static",
		Buzzer:         chip8.NewDummyBuzzer(),
	}
	for _, cb := range configs {
		cb(config)
	}

	s := &Server{
		InMemoryKeyboard: chip8.NewInMemoryKeyboard(),

		staticDir: config.StaticDir,
		commands:  make(chan command),
	}

	s.cpu = chip8.NewCpu(mem, config.ScreenSettings, s, s, config.Buzzer, config.CpuConfigs...)
	if config.UseDebugger {
		s.debugger = NewHttpDebugger(s.cpu)
	}

	return s
}

// Boot implements chip8.Display and chip8.Keyboard.
func (server *Server) Boot() error {
	return nil
}

// LoadProgram loads the program into memory and sets the PC to the start-of-program address.
// It must be called before Run.
func (server *Server) LoadProgram(program []byte) error {
	return server.cpu.LoadProgram(program)
}

// Run owns the CPU: it runs the frames and the commands sent by the HTTP handlers until
// the context is done. The CPU starts paused.
func (server *Server) Run(ctx context.Context) error {
	if err := server.cpu.Boot(); err != nil {
		return err
	}
	server.cpu.Stop()

	ticker := time.NewTicker(time.Second / time.Duration(chip8.FrameRate))
	defer ticker.Stop()

	halted := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case cmd := <-server.commands:
			cmd.done <- cmd.run(server.cpu)
			halted = server.cpu.LastError() != nil

		case <-ticker.C:
			if halted {
				continue
			}
			if err := server.cpu.RunFrame(); err != nil {
				slog.Error("CPU stopped", slog.Any("error", err))
				server.cpu.Stop()
				halted = true
			}
		}
	}
}

// do runs fn on the CPU goroutine and waits for it
func (server *Server) do(ctx context.Context, fn func(cpu *chip8.Cpu) error) error {
	cmd := command{run: fn, done: make(chan error, 1)}

	select {
	case server.commands <- cmd:
	case <-ctx.Done():
		return ErrServerStopped
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ErrServerStopped
	}
}

// Handler returns the routes of the server
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/", http.FileServer(http.Dir(server.staticDir)))

	mux.HandleFunc("/start", server.control("Starting", func(cpu *chip8.Cpu) error {
		cpu.Start()
		return nil
	}))
	mux.HandleFunc("/stop", server.control("Stopping", func(cpu *chip8.Cpu) error {
		cpu.Stop()
		return nil
	}))
	mux.HandleFunc("/reset", server.control("Stopping and resetting", func(cpu *chip8.Cpu) error {
		cpu.Stop()
		return cpu.Reset()
	}))
	mux.HandleFunc("/step", server.control("Single step", func(cpu *chip8.Cpu) error {
		cpu.Stop()
		return cpu.Step()
	}))
	mux.HandleFunc("/speed", server.handleSpeed)
	mux.HandleFunc("/display", server.handleDisplay)

	if server.debugger != nil {
		mux.HandleFunc("/debugger", server.debugger.handle(server))
	}

	return mux
}

// ListenAndServe runs the CPU and serves it on addr until the context is done
func (server *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- server.Run(ctx)
		cancel()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-runErr
}

func setHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

	w.Header().Set("Cache-Control", "no-cache")
}

func (server *Server) control(msg string, fn func(cpu *chip8.Cpu) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setHeaders(w)

		slog.Info(msg)
		if err := server.do(r.Context(), fn); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (server *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	setHeaders(w)

	hz, err := strconv.ParseUint(r.URL.Query().Get("hz"), 10, 32)
	if err != nil {
		http.Error(w, "hz must be a positive integer", http.StatusBadRequest)
		return
	}

	var applied uint
	err = server.do(r.Context(), func(cpu *chip8.Cpu) error {
		cpu.SetSpeedInHz(uint(hz))
		applied = cpu.SpeedInHz()
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Speed changed", slog.Uint64("hz", uint64(applied)))
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(strconv.FormatUint(uint64(applied), 10)))
}
