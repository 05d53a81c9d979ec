package web

import (
	"encoding/binary"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/spinrut/chip8"
)

var upgrader = websocket.Upgrader{} // use default options

func (server *Server) setWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket != nil {
		server.socket.Close()
	}
	server.socket = conn
}

func (server *Server) unsetWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket == conn {
		server.socket = nil
	}
}

// Render implements chip8.Display.
// The screen is sent packed, eight pixels per byte. A browser that went away is
// dropped without stopping the CPU.
func (server *Server) Render(screen chip8.Screen, settings chip8.ScreenSettings) error {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket == nil {
		return nil
	}

	if err := server.socket.WriteMessage(websocket.BinaryMessage, screen.Pack()); err != nil {
		slog.Warn("Dropping display connection", slog.Any("error", err))
		server.socket.Close()
		server.socket = nil
	}

	return nil
}

// handleDisplay streams the screen and reads the keypad state, two bytes big-endian,
// key 0 being the most significant bit
func (server *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Could not upgrade the display connection", slog.Any("error", err))
		return
	}
	defer conn.Close()

	slog.Info("Connecting to display")
	server.setWs(conn)
	defer server.unsetWs(conn)

	// the new client needs the whole screen, not only the next change
	err = server.do(r.Context(), func(cpu *chip8.Cpu) error {
		return server.Render(cpu.Screen(), cpu.ScreenSettings)
	})
	if err != nil {
		return
	}

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			slog.Info("Disconnecting from display")
			server.Set(0)
			return
		}

		if kind != websocket.BinaryMessage || len(msg) != 2 {
			slog.Warn("Ignoring keyboard message", slog.Int("length", len(msg)))
			continue
		}

		server.Set(chip8.KeyboardState(binary.BigEndian.Uint16(msg)))
	}
}
