package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/spinrut/chip8"
)

// HttpDebugger streams the registers of the CPU to a websocket client
type HttpDebugger struct {
	Cpu           *chip8.Cpu
	CurrentOpCode uint16

	// SendEvery sends one state out of SendEvery cycles
	SendEvery int
	send      chan []byte
}

// NewHttpDebugger creates a new debugger and registers its hooks.
// States are dropped when the client does not keep up.
func NewHttpDebugger(cpu *chip8.Cpu) *HttpDebugger {
	deb := &HttpDebugger{
		Cpu:           cpu,
		CurrentOpCode: 0,
		SendEvery:     1,
		send:          make(chan []byte, 64),
	}

	cpu.AddBeforeCycleHook(deb.beforeCycle)
	cpu.AddAfterCycleHook(deb.afterCycle)
	cpu.AddErrorHook(deb.publish)

	return deb
}

func (d *HttpDebugger) handle(server *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Connecting to debugger")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Could not upgrade the debugger connection", slog.Any("error", err))
			return
		}
		defer conn.Close()

		var first []byte
		err = server.do(r.Context(), func(cpu *chip8.Cpu) error {
			d.CurrentOpCode, _ = cpu.NextOpCode()
			first = d.FormatAsEvent(cpu)
			return nil
		})
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, first); err != nil {
			return
		}

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		slog.Info("Listening for events")
		for {
			select {
			case event := <-d.send:
				if err := conn.WriteMessage(websocket.BinaryMessage, event); err != nil {
					slog.Error("Error writing debugger message", slog.Any("error", err))
					return
				}

			case <-closed:
				return

			case <-r.Context().Done():
				return
			}
		}
	}
}

func (d *HttpDebugger) beforeCycle(cpu *chip8.Cpu) {
	d.CurrentOpCode, _ = cpu.NextOpCode()
}

func (d *HttpDebugger) afterCycle(cpu *chip8.Cpu) {
	if cpu.Cycles()%uint(max(d.SendEvery, 1)) == 0 {
		d.publish(cpu)
	}
}

func (d *HttpDebugger) publish(cpu *chip8.Cpu) {
	select {
	case d.send <- d.FormatAsEvent(cpu):
	default:
	}
}

// FormatAsEvent encodes the state of the CPU:
// opcode(2) pc(2) V0..VF(16) I(2) sp(1) stack(16*2) dt(1) st(1) width(1) height(1).
// Words are big-endian.
func (d HttpDebugger) FormatAsEvent(cpu *chip8.Cpu) []byte {
	buf := make([]byte, 0, 64)

	buf = append(buf, byte((d.CurrentOpCode&0xFF00)>>8))
	buf = append(buf, byte((d.CurrentOpCode&0x00FF)>>0))

	buf = append(buf, byte((cpu.Pc&0xFF00)>>8))
	buf = append(buf, byte((cpu.Pc&0x00FF)>>0))
	buf = append(buf, cpu.V[:]...)
	buf = append(buf, byte((cpu.I&0xFF00)>>8))
	buf = append(buf, byte((cpu.I&0x00FF)>>0))

	entries := cpu.Stack.Entries()
	buf = append(buf, byte(len(entries)))
	for i := 0; i < chip8.StackSize; i++ {
		var b uint16
		if i < len(entries) {
			b = entries[i]
		}
		buf = append(buf, byte((b&0xFF00)>>8))
		buf = append(buf, byte((b&0x00FF)>>0))
	}
	buf = append(buf, cpu.Dt)
	buf = append(buf, cpu.St)
	buf = append(buf, byte(cpu.ScreenSettings.Width))
	buf = append(buf, byte(cpu.ScreenSettings.Height))

	return buf
}
