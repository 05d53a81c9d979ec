package chip8

import (
	"context"
	"fmt"
	"log/slog"
)

// Tracer logs every executed instruction at debug level
type Tracer struct {
	Logger *slog.Logger

	opCode uint16
	pc     uint16
}

// NewTracer creates a tracer and registers its hooks on the cpu
func NewTracer(cpu *Cpu, logger *slog.Logger) *Tracer {
	tr := &Tracer{
		Logger: logger,
	}

	cpu.AddBeforeCycleHook(tr.beforeCycle)
	cpu.AddAfterCycleHook(tr.afterCycle)
	cpu.AddErrorHook(tr.onError)

	return tr
}

func (tr *Tracer) beforeCycle(cpu *Cpu) {
	tr.pc = cpu.Pc
	tr.opCode, _ = cpu.NextOpCode()
}

func (tr *Tracer) afterCycle(cpu *Cpu) {
	if !tr.Logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	tr.Logger.Debug("Cycle ran",
		slog.Uint64("cycle", uint64(cpu.Cycles())),
		slog.String("pc", fmt.Sprintf("%03X", tr.pc)),
		slog.String("opcode", fmt.Sprintf("%04X", tr.opCode)),
		slog.String("instruction", Disassemble(tr.opCode)),
		slog.String("i", fmt.Sprintf("%03X", cpu.I)),
		slog.Any("v", cpu.V),
	)
}

func (tr *Tracer) onError(cpu *Cpu) {
	tr.Logger.Error("CPU stopped", slog.Any("error", cpu.LastError()))
}
