package chip8

type Hook func(cpu *Cpu)

// AddBeforeFrameHook adds a hook that runs at the start of every frame
func (cpu *Cpu) AddBeforeFrameHook(h Hook) int {
	cpu.beforeFrameHooks = append(cpu.beforeFrameHooks, h)

	return len(cpu.beforeFrameHooks)
}

// AddBeforeCycleHook adds a hook that runs before every instruction
func (cpu *Cpu) AddBeforeCycleHook(h Hook) int {
	cpu.beforeCycleHooks = append(cpu.beforeCycleHooks, h)

	return len(cpu.beforeCycleHooks)
}

// AddAfterCycleHook adds a hook that runs after every instruction that succeeded
func (cpu *Cpu) AddAfterCycleHook(h Hook) int {
	cpu.afterCycleHooks = append(cpu.afterCycleHooks, h)

	return len(cpu.afterCycleHooks)
}

// AddAfterFrameHook adds a hook that runs once the timers were updated and the screen rendered
func (cpu *Cpu) AddAfterFrameHook(h Hook) int {
	cpu.afterFrameHooks = append(cpu.afterFrameHooks, h)

	return len(cpu.afterFrameHooks)
}

// AddErrorHook adds a hook that runs when the CPU stops on an error.
// The error is available through LastError.
func (cpu *Cpu) AddErrorHook(h Hook) int {
	cpu.errorHooks = append(cpu.errorHooks, h)

	return len(cpu.errorHooks)
}

func (cpu *Cpu) runBeforeFrameHooks() {
	runHooks(cpu, cpu.beforeFrameHooks)
}

func (cpu *Cpu) runBeforeCycleHooks() {
	runHooks(cpu, cpu.beforeCycleHooks)
}

func (cpu *Cpu) runAfterCycleHooks() {
	runHooks(cpu, cpu.afterCycleHooks)
}

func (cpu *Cpu) runAfterFrameHooks() {
	runHooks(cpu, cpu.afterFrameHooks)
}

func (cpu *Cpu) runErrorHooks() {
	runHooks(cpu, cpu.errorHooks)
}

func runHooks(cpu *Cpu, hooks []Hook) {
	for _, h := range hooks {
		h(cpu)
	}
}
