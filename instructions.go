package chip8

import "io"

func (cpu *Cpu) executeInstruction(opCode uint16) error {
	x := (opCode & 0x0F00) >> 8
	y := (opCode & 0x00F0) >> 4
	n := byte(opCode & 0x000F)
	kk := byte(opCode & 0x00FF)
	nnn := opCode & 0x0FFF

	switch opCode & 0xF000 {
	case 0x0000:
		switch opCode {
		case 0x00E0:
			// CLS :: Clear the display.
			cpu.clearScreen()

		case 0x00EE:
			// RET :: Return from a subroutine.
			pc, ok := cpu.Stack.Pop()
			if !ok {
				return ErrStackUnderflow
			}
			cpu.Pc = pc

		default:
			// SYS :: Jump to a machine code routine at nnn.
			// This instruction is only used on the old computers on which Chip-8 was originally implemented.
			if cpu.machineRoutineInterpreter == nil {
				return ErrOpCodeUnknown
			}
			return cpu.machineRoutineInterpreter(opCode, cpu)
		}

	case 0x1000:
		// JP addr :: Jump to location nnn.
		cpu.Pc = nnn

	case 0x2000:
		// CALL addr :: Call subroutine at nnn.
		if err := cpu.Stack.Push(cpu.Pc); err != nil {
			return err
		}
		cpu.Pc = nnn

	case 0x3000:
		// SE Vx, byte :: Skip next instruction if Vx = kk.
		if cpu.V[x] == kk {
			cpu.Pc += 2
		}

	case 0x4000:
		// SNE Vx, byte :: Skip next instruction if Vx != kk.
		if cpu.V[x] != kk {
			cpu.Pc += 2
		}

	case 0x5000:
		// SE Vx, Vy :: Skip next instruction if Vx = Vy.
		if n != 0 {
			return ErrOpCodeUnknown
		}
		if cpu.V[x] == cpu.V[y] {
			cpu.Pc += 2
		}

	case 0x6000:
		// LD Vx, byte :: Set Vx = kk.
		cpu.V[x] = kk

	case 0x7000:
		// ADD Vx, byte :: Set Vx = Vx + kk.
		cpu.V[x] += kk

	case 0x8000:
		return cpu.executeArithmetic(x, y, n)

	case 0x9000:
		// SNE Vx, Vy :: Skip next instruction if Vx != Vy.
		if n != 0 {
			return ErrOpCodeUnknown
		}
		if cpu.V[x] != cpu.V[y] {
			cpu.Pc += 2
		}

	case 0xA000:
		// LD I, addr :: Set I = nnn.
		cpu.I = nnn

	case 0xB000:
		// JP V0, addr :: Jump to location nnn + V0 or xnn + Vx.
		if cpu.quirks.Has(FlagQuirkJumpUsesVx) {
			cpu.Pc = nnn + uint16(cpu.V[x])
		} else {
			cpu.Pc = nnn + uint16(cpu.V[0])
		}

	case 0xC000:
		// RND Vx, byte :: Set Vx = random byte AND kk.
		buff := [1]byte{}
		if _, err := io.ReadFull(cpu.random, buff[:]); err != nil {
			return err
		}
		cpu.V[x] = buff[0] & kk

	case 0xD000:
		// DRW Vx, Vy, nibble :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
		sprite, err := cpu.Memory.Slice(cpu.I, int(n))
		if err != nil {
			return err
		}
		ox, oy := int(cpu.V[x]), int(cpu.V[y])
		cpu.V[0xF] = 0
		if cpu.screen.DrawSprite(cpu.ScreenSettings, ox, oy, sprite) {
			cpu.V[0xF] = 1
		}
		cpu.isScreenDirty = true

	case 0xE000:
		switch kk {
		case 0x9E:
			// SKP Vx :: Skip next instruction if key with the value of Vx is pressed.
			if cpu.Keyboard.IsPressed(cpu.V[x]) {
				cpu.Pc += 2
			}
		case 0xA1:
			// SKNP Vx :: Skip next instruction if key with the value of Vx is not pressed.
			if !cpu.Keyboard.IsPressed(cpu.V[x]) {
				cpu.Pc += 2
			}
		default:
			return ErrOpCodeUnknown
		}

	case 0xF000:
		return cpu.executeMisc(x, kk)
	}

	return nil
}

// executeArithmetic runs the 8xyn register operations.
// Flags are computed from the operands before Vx is written and VF is always written
// last, so that VF as destination still ends up holding the flag.
func (cpu *Cpu) executeArithmetic(x, y uint16, n byte) error {
	vx, vy := cpu.V[x], cpu.V[y]

	switch n {
	case 0x0:
		// LD Vx, Vy :: Set Vx = Vy.
		cpu.V[x] = vy

	case 0x1:
		// OR Vx, Vy :: Set Vx = Vx OR Vy.
		cpu.V[x] = vx | vy

	case 0x2:
		// AND Vx, Vy :: Set Vx = Vx AND Vy.
		cpu.V[x] = vx & vy

	case 0x3:
		// XOR Vx, Vy :: Set Vx = Vx XOR Vy.
		cpu.V[x] = vx ^ vy

	case 0x4:
		// ADD Vx, Vy :: Set Vx = Vx + Vy, set VF = carry.
		r := uint16(vx) + uint16(vy)
		cpu.V[x] = byte(r)
		cpu.V[0xF] = byte(r >> 8)

	case 0x5:
		// SUB Vx, Vy :: Set Vx = Vx - Vy, set VF = NOT borrow.
		cpu.V[x] = vx - vy
		cpu.V[0xF] = bool2byte(vx >= vy)

	case 0x6:
		// SHR Vx {, Vy} :: Set Vx = Vy SHR 1.
		if !cpu.quirks.Has(FlagQuirkShiftIgnoresVy) {
			vx = vy
		}
		cpu.V[x] = vx >> 1
		cpu.V[0xF] = vx & 0b00000001

	case 0x7:
		// SUBN Vx, Vy :: Set Vx = Vy - Vx, set VF = NOT borrow.
		cpu.V[x] = vy - vx
		cpu.V[0xF] = bool2byte(vy >= vx)

	case 0xE:
		// SHL Vx {, Vy} :: Set Vx = Vy SHL 1.
		if !cpu.quirks.Has(FlagQuirkShiftIgnoresVy) {
			vx = vy
		}
		cpu.V[x] = vx << 1
		cpu.V[0xF] = (vx & 0b10000000) >> 7

	default:
		return ErrOpCodeUnknown
	}

	return nil
}

func (cpu *Cpu) executeMisc(x uint16, kk byte) error {
	switch kk {
	case 0x07:
		// LD Vx, DT :: Set Vx = delay timer value.
		cpu.V[x] = cpu.Dt

	case 0x0A:
		// LD Vx, K :: Wait for a key press, store the value of the key in Vx.
		// Without a key the instruction is fetched again on the next cycle.
		k, pressed := FirstPressed(cpu.Keyboard)
		if !pressed {
			cpu.Pc -= 2
			return nil
		}
		cpu.V[x] = k

	case 0x15:
		// LD DT, Vx :: Set delay timer = Vx.
		cpu.Dt = cpu.V[x]

	case 0x18:
		// LD ST, Vx :: Set sound timer = Vx.
		cpu.St = cpu.V[x]

	case 0x1E:
		// ADD I, Vx :: Set I = I + Vx.
		sum := uint32(cpu.I) + uint32(cpu.V[x])
		cpu.I = uint16(sum)
		if !cpu.quirks.Has(FlagQuirkAddIndexIgnoresOverflow) && sum > 0x0FFF {
			cpu.V[0xF] = 1
		}

	case 0x29:
		// LD F, Vx :: Set I = location of sprite for digit Vx.
		cpu.I = FontAddress + FontGlyphSize*uint16(cpu.V[x]&0x0F)

	case 0x33:
		// LD B, Vx :: Store BCD representation of Vx in memory locations I, I+1, and I+2.
		dst, err := cpu.Memory.Slice(cpu.I, 3)
		if err != nil {
			return err
		}
		vx := cpu.V[x]
		dst[0] = vx / 100
		dst[1] = (vx / 10) % 10
		dst[2] = vx % 10

	case 0x55:
		// LD [I], Vx :: Store registers V0 through Vx in memory starting at location I.
		dst, err := cpu.Memory.Slice(cpu.I, int(x)+1)
		if err != nil {
			return err
		}
		copy(dst, cpu.V[:x+1])
		if cpu.quirks.Has(FlagQuirkMemoryMovesIndex) {
			cpu.I += x
		}

	case 0x65:
		// LD Vx, [I] :: Read registers V0 through Vx from memory starting at location I.
		src, err := cpu.Memory.Slice(cpu.I, int(x)+1)
		if err != nil {
			return err
		}
		copy(cpu.V[:x+1], src)
		if cpu.quirks.Has(FlagQuirkMemoryMovesIndex) {
			cpu.I += x
		}

	default:
		return ErrOpCodeUnknown
	}

	return nil
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
