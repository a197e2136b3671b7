package cpu

// execute dispatches a decoded opcode to its handler and returns any extra
// cycles beyond the table's base count (branch-taken, page-crossing).
// Handlers close over the CPU's resolved address; load/store/ALU ops share
// the real addressing mode except where the opcode intrinsically targets
// the accumulator.
func (c *CPU) execute(opcode uint8, mode AddressingMode, addr uint16, pageCrossed bool) uint8 {
	var extra uint8

	switch opcode {
	// Load
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1:
		c.A = c.bus.Read(addr)
		c.setZN(c.A)
		extra += readPageCrossBonus(opcode, pageCrossed)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE:
		c.X = c.bus.Read(addr)
		c.setZN(c.X)
		extra += readPageCrossBonus(opcode, pageCrossed)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC:
		c.Y = c.bus.Read(addr)
		c.setZN(c.Y)
		extra += readPageCrossBonus(opcode, pageCrossed)

	// Store
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91:
		c.bus.Write(addr, c.A)
	case 0x86, 0x96, 0x8E:
		c.bus.Write(addr, c.X)
	case 0x84, 0x94, 0x8C:
		c.bus.Write(addr, c.Y)

	// Arithmetic
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71:
		c.adc(c.bus.Read(addr))
		extra += readPageCrossBonus(opcode, pageCrossed)
	case 0xE9, 0xEB, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1: // 0xEB unofficial
		c.sbc(c.bus.Read(addr))
		extra += readPageCrossBonus(opcode, pageCrossed)

	// Logical
	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31:
		c.A &= c.bus.Read(addr)
		c.setZN(c.A)
		extra += readPageCrossBonus(opcode, pageCrossed)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11:
		c.A |= c.bus.Read(addr)
		c.setZN(c.A)
		extra += readPageCrossBonus(opcode, pageCrossed)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51:
		c.A ^= c.bus.Read(addr)
		c.setZN(c.A)
		extra += readPageCrossBonus(opcode, pageCrossed)

	// Shift/rotate, accumulator forms
	case 0x0A:
		c.setFlag(flagC, c.A&0x80 != 0)
		c.A <<= 1
		c.setZN(c.A)
	case 0x4A:
		c.setFlag(flagC, c.A&0x01 != 0)
		c.A >>= 1
		c.setZN(c.A)
	case 0x2A:
		old := c.GetFlag(flagC)
		c.setFlag(flagC, c.A&0x80 != 0)
		c.A <<= 1
		if old {
			c.A |= 0x01
		}
		c.setZN(c.A)
	case 0x6A:
		old := c.GetFlag(flagC)
		c.setFlag(flagC, c.A&0x01 != 0)
		c.A >>= 1
		if old {
			c.A |= 0x80
		}
		c.setZN(c.A)

	// Shift/rotate, memory forms
	case 0x06, 0x16, 0x0E, 0x1E:
		c.asl(addr)
	case 0x46, 0x56, 0x4E, 0x5E:
		c.lsr(addr)
	case 0x26, 0x36, 0x2E, 0x3E:
		c.rol(addr)
	case 0x66, 0x76, 0x6E, 0x7E:
		c.ror(addr)

	// Compare
	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1:
		c.compare(c.A, c.bus.Read(addr))
		extra += readPageCrossBonus(opcode, pageCrossed)
	case 0xE0, 0xE4, 0xEC:
		c.compare(c.X, c.bus.Read(addr))
	case 0xC0, 0xC4, 0xCC:
		c.compare(c.Y, c.bus.Read(addr))

	// Increment/decrement
	case 0xE6, 0xF6, 0xEE, 0xFE:
		v := c.bus.Read(addr) + 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case 0xC6, 0xD6, 0xCE, 0xDE:
		v := c.bus.Read(addr) - 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case 0xE8:
		c.X++
		c.setZN(c.X)
	case 0xCA:
		c.X--
		c.setZN(c.X)
	case 0xC8:
		c.Y++
		c.setZN(c.Y)
	case 0x88:
		c.Y--
		c.setZN(c.Y)

	// Transfer
	case 0xAA:
		c.X = c.A
		c.setZN(c.X)
	case 0x8A:
		c.A = c.X
		c.setZN(c.A)
	case 0xA8:
		c.Y = c.A
		c.setZN(c.Y)
	case 0x98:
		c.A = c.Y
		c.setZN(c.A)
	case 0xBA:
		c.X = c.SP
		c.setZN(c.X)
	case 0x9A:
		c.SP = c.X

	// Stack
	case 0x48: // PHA
		c.push(c.A)
	case 0x68: // PLA
		c.A = c.pop()
		c.setZN(c.A)
	case 0x08: // PHP: B and unused always set on the pushed byte
		c.push(c.P | flagB | flagU)
	case 0x28: // PLP: B cleared, unused forced set on the restored byte
		c.P = (c.pop() &^ flagB) | flagU

	// Flags
	case 0x18:
		c.setFlag(flagC, false)
	case 0x38:
		c.setFlag(flagC, true)
	case 0x58:
		c.setFlag(flagI, false)
	case 0x78:
		c.setFlag(flagI, true)
	case 0xB8:
		c.setFlag(flagV, false)
	case 0xD8:
		c.setFlag(flagD, false)
	case 0xF8:
		c.setFlag(flagD, true)

	// Control flow
	case 0x4C, 0x6C: // JMP
		c.PC = addr
	case 0x20: // JSR pushes PC+2-1; PC already advanced past the operand.
		c.pushWord(c.PC - 1)
		c.PC = addr
	case 0x60: // RTS
		c.PC = c.popWord() + 1
	case 0x40: // RTI
		c.P = (c.pop() &^ flagB) | flagU
		c.PC = c.popWord()

	// Branches (no page-cross penalty modeled per spec)
	case 0x90:
		extra += c.branch(!c.GetFlag(flagC), addr)
	case 0xB0:
		extra += c.branch(c.GetFlag(flagC), addr)
	case 0xD0:
		extra += c.branch(!c.GetFlag(flagZ), addr)
	case 0xF0:
		extra += c.branch(c.GetFlag(flagZ), addr)
	case 0x10:
		extra += c.branch(!c.GetFlag(flagN), addr)
	case 0x30:
		extra += c.branch(c.GetFlag(flagN), addr)
	case 0x50:
		extra += c.branch(!c.GetFlag(flagV), addr)
	case 0x70:
		extra += c.branch(c.GetFlag(flagV), addr)

	// Misc
	case 0x24, 0x2C: // BIT
		v := c.bus.Read(addr)
		c.setFlag(flagZ, c.A&v == 0)
		c.setFlag(flagN, v&0x80 != 0)
		c.setFlag(flagV, v&0x40 != 0)
	case 0x00: // BRK
		c.brk()

	// Unofficial NOPs: all forms just consume the operand, if any.
	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA,
		0x80, 0x82, 0x89, 0xC2, 0xE2,
		0x04, 0x44, 0x64, 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4,
		0x0C, 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		if mode == AbsoluteX {
			extra += readPageCrossBonus(opcode, pageCrossed)
		}

	// Unofficial: LAX = LDA+LDX
	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF:
		c.A = c.bus.Read(addr)
		c.X = c.A
		c.setZN(c.A)
		extra += readPageCrossBonus(opcode, pageCrossed)

	// Unofficial: SAX stores A & X
	case 0x83, 0x87, 0x8F, 0x97:
		c.bus.Write(addr, c.A&c.X)

	// Unofficial: DCP = DEC+CMP
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDF, 0xDB:
		v := c.bus.Read(addr) - 1
		c.bus.Write(addr, v)
		c.compare(c.A, v)

	// Unofficial: ISB (ISC) = INC+SBC
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFF, 0xFB:
		v := c.bus.Read(addr) + 1
		c.bus.Write(addr, v)
		c.sbc(v)

	// Unofficial: SLO = ASL+ORA
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1F, 0x1B:
		v := c.bus.Read(addr)
		c.setFlag(flagC, v&0x80 != 0)
		v <<= 1
		c.bus.Write(addr, v)
		c.A |= v
		c.setZN(c.A)

	// Unofficial: RLA = ROL+AND
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3F, 0x3B:
		v := c.bus.Read(addr)
		old := c.GetFlag(flagC)
		c.setFlag(flagC, v&0x80 != 0)
		v <<= 1
		if old {
			v |= 0x01
		}
		c.bus.Write(addr, v)
		c.A &= v
		c.setZN(c.A)

	// Unofficial: SRE = LSR+EOR
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5F, 0x5B:
		v := c.bus.Read(addr)
		c.setFlag(flagC, v&0x01 != 0)
		v >>= 1
		c.bus.Write(addr, v)
		c.A ^= v
		c.setZN(c.A)

	// Unofficial: RRA = ROR+ADC
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7F, 0x7B:
		v := c.bus.Read(addr)
		old := c.GetFlag(flagC)
		c.setFlag(flagC, v&0x01 != 0)
		v >>= 1
		if old {
			v |= 0x80
		}
		c.bus.Write(addr, v)
		c.adc(v)
	}

	return extra
}

// adc implements A := A + M + C with N, V, Z, C updated. V is set when the
// sign of both operands agrees but differs from the sign of the result.
func (c *CPU) adc(value uint8) {
	carry := uint16(0)
	if c.GetFlag(flagC) {
		carry = 1
	}
	result := uint16(c.A) + uint16(value) + carry
	c.setFlag(flagV, (c.A^uint8(result))&0x80 != 0 && (c.A^value)&0x80 == 0)
	c.setFlag(flagC, result > 0xFF)
	c.A = uint8(result)
	c.setZN(c.A)
}

// sbc is implemented as A + (~M) + C, per spec.md §4.2.
func (c *CPU) sbc(value uint8) {
	c.adc(^value)
}

func (c *CPU) asl(addr uint16) {
	v := c.bus.Read(addr)
	c.setFlag(flagC, v&0x80 != 0)
	v <<= 1
	c.bus.Write(addr, v)
	c.setZN(v)
}

func (c *CPU) lsr(addr uint16) {
	v := c.bus.Read(addr)
	c.setFlag(flagC, v&0x01 != 0)
	v >>= 1
	c.bus.Write(addr, v)
	c.setZN(v)
}

func (c *CPU) rol(addr uint16) {
	v := c.bus.Read(addr)
	old := c.GetFlag(flagC)
	c.setFlag(flagC, v&0x80 != 0)
	v <<= 1
	if old {
		v |= 0x01
	}
	c.bus.Write(addr, v)
	c.setZN(v)
}

func (c *CPU) ror(addr uint16) {
	v := c.bus.Read(addr)
	old := c.GetFlag(flagC)
	c.setFlag(flagC, v&0x01 != 0)
	v >>= 1
	if old {
		v |= 0x80
	}
	c.bus.Write(addr, v)
	c.setZN(v)
}

// compare sets C iff reg >= value (unsigned), and N/Z from reg-value mod 256.
func (c *CPU) compare(reg, value uint8) {
	c.setFlag(flagC, reg >= value)
	c.setZN(reg - value)
}

// branch applies a relative branch if taken, returning the cycle bonus.
func (c *CPU) branch(taken bool, addr uint16) uint8 {
	if !taken {
		return 0
	}
	c.PC = addr
	return 1
}

// brk implements spec.md §4.2: one extra padding byte, push PC and P (with
// B set), set I, vector through 0xFFFE (the same vector serviceIRQ uses).
func (c *CPU) brk() {
	c.PC++
	c.pushWord(c.PC)
	c.push(c.P | flagB | flagU)
	c.setFlag(flagI, true)
	low := uint16(c.bus.Read(irqVector))
	high := uint16(c.bus.Read(irqVector + 1))
	c.PC = high<<8 | low
}

// readPageCrossBonus returns 1 for read-type opcodes whose indexed
// addressing crossed a page boundary, per spec.md §4's cycle model.
func readPageCrossBonus(opcode uint8, crossed bool) uint8 {
	if !crossed {
		return 0
	}
	switch opcode {
	case 0xBD, 0xB9, 0xB1, 0xBE, 0xBC, 0x7D, 0x79, 0x71, 0x3D, 0x39, 0x31,
		0x1D, 0x19, 0x11, 0x5D, 0x59, 0x51, 0xDD, 0xD9, 0xD1,
		0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC,
		0xBF, 0xB3:
		return 1
	}
	return 0
}
