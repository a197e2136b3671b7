// Package cpu implements the MOS 6502-derived CPU at the heart of the NES.
package cpu

// AddressingMode identifies how an instruction's operand address is formed.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// Status register bit masks. Bit layout is N V - B D I Z C.
const (
	flagC uint8 = 1 << 0
	flagZ uint8 = 1 << 1
	flagI uint8 = 1 << 2
	flagD uint8 = 1 << 3
	flagB uint8 = 1 << 4
	flagU uint8 = 1 << 5 // unused, always reads 1 on the stack
	flagV uint8 = 1 << 6
	flagN uint8 = 1 << 7
)

const (
	stackBase   = 0x0100
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// Bus is the CPU's view of the rest of the machine: ordinary memory-mapped
// access plus the cycle and interrupt plumbing described in spec.md §4.4/4.3.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// Tick informs the bus that the CPU consumed n cycles; the bus advances
	// the APU and PPU accordingly and may invoke the frame callback.
	Tick(cycles uint8)
	// TakeNMI reports whether the PPU latched an NMI since the last call and
	// clears the pending flag (edge-triggered, take-on-read).
	TakeNMI() bool
	// IRQLine reports the current level of the maskable interrupt line (the
	// APU's frame counter and DMC IRQ sources wire-ORed together). Unlike
	// TakeNMI this is level-triggered: it stays true until whatever asserted
	// it is serviced or cleared, and is only serviced while flagI is clear.
	IRQLine() bool
}

// instruction is one entry of the opcode lookup table: a mnemonic
// tag, its addressing mode, instruction length in bytes, and base cycle
// count (page-crossing and branch-taken penalties are added at dispatch
// time).
type instruction struct {
	name   string
	mode   AddressingMode
	length uint8
	cycles uint8
}

// CPU is the MOS 6502-derived processor used by the NES. It owns no memory
// of its own; all reads and writes go through the bus handle it was
// constructed with.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	P  uint8 // status register, NV-BDIZC
	SP uint8
	PC uint16

	bus Bus

	halted bool // set on an unrecognized opcode; fatal per spec.md §7
}

// New creates a CPU bound to the given bus. Call Reset before Step.
func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Reset loads PC from the reset vector and restores power-up register state.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = flagI | flagU
	low := uint16(c.bus.Read(resetVector))
	high := uint16(c.bus.Read(resetVector + 1))
	c.PC = high<<8 | low
}

// Halted reports whether the CPU hit an unrecognized opcode and stopped.
func (c *CPU) Halted() bool { return c.halted }

// GetFlag reports a single status bit.
func (c *CPU) GetFlag(mask uint8) bool { return c.P&mask != 0 }

func (c *CPU) setFlag(mask uint8, set bool) {
	if set {
		c.P |= mask
	} else {
		c.P &^= mask
	}
}

// Step services a pending NMI (if any), then fetches, decodes, and executes
// exactly one instruction, reporting elapsed cycles to the bus.
func (c *CPU) Step() uint8 {
	if c.bus.TakeNMI() {
		c.serviceNMI()
	} else if c.bus.IRQLine() && !c.GetFlag(flagI) {
		c.serviceIRQ()
	}

	opcode := c.bus.Read(c.PC)
	c.PC++

	inst, ok := instructionTable[opcode]
	if !ok {
		c.halted = true
		return 0
	}

	startPC := c.PC
	addr, pageCrossed := c.resolveAddress(inst.mode, opcode)
	extra := c.execute(opcode, inst.mode, addr, pageCrossed)

	if c.PC == startPC {
		// Handler did not branch/jump/wrap PC itself; advance past operand.
		c.PC += uint16(inst.length - 1)
	}

	cycles := inst.cycles + extra
	c.bus.Tick(cycles)
	return cycles
}

// serviceNMI implements spec.md §4.3: push PC (high, low), push P with B
// cleared and the unused bit set, set I, tick 2 cycles, then vector through
// 0xFFFA.
func (c *CPU) serviceNMI() {
	c.pushWord(c.PC)
	c.push((c.P &^ flagB) | flagU)
	c.setFlag(flagI, true)
	c.bus.Tick(2)
	low := uint16(c.bus.Read(nmiVector))
	high := uint16(c.bus.Read(nmiVector + 1))
	c.PC = high<<8 | low
}

// serviceIRQ is the maskable-interrupt counterpart of serviceNMI: same
// push/vector sequence, through 0xFFFE instead of 0xFFFA. Level-triggered,
// so it re-fires on the next Step unless the interrupting device clears its
// line or flagI gets set.
func (c *CPU) serviceIRQ() {
	c.pushWord(c.PC)
	c.push((c.P &^ flagB) | flagU)
	c.setFlag(flagI, true)
	c.bus.Tick(2)
	low := uint16(c.bus.Read(irqVector))
	high := uint16(c.bus.Read(irqVector + 1))
	c.PC = high<<8 | low
}

func (c *CPU) push(v uint8) {
	c.bus.Write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

func (c *CPU) pushWord(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) popWord() uint16 {
	low := uint16(c.pop())
	high := uint16(c.pop())
	return high<<8 | low
}

func (c *CPU) setZN(v uint8) {
	c.setFlag(flagZ, v == 0)
	c.setFlag(flagN, v&0x80 != 0)
}

// resolveAddress implements spec.md §4.1. It returns the effective address
// (0 and ignored for modes with no operand address) and whether the
// indexed computation crossed a page boundary.
func (c *CPU) resolveAddress(mode AddressingMode, opcode uint8) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		return 0, false

	case Immediate:
		addr := c.PC
		c.PC++
		return addr, false

	case ZeroPage:
		addr := uint16(c.bus.Read(c.PC))
		c.PC++
		return addr, false

	case ZeroPageX:
		base := c.bus.Read(c.PC)
		c.PC++
		return uint16(base + c.X), false

	case ZeroPageY:
		base := c.bus.Read(c.PC)
		c.PC++
		return uint16(base + c.Y), false

	case Relative:
		offset := int8(c.bus.Read(c.PC))
		c.PC++
		base := c.PC
		target := uint16(int32(base) + int32(offset))
		return target, (base & 0xFF00) != (target & 0xFF00)

	case Absolute:
		addr := c.readWord(c.PC)
		c.PC += 2
		return addr, false

	case AbsoluteX:
		base := c.readWord(c.PC)
		c.PC += 2
		addr := base + uint16(c.X)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case AbsoluteY:
		base := c.readWord(c.PC)
		c.PC += 2
		addr := base + uint16(c.Y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case Indirect: // JMP only; replicates the page-wrap bug.
		ptr := c.readWord(c.PC)
		c.PC += 2
		if ptr&0x00FF == 0x00FF {
			low := c.bus.Read(ptr)
			high := c.bus.Read(ptr & 0xFF00)
			return uint16(high)<<8 | uint16(low), false
		}
		return c.readWord(ptr), false

	case IndexedIndirect:
		zp := c.bus.Read(c.PC) + c.X
		c.PC++
		low := uint16(c.bus.Read(uint16(zp)))
		high := uint16(c.bus.Read(uint16(zp + 1)))
		return high<<8 | low, false

	case IndirectIndexed:
		zp := c.bus.Read(c.PC)
		c.PC++
		low := uint16(c.bus.Read(uint16(zp)))
		high := uint16(c.bus.Read(uint16(zp + 1)))
		base := high<<8 | low
		addr := base + uint16(c.Y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	default:
		return 0, false
	}
}

// readWord reads a little-endian word with no wraparound between the bytes
// (used for absolute/indirect operands, which live in PRG space).
func (c *CPU) readWord(addr uint16) uint16 {
	low := uint16(c.bus.Read(addr))
	high := uint16(c.bus.Read(addr + 1))
	return high<<8 | low
}
