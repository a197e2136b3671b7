package cpu

import "testing"

// testBus is a flat 64KiB address space with a scriptable NMI line, enough
// to drive the CPU through an instruction stream without a real PPU/APU.
type testBus struct {
	mem     [0x10000]uint8
	nmi     bool
	irq     bool
	ticked  uint64
	tickLog []uint8
}

func newTestBus() *testBus { return &testBus{} }

func (b *testBus) Read(addr uint16) uint8     { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v uint8) { b.mem[addr] = v }
func (b *testBus) Tick(cycles uint8) {
	b.ticked += uint64(cycles)
	b.tickLog = append(b.tickLog, cycles)
}
func (b *testBus) TakeNMI() bool {
	v := b.nmi
	b.nmi = false
	return v
}
func (b *testBus) IRQLine() bool { return b.irq }

func (b *testBus) load(addr uint16, bytes ...uint8) {
	copy(b.mem[addr:], bytes)
}

func (b *testBus) setResetVector(addr uint16) {
	b.mem[resetVector] = uint8(addr)
	b.mem[resetVector+1] = uint8(addr >> 8)
}

func newRunningCPU(bus *testBus, entry uint16) *CPU {
	bus.setResetVector(entry)
	c := New(bus)
	c.Reset()
	return c
}

func TestResetLoadsVectorAndPowerUpState(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0xC000)

	if c.PC != 0xC000 {
		t.Fatalf("PC = %#04x, want 0xC000", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %#02x, want 0xFD", c.SP)
	}
	if !c.GetFlag(flagI) {
		t.Fatalf("I flag should be set after reset")
	}
}

func TestLDAImmediateSetsZeroAndNegativeFlags(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.load(0x8000, 0xA9, 0x00) // LDA #$00
	c.Step()
	if c.A != 0 || !c.GetFlag(flagZ) || c.GetFlag(flagN) {
		t.Fatalf("A=%#02x Z=%v N=%v, want A=0 Z=true N=false", c.A, c.GetFlag(flagZ), c.GetFlag(flagN))
	}

	bus.load(0x8002, 0xA9, 0x80) // LDA #$80
	c.Step()
	if c.A != 0x80 || c.GetFlag(flagZ) || !c.GetFlag(flagN) {
		t.Fatalf("A=%#02x Z=%v N=%v, want A=0x80 Z=false N=true", c.A, c.GetFlag(flagZ), c.GetFlag(flagN))
	}
}

func TestADCSetsCarryAndOverflow(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.load(0x8000,
		0xA9, 0x7F, // LDA #$7F
		0x69, 0x01, // ADC #$01 -> overflow, no carry
	)
	c.Step()
	c.Step()
	if c.A != 0x80 {
		t.Fatalf("A = %#02x, want 0x80", c.A)
	}
	if !c.GetFlag(flagV) {
		t.Fatalf("V flag should be set on signed overflow")
	}
	if c.GetFlag(flagC) {
		t.Fatalf("C flag should be clear")
	}
}

func TestSBCBorrowClearsCarry(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.load(0x8000,
		0x38,       // SEC
		0xA9, 0x00, // LDA #$00
		0xE9, 0x01, // SBC #$01 -> borrow
	)
	c.Step()
	c.Step()
	c.Step()
	if c.A != 0xFF {
		t.Fatalf("A = %#02x, want 0xFF", c.A)
	}
	if c.GetFlag(flagC) {
		t.Fatalf("C flag should be clear after a borrow")
	}
}

func TestBranchTakenAddsCycleNotPageCross(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.load(0x8000,
		0x18,       // CLC
		0x90, 0x02, // BCC +2 (taken, carry clear)
	)
	c.Step()
	cycles := c.Step()
	if cycles != 3 {
		t.Fatalf("branch-taken cycles = %d, want 3", cycles)
	}
	if c.PC != 0x8005 {
		t.Fatalf("PC after taken branch = %#04x, want 0x8005", c.PC)
	}
}

func TestJSRAndRTSRoundTrip(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.load(0x8000, 0x20, 0x00, 0x90) // JSR $9000
	bus.load(0x9000, 0x60)             // RTS
	c.Step()
	if c.PC != 0x9000 {
		t.Fatalf("PC after JSR = %#04x, want 0x9000", c.PC)
	}
	c.Step()
	if c.PC != 0x8003 {
		t.Fatalf("PC after RTS = %#04x, want 0x8003", c.PC)
	}
}

func TestNMIPushesStateAndVectors(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.mem[nmiVector] = 0x00
	bus.mem[nmiVector+1] = 0x90
	bus.nmi = true

	bus.load(0x8000, 0xEA) // NOP, irrelevant: NMI is serviced before fetch
	bus.load(0x9000, 0xEA) // handler's first instruction, run in the same Step
	c.Step()

	if c.PC != 0x9001 {
		t.Fatalf("PC after NMI = %#04x, want 0x9001", c.PC)
	}
	if !c.GetFlag(flagI) {
		t.Fatalf("I flag should be set after NMI dispatch")
	}
}

func TestUnofficialOpcodeLAX(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.load(0x8000, 0xA7, 0x10) // LAX $10
	bus.mem[0x10] = 0x42
	c.Step()
	if c.A != 0x42 || c.X != 0x42 {
		t.Fatalf("A=%#02x X=%#02x, want both 0x42", c.A, c.X)
	}
}

func TestUnrecognizedOpcodeHalts(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.load(0x8000, 0x02) // no opcode 0x02 exists (official or unofficial)
	c.Step()
	if !c.Halted() {
		t.Fatalf("CPU should halt on an unrecognized opcode")
	}
}

func TestIRQServicedWhenUnmasked(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0x90
	c.setFlag(flagI, false)
	bus.irq = true

	bus.load(0x8000, 0xEA) // NOP, irrelevant: IRQ is serviced before fetch
	bus.load(0x9000, 0xEA) // handler's first instruction, run in the same Step
	c.Step()

	if c.PC != 0x9001 {
		t.Fatalf("PC after IRQ = %#04x, want 0x9001", c.PC)
	}
	if !c.GetFlag(flagI) {
		t.Fatalf("I flag should be set after IRQ dispatch")
	}
}

func TestIRQIgnoredWhenMasked(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0x90
	bus.irq = true // flagI is set by Reset

	bus.load(0x8000, 0xEA) // NOP
	c.Step()

	if c.PC == 0x9000 {
		t.Fatalf("a masked IRQ line should not be serviced")
	}
}

func TestIndirectJMPPageWrapBug(t *testing.T) {
	bus := newTestBus()
	c := newRunningCPU(bus, 0x8000)
	bus.load(0x8000, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	bus.mem[0x30FF] = 0x00
	bus.mem[0x3000] = 0x40 // should be read instead of 0x3100
	bus.mem[0x3100] = 0xFF
	c.Step()
	if c.PC != 0x4000 {
		t.Fatalf("PC = %#04x, want 0x4000 (page-wrap bug)", c.PC)
	}
}
