// Package bus wires the CPU, PPU, APU, cartridge and joypads into one
// machine: it is the cpu.Bus implementation, the component that owns
// cycle timing (3 PPU dots and 1 APU cycle per CPU cycle), OAM-DMA
// stalls, and surfacing the APU's IRQ line to the CPU.
package bus

import (
	"nesemu/internal/apu"
	"nesemu/internal/cartridge"
	"nesemu/internal/cpu"
	"nesemu/internal/input"
	"nesemu/internal/memory"
	"nesemu/internal/ppu"
)

// openCHR is the CHR backing store used before any cartridge is loaded:
// an 8KB block of writable RAM, same shape as a CHR-RAM cartridge.
type openCHR struct {
	data [0x2000]uint8
}

func (c *openCHR) ReadCHR(address uint16) uint8     { return c.data[address&0x1FFF] }
func (c *openCHR) WriteCHR(address uint16, v uint8) { c.data[address&0x1FFF] = v }

// Bus is the NES system bus: it satisfies cpu.Bus and owns every other
// component.
type Bus struct {
	CPU     *cpu.CPU
	PPU     *ppu.PPU
	APU     *apu.APU
	Memory  *memory.Memory
	Joypads *input.Ports

	ppuMemory *ppu.Memory
	cart      *cartridge.Cartridge

	dmaSuspendCycles uint64
	totalCycles      uint64
	frameCount       uint64
}

// New builds a machine with no cartridge loaded; LoadCartridge must be
// called before Run produces anything meaningful.
func New() *Bus {
	b := &Bus{}

	b.ppuMemory = ppu.NewMemory(&openCHR{}, ppu.MirrorHorizontal)
	b.PPU = ppu.New(b.ppuMemory)
	b.APU = apu.New(b)
	b.Joypads = input.NewPorts()
	b.Memory = memory.New(b.PPU, b.APU, b.Joypads, nil)
	b.CPU = cpu.New(b)

	b.PPU.SetFrameCompleteCallback(b.handleFrameComplete)

	b.Reset()
	return b
}

// Reset returns every component to its power-up state.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Joypads.Reset()

	b.dmaSuspendCycles = 0
	b.totalCycles = 0
	b.frameCount = 0
}

// LoadCartridge binds a parsed cartridge into the machine and resets the
// CPU so it starts executing from the new PRG's reset vector.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	b.Memory.SetCartridge(cart)
	b.ppuMemory.SetMirror(ppu.MirrorMode(cart.GetMirrorMode()))
	b.APU.SetDMCReader(b)
	b.Reset()
}

func (b *Bus) handleFrameComplete() {
	b.frameCount = b.PPU.FrameCount()
}

// FrameCount returns the number of frames the PPU has completed.
func (b *Bus) FrameCount() uint64 { return b.frameCount }

// Read implements cpu.Bus.
func (b *Bus) Read(address uint16) uint8 {
	return b.Memory.Read(address)
}

// Write implements cpu.Bus. $4014 (OAM DMA) is intercepted here because it
// needs cycle-stall timing the pure address decoder in package memory
// doesn't own.
func (b *Bus) Write(address uint16, value uint8) {
	if address == 0x4014 {
		b.triggerOAMDMA(value)
		return
	}
	b.Memory.Write(address, value)
}

// Tick implements cpu.Bus: it advances the PPU 3 dots and the APU 1 cycle
// per CPU cycle consumed.
func (b *Bus) Tick(cycles uint8) {
	b.tickComponents(cycles)
}

func (b *Bus) tickComponents(cycles uint8) {
	for i := uint8(0); i < cycles; i++ {
		b.PPU.Step()
		b.PPU.Step()
		b.PPU.Step()
		b.APU.Step()
	}
	b.totalCycles += uint64(cycles)
}

// TakeNMI implements cpu.Bus by delegating straight to the PPU's
// edge-triggered NMI latch.
func (b *Bus) TakeNMI() bool {
	return b.PPU.TakeNMI()
}

// IRQLine implements cpu.Bus: the APU's frame-counter and DMC IRQ sources
// are wire-ORed onto the single line the CPU sees.
func (b *Bus) IRQLine() bool {
	return b.APU.IRQLine()
}

// triggerOAMDMA performs the instantaneous 256-byte OAM copy and arms the
// CPU-suspend counter (513 cycles, 514 if the DMA starts on an odd CPU
// cycle) that Step() drains one cycle at a time.
func (b *Bus) triggerOAMDMA(page uint8) {
	sourceAddress := uint16(page) << 8
	for i := 0; i < 256; i++ {
		data := b.Memory.Read(sourceAddress + uint16(i))
		b.PPU.WriteOAMByte(uint8(i), data)
	}

	cycles := uint64(513)
	if b.totalCycles%2 == 1 {
		cycles = 514
	}
	b.dmaSuspendCycles += cycles
}

// Step executes one unit of machine work: either one suspended DMA cycle,
// or one CPU instruction (which ticks the PPU/APU itself via Tick). It
// returns the number of CPU cycles consumed.
func (b *Bus) Step() uint8 {
	if b.dmaSuspendCycles > 0 {
		b.dmaSuspendCycles--
		b.tickComponents(1)
		return 1
	}
	return b.CPU.Step()
}

// Run steps the machine until at least `frames` more frames have
// completed.
func (b *Bus) Run(frames int) {
	target := b.frameCount + uint64(frames)
	for b.frameCount < target {
		b.Step()
	}
}

// GetAudioSamples drains the APU's buffered output samples.
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}
