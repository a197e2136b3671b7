// Package memory implements the NES CPU address bus router: 2 KiB of
// internal RAM mirrored through $1FFF, PPU/APU/joypad register windows, and
// the cartridge's PRG window. It is a pure address decoder; cycle timing
// and interrupt plumbing live one layer up, in package bus.
package memory

// PPURegisters is the CPU-facing $2000-$2007 register window.
type PPURegisters interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APURegisters is the CPU-facing $4000-$4017 sound register window.
type APURegisters interface {
	ReadStatus() uint8
	WriteRegister(address uint16, value uint8)
}

// Joypads is the CPU-facing $4016/$4017 controller window.
type Joypads interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Cartridge is the CPU-facing PRG ROM/RAM window.
type Cartridge interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
}

// Memory is the NES's CPU address space, $0000-$FFFF.
type Memory struct {
	ram     [0x800]uint8
	ppu     PPURegisters
	apu     APURegisters
	joypads Joypads
	cart    Cartridge

	// openBus models the "last value driven on the bus lingers" behavior
	// of unmapped reads.
	openBus uint8
}

// New creates CPU memory bound to the machine's other components. cart may
// be nil until a cartridge is loaded.
func New(ppu PPURegisters, apu APURegisters, joypads Joypads, cart Cartridge) *Memory {
	return &Memory{ppu: ppu, apu: apu, joypads: joypads, cart: cart}
}

// SetCartridge rebinds the PRG window, e.g. after loading a ROM.
func (m *Memory) SetCartridge(cart Cartridge) { m.cart = cart }

// Read dispatches a CPU read by address range.
func (m *Memory) Read(address uint16) uint8 {
	var value uint8
	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]
	case address < 0x4000:
		value = m.ppu.ReadRegister(0x2000 + address&0x0007)
	case address == 0x4015:
		value = m.apu.ReadStatus()
	case address == 0x4016 || address == 0x4017:
		if m.joypads != nil {
			value = m.joypads.Read(address)
		}
	case address < 0x4020:
		value = m.openBus
	case address >= 0x6000 && m.cart != nil:
		value = m.cart.ReadPRG(address)
	default:
		value = m.openBus
	}
	m.openBus = value
	return value
}

// Write dispatches a CPU write by address range. OAM DMA ($4014) is handled
// by the caller (package bus), which also owns cycle timing for the stall.
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value
	case address < 0x4000:
		m.ppu.WriteRegister(0x2000+address&0x0007, value)
	case address == 0x4016:
		if m.joypads != nil {
			m.joypads.Write(address, value)
		}
	case address >= 0x4000 && address <= 0x4013, address == 0x4015, address == 0x4017:
		m.apu.WriteRegister(address, value)
	case address < 0x4020:
		// $4014 (OAM DMA) and $4018-$401F (test mode) are handled elsewhere.
	case address >= 0x6000 && m.cart != nil:
		m.cart.WritePRG(address, value)
	}
}
