// Package ppu implements the NES Picture Processing Unit's timing core:
// the scanline/dot counter, VBlank and NMI generation, and the
// register/VRAM/OAM/palette memory model. It does not produce pixels —
// turning nametable/OAM/palette state into an RGB frame is a job for an
// external renderer layered on top, per this package's scope.
package ppu

const (
	dotsPerScanline  = 341
	scanlinesPerFrame = 262
	vblankScanline   = 241
	preRenderScanline = 261
)

// PPU is the 2C02 timing core: registers, the scroll/address latch, OAM,
// and the dot/scanline counter that drives VBlank and NMI.
type PPU struct {
	ctrl   uint8 // $2000
	mask   uint8 // $2001
	status uint8 // $2002

	oamAddr uint8
	oam     [256]uint8

	v uint16 // current VRAM address (15 bits)
	t uint16 // temporary VRAM address / address latch
	x uint8  // fine X scroll
	w bool   // write toggle

	readBuffer uint8

	mem *Memory

	scanline   int
	dot        int
	frameCount uint64
	oddFrame   bool

	nmiPending    bool
	frameComplete func()

	halted bool // set on a write-only-register read, a status write, or a fatal VRAM access
}

// New creates a PPU bound to the given memory (nametables/palette/CHR).
func New(mem *Memory) *PPU {
	p := &PPU{mem: mem}
	p.Reset()
	return p
}

// SetFrameCompleteCallback installs the callback invoked once per frame,
// after the pre-render scanline wraps back to scanline 0.
func (p *PPU) SetFrameCompleteCallback(cb func()) { p.frameComplete = cb }

// Reset restores power-up register and timing state.
func (p *PPU) Reset() {
	p.ctrl, p.mask = 0, 0
	p.status = 0xA0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.readBuffer = 0
	p.scanline = preRenderScanline
	p.dot = 0
	p.frameCount = 0
	p.oddFrame = false
	p.nmiPending = false
	for i := range p.oam {
		p.oam[i] = 0
	}
}

// TakeNMI reports and clears a pending NMI request, implementing the
// edge-triggered, take-on-read contract the bus forwards to the CPU.
func (p *PPU) TakeNMI() bool {
	v := p.nmiPending
	p.nmiPending = false
	return v
}

// Scanline and Dot report the PPU's current timing position, mainly for
// tests and debug tooling.
func (p *PPU) Scanline() int { return p.scanline }
func (p *PPU) Dot() int      { return p.dot }
func (p *PPU) FrameCount() uint64 { return p.frameCount }

// OAM exposes the 256-byte sprite attribute table, e.g. for a renderer or
// for OAM DMA to write into directly via WriteOAMByte.
func (p *PPU) OAM() *[256]uint8 { return &p.oam }

// Halted reports whether the PPU hit a fatal access: a write-only-register
// read, a status-register write, or (via the underlying Memory) an
// out-of-range or $3000-$3EFF VRAM access.
func (p *PPU) Halted() bool { return p.halted || p.mem.Halted() }

// Ctrl and Mask expose $2000/$2001 as last written, for a renderer built on
// top of this timing core to pick pattern tables, nametable base, and
// rendering enable bits.
func (p *PPU) Ctrl() uint8 { return p.ctrl }
func (p *PPU) Mask() uint8 { return p.mask }

// FineX returns the fine X scroll latched by the last two $2005 writes.
func (p *PPU) FineX() uint8 { return p.x }

// PeekVRAM reads the PPU's own 14-bit address space (pattern tables,
// nametables, palette) without the side effects ReadRegister's buffered
// $2007 path has. A renderer uses this to sample tiles and palettes.
func (p *PPU) PeekVRAM(address uint16) uint8 { return p.mem.Read(address) }

// WriteOAMByte stores a single byte during OAM DMA, bypassing the
// CPU-visible OAMADDR auto-increment semantics of $2004.
func (p *PPU) WriteOAMByte(index uint8, value uint8) { p.oam[index] = value }

// ReadRegister services a CPU read of $2000-$2007. Reading a write-only
// register ($2000/$2001/$2003/$2005/$2006) is a programming error a real
// 2C02 doesn't define sane behavior for; this halts the PPU rather than
// making up a return value, matching the CPU's halt-on-unrecognized-opcode
// handling.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		status := p.status
		p.status &= 0x7F // clear VBlank flag on read
		p.w = false
		return status
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readData()
	case 0x2000, 0x2001, 0x2003, 0x2005, 0x2006:
		p.halted = true
		return 0
	default:
		return 0
	}
}

// WriteRegister services a CPU write of $2000-$2007. A write to $2002
// (status is read-only) halts the PPU rather than silently dropping it.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x2000:
		p.ctrl = value
		p.t = (p.t & 0xF3FF) | (uint16(value&0x03) << 10)
		p.checkNMI()
	case 0x2001:
		p.mask = value
	case 0x2002:
		p.halted = true
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writeScroll(value)
	case 0x2006:
		p.writeAddr(value)
	case 0x2007:
		p.writeData(value)
	}
}

func (p *PPU) checkNMI() {
	if p.ctrl&0x80 != 0 && p.status&0x80 != 0 {
		p.nmiPending = true
	}
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | uint16(value>>3)
		p.x = value & 0x07
		p.w = true
		return
	}
	p.t = (p.t & 0x8FFF) | (uint16(value&0x07) << 12)
	p.t = (p.t & 0xFC1F) | (uint16(value&0xF8) << 2)
	p.w = false
}

func (p *PPU) writeAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | (uint16(value&0x3F) << 8)
		p.w = true
		return
	}
	p.t = (p.t & 0xFF00) | uint16(value)
	p.v = p.t
	p.w = false
}

func (p *PPU) readData() uint8 {
	var data uint8
	if p.v >= 0x3F00 {
		data = p.mem.Read(p.v)
		p.readBuffer = p.mem.Read(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.mem.Read(p.v)
	}
	p.advanceAddr()
	return data
}

func (p *PPU) writeData(value uint8) {
	p.mem.Write(p.v, value)
	p.advanceAddr()
}

func (p *PPU) advanceAddr() {
	if p.ctrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
}

// Step advances the PPU by one dot, handling VBlank set/clear, NMI latch,
// and the scanline/frame wraparound described by spec.md's timing model.
func (p *PPU) Step() {
	p.dot++
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > preRenderScanline {
			p.scanline = 0
			p.frameCount++
			p.oddFrame = !p.oddFrame
			if p.frameComplete != nil {
				p.frameComplete()
			}
		}
	}

	if p.scanline == vblankScanline && p.dot == 1 {
		p.status |= 0x80
		p.checkNMI()
	}
	if p.scanline == preRenderScanline && p.dot == 1 {
		p.status &= 0x1F // clear VBlank, sprite-0-hit, sprite-overflow
	}
}
