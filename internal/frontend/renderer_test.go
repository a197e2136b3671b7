package frontend

import (
	"testing"

	"nesemu/internal/ppu"
)

type testCHR struct {
	data [0x2000]uint8
}

func (c *testCHR) ReadCHR(address uint16) uint8     { return c.data[address&0x1FFF] }
func (c *testCHR) WriteCHR(address uint16, v uint8) { c.data[address&0x1FFF] = v }

func newTestPPU() (*ppu.PPU, *ppu.Memory) {
	mem := ppu.NewMemory(&testCHR{}, ppu.MirrorHorizontal)
	return ppu.New(mem), mem
}

func TestRenderBackgroundSamplesTileAndPalette(t *testing.T) {
	p, mem := newTestPPU()

	// Pattern table 0, tile 1: a solid color-index-3 tile (both bitplane
	// bytes all set).
	for row := uint16(0); row < 8; row++ {
		mem.Write(0x0010+row, 0xFF)
		mem.Write(0x0018+row, 0xFF)
	}

	// Nametable entry (0,0) points at tile 1; its attribute byte selects
	// background palette 2.
	mem.Write(0x2000, 0x01)
	mem.Write(0x23C0, 0x02)

	// Background palette 2, color 3 -> NES palette index 0x16.
	mem.Write(0x3F00+2*4+3, 0x16)

	p.WriteRegister(0x2001, 0x08) // show background

	r := NewRenderer()
	pixels := r.Render(p)

	want := nesPalette[0x16]
	got := [3]uint8{pixels[0], pixels[1], pixels[2]}
	if got != want {
		t.Fatalf("top-left pixel = %v, want %v", got, want)
	}
}

func TestRenderSpriteTransparentPixelsShowBackground(t *testing.T) {
	p, mem := newTestPPU()

	// Sprite tile 0: color index 0 everywhere (fully transparent), so the
	// universal background color should show through.
	mem.Write(0x3F00, 0x0D)

	oam := p.OAM()
	oam[0], oam[1], oam[2], oam[3] = 0, 0, 0, 0

	p.WriteRegister(0x2001, 0x18) // show background + sprites

	r := NewRenderer()
	pixels := r.Render(p)

	want := nesPalette[0x0D]
	got := [3]uint8{pixels[0], pixels[1], pixels[2]}
	if got != want {
		t.Fatalf("pixel under transparent sprite = %v, want background %v", got, want)
	}
}

func TestRenderBackgroundDisabledLeavesUniversalColor(t *testing.T) {
	p, mem := newTestPPU()
	mem.Write(0x3F00, 0x20)

	r := NewRenderer()
	pixels := r.Render(p)

	want := nesPalette[0x20]
	got := [3]uint8{pixels[0], pixels[1], pixels[2]}
	if got != want {
		t.Fatalf("pixel with rendering disabled = %v, want universal background %v", got, want)
	}
}
