package frontend

import "nesemu/internal/ppu"

// nesPalette is the standard 64-color NES master palette, indexed by the
// 6-bit values the PPU stores in palette RAM.
var nesPalette = [64][3]uint8{
	{84, 84, 84}, {0, 30, 116}, {8, 16, 144}, {48, 0, 136},
	{68, 0, 100}, {92, 0, 48}, {84, 4, 0}, {60, 24, 0},
	{32, 42, 0}, {8, 58, 0}, {0, 64, 0}, {0, 60, 0},
	{0, 50, 60}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0},
	{152, 150, 152}, {8, 76, 196}, {48, 50, 236}, {92, 30, 228},
	{136, 20, 176}, {160, 20, 100}, {152, 34, 32}, {120, 60, 0},
	{84, 90, 0}, {40, 114, 0}, {8, 124, 0}, {0, 118, 40},
	{0, 102, 120}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0},
	{236, 238, 236}, {76, 154, 236}, {120, 124, 236}, {176, 98, 236},
	{228, 84, 236}, {236, 88, 180}, {236, 106, 100}, {212, 136, 32},
	{160, 170, 0}, {116, 196, 0}, {76, 208, 32}, {56, 204, 108},
	{56, 180, 204}, {60, 60, 60}, {0, 0, 0}, {0, 0, 0},
	{236, 238, 236}, {168, 204, 236}, {188, 188, 236}, {212, 178, 236},
	{236, 174, 236}, {236, 174, 212}, {236, 180, 176}, {228, 196, 144},
	{204, 210, 120}, {180, 222, 120}, {168, 226, 144}, {152, 226, 180},
	{160, 214, 228}, {160, 162, 160}, {0, 0, 0}, {0, 0, 0},
}

const (
	screenWidth  = 256
	screenHeight = 240
)

// Renderer assembles one RGBA frame from a PPU's nametable, pattern-table,
// palette and OAM state. The timing core it reads from tracks scanline/dot
// position and register writes but never composites pixels itself, so this
// is a best-effort compositor built on top of it: it draws one static
// nametable per frame rather than honoring the per-scanline $2005/$2006
// writes mid-frame scrolling effects depend on.
type Renderer struct {
	pixels [screenWidth * screenHeight * 4]uint8
}

// NewRenderer creates an empty (black) frame buffer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render samples the PPU's current state and returns an RGBA buffer
// (screenWidth*screenHeight*4 bytes, row-major) ready for an ebiten image's
// WritePixels.
func (r *Renderer) Render(p *ppu.PPU) []uint8 {
	r.clear(p)
	if p.Mask()&0x08 != 0 {
		r.renderBackground(p)
	}
	if p.Mask()&0x10 != 0 {
		r.renderSprites(p)
	}
	return r.pixels[:]
}

func (r *Renderer) clear(p *ppu.PPU) {
	bg := r.paletteColor(p, 0x3F00)
	for i := 0; i < screenWidth*screenHeight; i++ {
		r.setPixelRGB(i, bg)
	}
}

// paletteColor resolves a palette RAM address to an RGB triple.
func (r *Renderer) paletteColor(p *ppu.PPU, address uint16) [3]uint8 {
	return nesPalette[p.PeekVRAM(address)&0x3F]
}

func (r *Renderer) setPixelRGB(pixelIndex int, rgb [3]uint8) {
	o := pixelIndex * 4
	r.pixels[o] = rgb[0]
	r.pixels[o+1] = rgb[1]
	r.pixels[o+2] = rgb[2]
	r.pixels[o+3] = 0xFF
}

func (r *Renderer) renderBackground(p *ppu.PPU) {
	patternTable := uint16(0)
	if p.Ctrl()&0x10 != 0 {
		patternTable = 0x1000
	}
	nametableBase := uint16(0x2000) + uint16(p.Ctrl()&0x03)*0x400

	for ty := 0; ty < 30; ty++ {
		for tx := 0; tx < 32; tx++ {
			tileIndex := p.PeekVRAM(nametableBase + uint16(ty)*32 + uint16(tx))
			attrByte := p.PeekVRAM(nametableBase + 0x3C0 + uint16(ty/4)*8 + uint16(tx/4))
			shift := uint(((ty%4)/2)*4 + ((tx%4)/2)*2)
			paletteIndex := (attrByte >> shift) & 0x03

			r.drawBackgroundTile(p, patternTable, tileIndex, paletteIndex, tx*8, ty*8)
		}
	}
}

func (r *Renderer) drawBackgroundTile(p *ppu.PPU, patternTable uint16, tileIndex, paletteIndex uint8, originX, originY int) {
	tileAddr := patternTable + uint16(tileIndex)*16
	for row := 0; row < 8; row++ {
		lo := p.PeekVRAM(tileAddr + uint16(row))
		hi := p.PeekVRAM(tileAddr + uint16(row) + 8)
		for col := 0; col < 8; col++ {
			bit := uint(7 - col)
			colorIndex := ((hi>>bit)&1)<<1 | (lo>>bit)&1

			x, y := originX+col, originY+row
			if x < 0 || x >= screenWidth || y < 0 || y >= screenHeight {
				continue
			}

			var rgb [3]uint8
			if colorIndex == 0 {
				rgb = r.paletteColor(p, 0x3F00)
			} else {
				rgb = r.paletteColor(p, 0x3F00+uint16(paletteIndex)*4+uint16(colorIndex))
			}
			r.setPixelRGB(y*screenWidth+x, rgb)
		}
	}
}

func (r *Renderer) renderSprites(p *ppu.PPU) {
	tall := p.Ctrl()&0x20 != 0
	spriteTable := uint16(0)
	if p.Ctrl()&0x08 != 0 {
		spriteTable = 0x1000
	}

	oam := p.OAM()
	// Sprite 0 is highest priority in the OAM scan order; iterate back to
	// front so lower-indexed sprites end up drawn on top.
	for i := 63; i >= 0; i-- {
		base := i * 4
		spriteY := int(oam[base]) + 1
		tileIndex := oam[base+1]
		attr := oam[base+2]
		spriteX := int(oam[base+3])

		paletteIndex := attr & 0x03
		flipH := attr&0x40 != 0
		flipV := attr&0x80 != 0

		table := spriteTable
		tile := tileIndex
		height := 8
		if tall {
			height = 16
			table = uint16(tileIndex&0x01) * 0x1000
			tile = tileIndex &^ 0x01
		}

		r.drawSpriteTile(p, table, tile, paletteIndex, spriteX, spriteY, height, flipH, flipV)
	}
}

func (r *Renderer) drawSpriteTile(p *ppu.PPU, patternTable uint16, tileIndex, paletteIndex uint8, originX, originY, height int, flipH, flipV bool) {
	tiles := 1
	if height == 16 {
		tiles = 2
	}

	for t := 0; t < tiles; t++ {
		tileAddr := patternTable + uint16(tileIndex+uint8(t))*16
		for row := 0; row < 8; row++ {
			lo := p.PeekVRAM(tileAddr + uint16(row))
			hi := p.PeekVRAM(tileAddr + uint16(row) + 8)
			for col := 0; col < 8; col++ {
				bit := uint(7 - col)
				colorIndex := ((hi>>bit)&1)<<1 | (lo>>bit)&1
				if colorIndex == 0 {
					continue // transparent
				}

				px, py := col, t*8+row
				if flipH {
					px = 7 - col
				}
				if flipV {
					py = height - 1 - (t*8 + row)
				}

				x, y := originX+px, originY+py
				if x < 0 || x >= screenWidth || y < 0 || y >= screenHeight {
					continue
				}
				rgb := r.paletteColor(p, 0x3F10+uint16(paletteIndex)*4+uint16(colorIndex))
				r.setPixelRGB(y*screenWidth+x, rgb)
			}
		}
	}
}
