package bus

import (
	"bytes"
	"testing"

	"nesemu/internal/cartridge"
)

func buildINES(prgBanks, chrBanks, flags6 uint8, prg []byte) []byte {
	header := []byte{'N', 'E', 'S', 0x1A, prgBanks, chrBanks, flags6, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	buf := append([]byte{}, header...)
	buf = append(buf, prg...)
	buf = append(buf, make([]byte, int(chrBanks)*8192)...)
	return buf
}

func loadTestCartridge(t *testing.T, prg []byte, resetVector uint16) *cartridge.Cartridge {
	t.Helper()
	data := make([]byte, 16384)
	copy(data, prg)
	data[0x3FFC] = uint8(resetVector)
	data[0x3FFD] = uint8(resetVector >> 8)

	cart, err := cartridge.LoadFromReader(bytes.NewReader(buildINES(1, 1, 0, data)))
	if err != nil {
		t.Fatalf("failed to build test cartridge: %v", err)
	}
	return cart
}

func TestResetStartsAtCartridgeResetVector(t *testing.T) {
	b := New()
	b.LoadCartridge(loadTestCartridge(t, nil, 0x8123))
	if b.CPU.PC != 0x8123 {
		t.Fatalf("PC = %#04x, want 0x8123", b.CPU.PC)
	}
}

func TestOAMDMACopiesPageAndStallsCPU(t *testing.T) {
	b := New()
	b.LoadCartridge(loadTestCartridge(t, nil, 0x8000))

	for i := 0; i < 256; i++ {
		b.Memory.Write(0x0200+uint16(i), uint8(i))
	}

	b.Write(0x4014, 0x02)
	oam := b.PPU.OAM()
	for i := 0; i < 256; i++ {
		if oam[i] != uint8(i) {
			t.Fatalf("OAM[%d] = %#02x, want %#02x", i, oam[i], uint8(i))
		}
	}

	stalled := 0
	for b.dmaSuspendCycles > 0 {
		b.Step()
		stalled++
	}
	if stalled != 513 {
		t.Fatalf("DMA stall consumed %d cycles, want 513 (page started on an even cycle)", stalled)
	}
}

func TestNMIFromPPUReachesCPU(t *testing.T) {
	// PRG is NOPs with a JMP $8000 at the entry point, so the CPU idles in
	// place until the NMI arrives; the handler at $9000 is a NOP, which Step
	// runs right after vectoring, leaving PC at $9001.
	prg := make([]byte, 0x4000)
	for i := range prg {
		prg[i] = 0xEA
	}
	prg[0], prg[1], prg[2] = 0x4C, 0x00, 0x80 // JMP $8000
	prg[0x3FFA], prg[0x3FFB] = 0x00, 0x90     // NMI vector -> $9000

	b := New()
	b.LoadCartridge(loadTestCartridge(t, prg, 0x8000))
	b.PPU.WriteRegister(0x2000, 0x80) // enable NMI-on-VBlank

	for i := 0; i < 400000 && b.CPU.PC != 0x9001; i++ {
		b.Step()
	}
	if b.CPU.PC != 0x9001 {
		t.Fatalf("CPU never vectored to the NMI handler after VBlank")
	}
}

func TestIRQLineReflectsAPU(t *testing.T) {
	b := New()
	b.LoadCartridge(loadTestCartridge(t, nil, 0x8000))
	if b.IRQLine() {
		t.Fatalf("IRQLine should be clear with no APU IRQ source pending")
	}

	b.APU.WriteRegister(0x4010, 0x80) // DMC IRQ enable, no loop
	b.APU.WriteRegister(0x4012, 0x00) // sample address $C000
	b.APU.WriteRegister(0x4013, 0x00) // sample length = 1 byte
	b.APU.WriteRegister(0x4015, 0x10) // enable DMC

	for i := 0; i < 200000 && !b.IRQLine(); i++ {
		b.APU.Step()
	}
	if !b.IRQLine() {
		t.Fatalf("IRQLine should reflect a pending DMC IRQ once its one-byte sample finishes")
	}
}
