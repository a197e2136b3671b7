package memory

import "testing"

type fakePPU struct{ lastWrite uint16 }

func (f *fakePPU) ReadRegister(addr uint16) uint8     { return uint8(addr) }
func (f *fakePPU) WriteRegister(addr uint16, v uint8) { f.lastWrite = addr }

type fakeAPU struct{ lastWrite uint16 }

func (f *fakeAPU) ReadStatus() uint8                { return 0x42 }
func (f *fakeAPU) WriteRegister(addr uint16, v uint8) { f.lastWrite = addr }

type fakeJoypads struct{}

func (fakeJoypads) Read(addr uint16) uint8      { return 1 }
func (fakeJoypads) Write(addr uint16, v uint8) {}

type fakeCart struct{ prg [0x8000]uint8 }

func (c *fakeCart) ReadPRG(addr uint16) uint8      { return c.prg[addr-0x6000] }
func (c *fakeCart) WritePRG(addr uint16, v uint8) { c.prg[addr-0x6000] = v }

func TestRAMMirroring(t *testing.T) {
	m := New(&fakePPU{}, &fakeAPU{}, fakeJoypads{}, nil)
	m.Write(0x0000, 0x55)
	if got := m.Read(0x0800); got != 0x55 {
		t.Fatalf("$0800 should mirror $0000, got %#02x", got)
	}
	if got := m.Read(0x1800); got != 0x55 {
		t.Fatalf("$1800 should mirror $0000, got %#02x", got)
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	p := &fakePPU{}
	m := New(p, &fakeAPU{}, fakeJoypads{}, nil)
	m.Write(0x2008, 0x11) // mirrors $2000
	if p.lastWrite != 0x2000 {
		t.Fatalf("$2008 write should mirror to $2000, got %#04x", p.lastWrite)
	}
}

func TestAPUStatusRead(t *testing.T) {
	m := New(&fakePPU{}, &fakeAPU{}, fakeJoypads{}, nil)
	if got := m.Read(0x4015); got != 0x42 {
		t.Fatalf("$4015 read = %#02x, want 0x42", got)
	}
}

func TestPRGRAMWindow(t *testing.T) {
	cart := &fakeCart{}
	m := New(&fakePPU{}, &fakeAPU{}, fakeJoypads{}, cart)
	m.Write(0x6000, 0x99)
	if got := m.Read(0x6000); got != 0x99 {
		t.Fatalf("PRG RAM read = %#02x, want 0x99", got)
	}
}
