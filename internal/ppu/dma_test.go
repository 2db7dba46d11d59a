package ppu

import "testing"

func TestOAMDMACopiesAfter640Cycles(t *testing.T) {
	p := newTestPPU()
	source := make([]byte, 0x100)
	for i := range source {
		source[i] = uint8(i)
	}
	p.dma.SetSourceReader(func(addr uint16) uint8 { return source[addr&0xFF] })

	p.dma.WriteReg(0xC0) // source = 0xC000
	if !p.dma.Active() {
		t.Fatalf("expected transfer active immediately after WriteReg")
	}

	p.dma.Tick(639)
	if p.oam[159] != 0 {
		t.Fatalf("expected the transfer incomplete one cycle short of 640, oam[159]=%#02x", p.oam[159])
	}

	p.dma.Tick(1)
	if p.dma.Active() {
		t.Fatalf("expected the transfer to finish exactly at 640 cycles")
	}
	for i := 0; i < 160; i++ {
		if p.oam[i] != uint8(i) {
			t.Fatalf("oam[%d] = %#02x, want %#02x", i, p.oam[i], uint8(i))
		}
	}
}

func TestOAMDMAReadRegReportsSourceHighByte(t *testing.T) {
	p := newTestPPU()
	p.dma.WriteReg(0x83)
	if got := p.dma.ReadReg(); got != 0x83 {
		t.Fatalf("expected ReadReg to echo the written high byte, got %#02x", got)
	}
}

func TestOAMDMARestartReplacesInFlightTransfer(t *testing.T) {
	p := newTestPPU()
	source := make([]byte, 0x200)
	for i := range source {
		source[i] = 0xAA
	}
	source[0x100] = 0x11
	p.dma.SetSourceReader(func(addr uint16) uint8 { return source[addr&0x1FF] })

	p.dma.WriteReg(0x00) // source 0x0000, all 0xAA
	p.dma.Tick(4)        // copy one byte: oam[0] = 0xAA

	p.dma.WriteReg(0x01) // restart from 0x0100, resets pos to 0
	p.dma.Tick(4)
	if p.oam[0] != 0x11 {
		t.Fatalf("expected restart to begin copying from the new source at pos 0, got %#02x", p.oam[0])
	}
}
