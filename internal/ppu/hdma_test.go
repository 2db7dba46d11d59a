package ppu

import "testing"

func newTestSource(n int) ([]byte, func(uint16) uint8) {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = uint8(i + 1)
	}
	return buf, func(addr uint16) uint8 { return buf[int(addr)%n] }
}

func TestHDMAGeneralPurposeTransferRunsInOneShot(t *testing.T) {
	p := newTestPPU()
	_, reader := newTestSource(0x40)
	p.hdma.SetSourceReader(reader)

	p.hdma.WriteHDMA1(0x00) // source 0x0000
	p.hdma.WriteHDMA2(0x00)
	p.hdma.WriteHDMA3(0x00) // dest 0x0000
	p.hdma.WriteHDMA4(0x00)
	p.hdma.WriteHDMA5(0x01) // bit7 clear: general purpose, length (1+1)*0x10 = 0x20

	if p.hdma.active {
		t.Fatalf("expected a general-purpose transfer to complete immediately, not stay active")
	}
	if p.hdma.ReadHDMA5() != 0xFF {
		t.Fatalf("expected HDMA5 0xFF once idle, got %#02x", p.hdma.ReadHDMA5())
	}
	for i := 0; i < 0x20; i++ {
		if got := p.vram[0][i]; got != uint8(i+1) {
			t.Fatalf("vram[%d] = %#02x, want %#02x", i, got, uint8(i+1))
		}
	}
}

func TestHDMAHBlankTransferCopiesOneBlockPerHBlank(t *testing.T) {
	p := newTestPPU()
	_, reader := newTestSource(0x40)
	p.hdma.SetSourceReader(reader)

	p.hdma.WriteHDMA3(0x00)
	p.hdma.WriteHDMA4(0x00)
	p.hdma.WriteHDMA5(0x81) // bit7 set: hblank mode, length 0x20 (2 blocks)

	if !p.hdma.active || !p.hdma.hblankMode {
		t.Fatalf("expected an active hblank-mode transfer after WriteHDMA5")
	}
	if got := p.hdma.ReadHDMA5(); got != 0x01 {
		t.Fatalf("expected HDMA5 to encode 2 remaining blocks as 0x01, got %#02x", got)
	}

	p.hdma.OnHBlank()
	if !p.hdma.active {
		t.Fatalf("expected the transfer still active after its first block")
	}
	if got := p.hdma.ReadHDMA5(); got != 0x00 {
		t.Fatalf("expected HDMA5 to encode 1 remaining block as 0x00, got %#02x", got)
	}
	if p.vram[0][0] != 1 || p.vram[0][0x0F] != 0x10 {
		t.Fatalf("expected the first 0x10 bytes copied after one OnHBlank call")
	}

	p.hdma.OnHBlank()
	if p.hdma.active {
		t.Fatalf("expected the transfer to finish after its second and final block")
	}
	if p.vram[0][0x10] != 0x11 {
		t.Fatalf("expected the second block copied, vram[0x10] = %#02x", p.vram[0][0x10])
	}
}

func TestHDMAHBlankTransferCancelledByBit7ClearWrite(t *testing.T) {
	p := newTestPPU()
	_, reader := newTestSource(0x40)
	p.hdma.SetSourceReader(reader)

	p.hdma.WriteHDMA5(0x82) // hblank mode, length 0x30 (3 blocks)
	p.hdma.OnHBlank()       // copy one block, 2 remain

	p.hdma.WriteHDMA5(0x00) // bit7 clear while active: cancel, don't start a new transfer
	if p.hdma.active {
		t.Fatalf("expected the in-flight hblank transfer to be cancelled")
	}
	if p.hdma.ReadHDMA5() != 0xFF {
		t.Fatalf("expected HDMA5 0xFF after cancellation, got %#02x", p.hdma.ReadHDMA5())
	}
}
