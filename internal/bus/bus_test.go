package bus

import (
	"testing"

	"github.com/haldorsen/gbz80core/internal/cartridge"
	"github.com/haldorsen/gbz80core/internal/interrupts"
)

type fakeVideo struct {
	vram   [0x2000]byte
	oam    [0xA0]byte
	locked bool
}

func (v *fakeVideo) ReadVRAM(addr uint16) uint8     { return v.vram[addr-0x8000] }
func (v *fakeVideo) WriteVRAM(addr uint16, b uint8) { v.vram[addr-0x8000] = b }
func (v *fakeVideo) ReadOAM(addr uint16) uint8      { return v.oam[addr-0xFE00] }
func (v *fakeVideo) WriteOAM(addr uint16, b uint8)  { v.oam[addr-0xFE00] = b }
func (v *fakeVideo) OAMLocked() bool                { return v.locked }

func buildROM(t *testing.T) []byte {
	t.Helper()
	rom := make([]byte, 0x8000)
	copy(rom[0x0134:], "BUSTEST")
	rom[0x0147] = 0x00
	rom[0x0148] = 0x00
	rom[0x0149] = 0x00
	var sum uint8
	for i := 0x0134; i <= 0x014C; i++ {
		sum = sum - rom[i] - 1
	}
	rom[0x014D] = sum
	rom[0x4000] = 0xAB // a byte inside the cartridge's switchable window
	return rom
}

func newTestBus(t *testing.T) (*Bus, *fakeVideo) {
	t.Helper()
	cart, err := cartridge.New(buildROM(t))
	if err != nil {
		t.Fatalf("cartridge.New: %v", err)
	}
	video := &fakeVideo{}
	b := New(cart, interrupts.NewService(), false)
	b.AttachVideo(video)
	return b, video
}

func TestWRAMEchoRegionMirrorsWRAM(t *testing.T) {
	b, _ := newTestBus(t)
	b.Write(0xC012, 0x55)
	if got := b.Read(0xE012); got != 0x55 {
		t.Fatalf("expected echo region to mirror WRAM, got %#02x", got)
	}
	b.Write(0xE034, 0x99)
	if got := b.Read(0xC034); got != 0x99 {
		t.Fatalf("expected write through echo region to land in WRAM, got %#02x", got)
	}
}

func TestBootROMOverlayTakesPriorityThenDisables(t *testing.T) {
	b, _ := newTestBus(t)
	b.SetBootROM([]byte{0x11, 0x22, 0x33})
	if got := b.Read(0x0000); got != 0x11 {
		t.Fatalf("expected boot rom byte 0x11 at 0x0000, got %#02x", got)
	}

	b.Write(0xFF50, 0x01) // disable boot rom overlay
	if got := b.Read(0x0000); got == 0x11 {
		t.Fatalf("expected boot rom overlay disabled after writing FF50, still read %#02x", got)
	}
}

func TestDMAActiveBlocksNonHRAMIncludingVRAM(t *testing.T) {
	b, _ := newTestBus(t)
	b.Write(0xFF80, 0x7E) // HRAM, written before DMA starts
	b.dmaActive = func() bool { return true }

	if got := b.Read(0xFF80); got != 0x7E {
		t.Fatalf("expected HRAM still readable during DMA, got %#02x", got)
	}
	if got := b.Read(0x8000); got != 0xFF {
		t.Fatalf("expected VRAM reads to return 0xFF during DMA, got %#02x", got)
	}
	if got := b.Read(0xC000); got != 0xFF {
		t.Fatalf("expected non-HRAM reads to return 0xFF during DMA, got %#02x", got)
	}

	b.Write(0xC000, 0x42) // should be dropped; DMA blocks the write path too
	b.dmaActive = func() bool { return false }
	if got := b.Read(0xC000); got == 0x42 {
		t.Fatalf("expected write during DMA to be dropped")
	}
}

func TestDMASourceReadFromVRAMReturnsGarbage(t *testing.T) {
	b, video := newTestBus(t)
	video.vram[0] = 0x42 // a real VRAM byte at 0x8000

	if got := b.ReadDMASource(0x8000); got != 0xA5 {
		t.Fatalf("expected the DMA source fetch from VRAM to read garbage 0xA5, got %#02x", got)
	}
	// the CPU's own bus read is unaffected and sees the real VRAM byte.
	if got := b.Read(0x8000); got != 0x42 {
		t.Fatalf("expected a normal bus read to still see VRAM's real contents, got %#02x", got)
	}
}

func TestOAMReadDuringLockReturnsFF(t *testing.T) {
	b, video := newTestBus(t)
	video.locked = true
	if got := b.Read(0xFEA0); got != 0xFF {
		t.Fatalf("expected prohibited region read 0xFF while OAM locked, got %#02x", got)
	}
	video.locked = false
	if got := b.Read(0xFEA0); got != 0x00 {
		t.Fatalf("expected prohibited region read 0x00 while OAM unlocked, got %#02x", got)
	}
}

func TestIOReadWriteDispatch(t *testing.T) {
	b, _ := newTestBus(t)
	b.Write(0xFFFF, 0x1F) // IE
	if got := b.Read(0xFFFF); got != 0x1F {
		t.Fatalf("expected IE readback 0x1F, got %#02x", got)
	}

	// unregistered I/O address reads back open-bus 0xFF.
	if got := b.Read(0xFF01); got != 0xFF {
		t.Fatalf("expected unregistered IO register to read 0xFF, got %#02x", got)
	}
}

func TestCGBWRAMBanking(t *testing.T) {
	cart, err := cartridge.New(buildROM(t))
	if err != nil {
		t.Fatalf("cartridge.New: %v", err)
	}
	b := New(cart, interrupts.NewService(), true)
	b.AttachVideo(&fakeVideo{})

	b.Write(0xFF70, 0x02) // select WRAM bank 2
	b.Write(0xD000, 0x77) // the banked window 0xD000-0xDFFF
	b.Write(0xFF70, 0x03)
	b.Write(0xD000, 0x88)
	b.Write(0xFF70, 0x02)
	if got := b.Read(0xD000); got != 0x77 {
		t.Fatalf("expected bank 2's value preserved, got %#02x", got)
	}

	b.Write(0xFF70, 0x00) // bank 0 behaves as bank 1
	b.Write(0xD000, 0x11)
	b.Write(0xFF70, 0x01)
	if got := b.Read(0xD000); got != 0x11 {
		t.Fatalf("expected bank-0-as-1 aliasing, got %#02x", got)
	}
}
