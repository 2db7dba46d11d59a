package gameboy

import (
	"testing"

	"github.com/haldorsen/gbz80core/pkg/host"
)

// fakeHost is a no-op host.Host: no frames are ever rendered, no input
// held, wall clock pinned.
type fakeHost struct {
	frames int
}

func (h *fakeHost) PresentFrame(frame []uint16)  { h.frames++ }
func (h *fakeHost) QueueAudio(samples []float32) {}
func (h *fakeHost) PollInput() host.JoypadState  { return 0 }
func (h *fakeHost) NowUnixSeconds() uint64       { return 0 }

func buildTestROM(t *testing.T) []byte {
	t.Helper()
	rom := make([]byte, 0x8000)
	copy(rom[0x0134:], "GBTEST")
	rom[0x0147] = 0x00 // no MBC, no RAM
	rom[0x0148] = 0x00
	rom[0x0149] = 0x00
	var sum uint8
	for i := 0x0134; i <= 0x014C; i++ {
		sum = sum - rom[i] - 1
	}
	rom[0x014D] = sum

	// an infinite JR $ loop at the entry point, so StepFrame has
	// something to run without falling off the edge of the ROM.
	rom[0x0100] = 0x18 // JR
	rom[0x0101] = 0xFE // -2: jump to self
	return rom
}

func TestNewAppliesPowerOnDefaults(t *testing.T) {
	g, err := New(buildTestROM(t), ModelDMG, &fakeHost{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.CPU.PC != 0x0100 || g.CPU.SP != 0xFFFE {
		t.Fatalf("expected power-on PC/SP, got PC=%#04x SP=%#04x", g.CPU.PC, g.CPU.SP)
	}
	if g.CPU.AF() != 0x01B0 {
		t.Fatalf("expected power-on AF 0x01B0, got %#04x", g.CPU.AF())
	}
	if g.PPU.ReadLCDC() != 0x91 {
		t.Fatalf("expected power-on LCDC 0x91, got %#02x", g.PPU.ReadLCDC())
	}
}

func TestStepFrameAdvancesAndPresentsExactlyOneFrame(t *testing.T) {
	h := &fakeHost{}
	g, err := New(buildTestROM(t), ModelDMG, h)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	clocks := g.StepFrame()
	if clocks == 0 {
		t.Fatalf("expected StepFrame to consume cycles")
	}
	if h.frames != 1 {
		t.Fatalf("expected exactly one presented frame per StepFrame call, got %d", h.frames)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g, err := New(buildTestROM(t), ModelDMG, &fakeHost{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.StepFrame()

	snap := g.Snapshot()

	g.CPU.A = 0xAB
	g.PPU.WriteSCX(0x42)

	g.Restore(snap)

	if g.CPU.A == 0xAB {
		t.Fatalf("expected Restore to undo the post-snapshot mutation to A")
	}
	if g.PPU.ReadSCX() == 0x42 {
		t.Fatalf("expected Restore to undo the post-snapshot mutation to SCX")
	}
}

func TestRegisterIODispatchesThroughBus(t *testing.T) {
	g, err := New(buildTestROM(t), ModelDMG, &fakeHost{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.Bus.Write(0xFF47, 0x1B) // BGP
	if got := g.PPU.ReadBGP(); got != 0x1B {
		t.Fatalf("expected BGP write through the bus to reach the PPU, got %#02x", got)
	}
	if got := g.Bus.Read(0xFF47); got != 0x1B {
		t.Fatalf("expected BGP readback through the bus, got %#02x", got)
	}
}
