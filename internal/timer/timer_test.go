package timer

import (
	"testing"

	"github.com/haldorsen/gbz80core/internal/interrupts"
)

func TestDIVIncrementsEvery256Cycles(t *testing.T) {
	c := NewController(interrupts.NewService())
	c.Tick(255)
	if c.ReadDIV() != 0 {
		t.Fatalf("expected DIV still 0 after 255 cycles, got %d", c.ReadDIV())
	}
	c.Tick(1)
	if c.ReadDIV() != 1 {
		t.Fatalf("expected DIV 1 after 256 cycles, got %d", c.ReadDIV())
	}
}

func TestWriteDIVResetsCounter(t *testing.T) {
	c := NewController(interrupts.NewService())
	c.Tick(1000)
	if c.ReadDIV() == 0 {
		t.Fatalf("expected nonzero DIV before reset")
	}
	c.WriteDIV(0xFF) // any written value resets to 0
	if c.ReadDIV() != 0 {
		t.Fatalf("expected DIV 0 after write, got %d", c.ReadDIV())
	}
}

// TestDIVResetTicksTIMA exercises the falling-edge side effect: if the
// timer is enabled and DIV's reset clears a counter bit that was 1, TIMA
// must still observe that as a falling edge and increment.
func TestDIVResetTicksTIMA(t *testing.T) {
	c := NewController(interrupts.NewService())
	c.WriteTAC(0x05) // enabled, clock select 1 -> bit 3
	c.Tick(1 << 3)    // set bit 3 high
	if !c.selectedBit() {
		t.Fatalf("expected selected bit high before reset")
	}
	c.WriteDIV(0)
	if c.tima != 1 {
		t.Fatalf("expected TIMA incremented by DIV reset edge, got %d", c.tima)
	}
}

func TestTIMAOverflowReloadsTMAAndRequestsInterrupt(t *testing.T) {
	irq := interrupts.NewService()
	c := NewController(irq)
	c.WriteTMA(0x7C)
	c.WriteTIMA(0xFF)
	c.WriteTAC(0x04) // enabled, clock select 0 -> bit 9

	c.Tick(1 << 10) // one full period of bit 9: rises at 512, falls at 1024

	if c.tima != 0x7C {
		t.Fatalf("expected TIMA reloaded to TMA (0x7C), got %#02x", c.tima)
	}
	if irq.Flag&(1<<uint8(interrupts.Timer)) == 0 {
		t.Fatalf("expected timer interrupt request flag set")
	}
}
