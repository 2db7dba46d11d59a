package joypad

import (
	"testing"

	"github.com/haldorsen/gbz80core/internal/interrupts"
)

func TestReadReflectsSelectedGroup(t *testing.T) {
	c := New(interrupts.NewService())
	c.Press(ButtonA)
	c.Press(ButtonRight)

	c.Write(0x20) // select dpad group (bit4=0)
	dpadSelected := c.Read()
	c.Write(0x10) // select action group (bit5=0)
	actionSelected := c.Read()

	if dpadSelected&0x01 != 0 {
		t.Fatalf("expected Right (bit0) reported low with dpad selected, got %#02x", dpadSelected)
	}
	if actionSelected&0x01 != 0 {
		t.Fatalf("expected A (bit0) reported low with action selected, got %#02x", actionSelected)
	}
}

func TestPressRequestsInterruptOnlyWhenReported(t *testing.T) {
	irq := interrupts.NewService()
	c := New(irq)

	c.Write(0x20) // dpad group selected (bit4=0), action group masked out (bit5=1)
	c.Press(ButtonA)
	if irq.Flag != 0 {
		t.Fatalf("expected no joypad interrupt: action group not selected")
	}

	c.Press(ButtonUp)
	if irq.Flag&(1<<uint8(interrupts.Joypad)) == 0 {
		t.Fatalf("expected joypad interrupt requested for a selected-group press")
	}
}

func TestReleaseClearsHeldBit(t *testing.T) {
	c := New(interrupts.NewService())
	c.Press(ButtonB)
	c.Release(ButtonB)
	c.Write(0x10)
	if c.Read()&0x02 == 0 {
		t.Fatalf("expected B reported released after Release")
	}
}
