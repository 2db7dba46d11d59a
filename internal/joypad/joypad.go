// Package joypad emulates the JOYP register (0xFF00) and button state.
package joypad

import (
	"github.com/haldorsen/gbz80core/internal/interrupts"
	"github.com/haldorsen/gbz80core/internal/state"
)

type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
)

const (
	actionMask = ButtonA | ButtonB | ButtonSelect | ButtonStart
	dpadMask   = ButtonRight | ButtonLeft | ButtonUp | ButtonDown
)

// Controller reports the currently held buttons through JOYP, selected by
// the two group-select bits the game writes.
type Controller struct {
	irq *interrupts.Service

	selectBits uint8 // bits 4-5 of JOYP, as written
	held       Button
}

func New(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq, selectBits: 0x30}
}

// Read returns the JOYP register value: low nibble is 0-for-pressed for
// whichever group is selected (both groups merged if both select bits are
// cleared; if neither is cleared the low nibble reads 0x0F, matching
// hardware's 1 default for unselected bits).
func (c *Controller) Read() uint8 {
	low := uint8(0x0F)
	if c.selectBits&0x10 == 0 {
		low &^= uint8(c.held & dpadMask >> 4)
	}
	if c.selectBits&0x20 == 0 {
		low &^= uint8(c.held & actionMask)
	}
	return 0xC0 | c.selectBits | low
}

func (c *Controller) Write(v uint8) {
	c.selectBits = v & 0x30
}

// Press marks a button held, requesting JOYPAD if the transition is
// observable through the currently-selected reporting group(s).
func (c *Controller) Press(b Button) {
	before := c.held
	c.held |= b
	if before&b == 0 && c.reported(b) {
		c.irq.Request(interrupts.Joypad)
	}
}

func (c *Controller) Release(b Button) {
	c.held &^= b
}

func (c *Controller) reported(b Button) bool {
	if b&dpadMask != 0 && c.selectBits&0x10 == 0 {
		return true
	}
	if b&actionMask != 0 && c.selectBits&0x20 == 0 {
		return true
	}
	return false
}

var _ state.Stater = (*Controller)(nil)

func (c *Controller) Save(s *state.Chunk) {
	s.Write8(c.selectBits)
	s.Write8(uint8(c.held))
}

func (c *Controller) Load(s *state.Chunk) {
	c.selectBits = s.Read8()
	c.held = Button(s.Read8())
}
