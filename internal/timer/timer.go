// Package timer implements the Game Boy's internal 16-bit clock counter
// (whose upper byte is DIV) and the TIMA/TMA/TAC timer circuit, which
// increments on a falling edge of a TAC-selected counter bit ANDed with
// the timer-enable bit.
//
// TIMA overflow is handled in a coalesced manner: the reload to TMA and
// the TIMER interrupt request happen in the same tick that TIMA wraps to
// zero, rather than reproducing the one-M-cycle hardware delay before the
// reload becomes visible. See SPEC_FULL.md §7 for the rationale.
package timer

import (
	"github.com/haldorsen/gbz80core/internal/interrupts"
	"github.com/haldorsen/gbz80core/internal/state"
)

// counterBit maps TAC&3 to the internal-counter bit that is ANDed with
// the enable bit to produce the TIMA clock.
var counterBit = [4]uint8{9, 3, 5, 7}

type Controller struct {
	irq *interrupts.Service

	counter uint16 // internal free-running 16-bit counter; DIV = counter>>8
	tima    uint8
	tma     uint8
	tac     uint8 // low 3 bits used: bit2 = enable, bits0-1 = clock select

	lastEdgeInput bool
}

func NewController(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq}
}

func (c *Controller) selectedBit() bool {
	return c.tac&0x04 != 0 && c.counter&(1<<counterBit[c.tac&3]) != 0
}

// Tick advances the internal counter by clocks T-cycles, checking for a
// falling edge of the TAC-selected bit after every individual increment
// (a multi-cycle jump could otherwise skip an edge).
func (c *Controller) Tick(clocks uint) {
	for i := uint(0); i < clocks; i++ {
		c.counter++
		c.checkEdge()
	}
}

func (c *Controller) checkEdge() {
	edge := c.selectedBit()
	if c.lastEdgeInput && !edge {
		c.incrementTIMA()
	}
	c.lastEdgeInput = edge
}

func (c *Controller) incrementTIMA() {
	c.tima++
	if c.tima == 0 {
		c.tima = c.tma
		c.irq.Request(interrupts.Timer)
	}
}

// ReadDIV returns the upper byte of the internal counter.
func (c *Controller) ReadDIV() uint8 {
	return uint8(c.counter >> 8)
}

// WriteDIV resets the internal counter to zero. Since this can clear a
// previously-1 selected bit, it must raise a falling edge if the timer is
// enabled and that bit was set.
func (c *Controller) WriteDIV(uint8) {
	c.counter = 0
	c.checkEdge()
}

func (c *Controller) ReadTIMA() uint8 { return c.tima }
func (c *Controller) WriteTIMA(v uint8) {
	c.tima = v
}

func (c *Controller) ReadTMA() uint8 { return c.tma }
func (c *Controller) WriteTMA(v uint8) {
	c.tma = v
}

func (c *Controller) ReadTAC() uint8 {
	return c.tac | 0xF8
}

// WriteTAC updates TAC. Disabling the timer while the selected bit is
// high, like clearing DIV while enabled, is itself a falling edge and
// must increment TIMA.
func (c *Controller) WriteTAC(v uint8) {
	c.tac = v & 0x07
	c.checkEdge()
}

var _ state.Stater = (*Controller)(nil)

func (c *Controller) Save(s *state.Chunk) {
	s.Write16(c.counter)
	s.Write8(c.tima)
	s.Write8(c.tma)
	s.Write8(c.tac)
	s.WriteBool(c.lastEdgeInput)
}

func (c *Controller) Load(s *state.Chunk) {
	c.counter = s.Read16()
	c.tima = s.Read8()
	c.tma = s.Read8()
	c.tac = s.Read8()
	c.lastEdgeInput = s.ReadBool()
}
