// Package cpu implements the Sharp LR35902 instruction set: the register
// file, flag semantics, decoding of the base opcode page and the
// CB-prefixed page, and interrupt/HALT/STOP handling (spec.md §4.1).
package cpu

import (
	"github.com/haldorsen/gbz80core/internal/bus"
	"github.com/haldorsen/gbz80core/internal/interrupts"
	"github.com/haldorsen/gbz80core/internal/state"
)

// mode tracks the states Step can be in besides straight-line execution.
type mode uint8

const (
	modeNormal mode = iota
	modeHalt
	modeHaltBug
	modeStop
	modeLocked // illegal opcode executed; hardware requires a reset
)

// CPU is the Sharp LR35902 core. It owns no other component; it is driven
// one Step at a time by the top-level loop, which distributes the
// returned cycle count to the timer, PPU, APU and DMA.
type CPU struct {
	Registers
	SP, PC uint16

	bus *bus.Bus
	irq *interrupts.Service

	mode        mode
	doubleSpeed bool
	cycles      uint
}

func New(b *bus.Bus, irq *interrupts.Service) *CPU {
	return &CPU{bus: b, irq: irq, PC: 0x0100, SP: 0xFFFE}
}

// SetDoubleSpeed overrides the speed flag; STOP sets the flag itself when
// it completes an armed CGB speed switch.
func (c *CPU) SetDoubleSpeed(v bool) { c.doubleSpeed = v }
func (c *CPU) DoubleSpeed() bool     { return c.doubleSpeed }

func (c *CPU) tick() { c.cycles++ }

// tick4 accounts for one M-cycle (4 T-cycles); this is the granularity
// every memory access and internal delay in the opcode table uses.
func (c *CPU) tick4() { c.cycles += 4 }

func (c *CPU) readByte(addr uint16) uint8 {
	c.tick4()
	return c.bus.Read(addr)
}

func (c *CPU) writeByte(addr uint16, v uint8) {
	c.tick4()
	c.bus.Write(addr, v)
}

func (c *CPU) fetch() uint8 {
	v := c.readByte(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push(v uint16) {
	c.SP--
	c.writeByte(c.SP, uint8(v>>8))
	c.SP--
	c.writeByte(c.SP, uint8(v))
}

func (c *CPU) pop() uint16 {
	lo := c.readByte(c.SP)
	c.SP++
	hi := c.readByte(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) hasPendingInterrupt() bool {
	return c.irq.ReadIE()&c.irq.ReadIF()&0x1F != 0
}

// Step executes one instruction (or one HALT/STOP tick) and returns the
// number of T-cycles it consumed, included any interrupt dispatch.
func (c *CPU) Step() uint {
	c.cycles = 0
	c.irq.ResolveEI()

	switch c.mode {
	case modeHalt, modeStop:
		c.tick4()
		if c.hasPendingInterrupt() {
			c.mode = modeNormal
		}
	case modeLocked:
		c.tick4()
	case modeHaltBug:
		op := c.fetch()
		c.PC--
		c.execute(op)
		c.mode = modeNormal
	default:
		c.execute(c.fetch())
	}

	if c.mode != modeLocked && c.irq.IME && c.hasPendingInterrupt() {
		c.dispatchInterrupt()
	}
	return c.cycles
}

func (c *CPU) dispatchInterrupt() {
	kind, ok := c.irq.Highest()
	if !ok {
		return
	}
	c.tick4()
	c.tick4()
	c.push(c.PC)
	c.PC = uint16(kind.Vector())
	c.irq.IME = false
	c.irq.Clear(kind)
	c.tick4()
}

var _ state.Stater = (*CPU)(nil)

func (c *CPU) Save(s *state.Chunk) {
	s.Write8(c.A)
	s.Write8(c.F)
	s.Write8(c.B)
	s.Write8(c.C)
	s.Write8(c.D)
	s.Write8(c.E)
	s.Write8(c.H)
	s.Write8(c.L)
	s.Write16(c.SP)
	s.Write16(c.PC)
	s.Write8(uint8(c.mode))
	s.WriteBool(c.doubleSpeed)
}

func (c *CPU) Load(s *state.Chunk) {
	c.A = s.Read8()
	c.F = s.Read8()
	c.B = s.Read8()
	c.C = s.Read8()
	c.D = s.Read8()
	c.E = s.Read8()
	c.H = s.Read8()
	c.L = s.Read8()
	c.SP = s.Read16()
	c.PC = s.Read16()
	c.mode = mode(s.Read8())
	c.doubleSpeed = s.ReadBool()
}
