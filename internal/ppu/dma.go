package ppu

import "github.com/haldorsen/gbz80core/internal/state"

// DMA is the OAM DMA controller (spec.md §4.6): a write to FF46 copies 160
// bytes from (value<<8) into OAM over 640 T-cycles, 4 cycles per byte. The
// CPU only sees HRAM during the transfer; everything else it is blocked
// from is enforced by bus.Bus via Active.
type DMA struct {
	p *PPU

	active bool
	source uint16
	pos    uint8
	cycle  uint8

	readSource func(addr uint16) uint8
}

func newDMA(p *PPU) *DMA { return &DMA{p: p} }

// SetSourceReader wires the byte source the transfer copies from. The
// wiring layer passes bus.Bus.ReadDMASource so the transfer can reach ROM,
// WRAM or VRAM alike, bypassing the Active-transfer block the bus itself
// applies to ordinary reads.
func (d *DMA) SetSourceReader(fn func(uint16) uint8) { d.readSource = fn }

// Active reports whether an OAM transfer is in flight.
func (d *DMA) Active() bool { return d.active }

// ReadReg returns the last byte written to FF46 (high byte of the most
// recent source address); real hardware reads back what was written.
func (d *DMA) ReadReg() uint8 { return uint8(d.source >> 8) }

// WriteReg starts a new transfer, restarting one already in progress.
func (d *DMA) WriteReg(v uint8) {
	d.active = true
	d.source = uint16(v) << 8
	d.pos = 0
	d.cycle = 0
}

// Tick advances the in-flight transfer, if any, by clocks T-cycles.
func (d *DMA) Tick(clocks uint) {
	if !d.active {
		return
	}
	for i := uint(0); i < clocks && d.active; i++ {
		d.cycle++
		if d.cycle < 4 {
			continue
		}
		d.cycle = 0
		if d.readSource != nil {
			d.p.oam[d.pos] = d.readSource(d.source + uint16(d.pos))
		}
		d.pos++
		if d.pos >= 160 {
			d.active = false
		}
	}
}

var _ state.Stater = (*DMA)(nil)

func (d *DMA) Save(s *state.Chunk) {
	s.WriteBool(d.active)
	s.Write16(d.source)
	s.Write8(d.pos)
	s.Write8(d.cycle)
}

func (d *DMA) Load(s *state.Chunk) {
	d.active = s.ReadBool()
	d.source = s.Read16()
	d.pos = s.Read8()
	d.cycle = s.Read8()
}
