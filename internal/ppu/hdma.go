package ppu

import "github.com/haldorsen/gbz80core/internal/state"

// HDMA is the CGB VRAM transfer controller (HDMA1-5, spec.md §4.6). A
// general-purpose transfer (HDMA5 bit 7 clear) copies its whole length in
// one shot; an H-Blank transfer (bit 7 set) copies 0x10 bytes per H-Blank
// period until exhausted, and can be cancelled mid-flight by a write with
// bit 7 clear.
type HDMA struct {
	p *PPU

	src, dst   uint16
	active     bool
	hblankMode bool
	remaining  uint16

	readSource func(addr uint16) uint8
}

func newHDMA(p *PPU) *HDMA { return &HDMA{p: p} }

// SetSourceReader wires the byte source transfers copy from (ROM or WRAM;
// VRAM-to-VRAM transfers are not meaningful on hardware and are not
// special-cased here).
func (h *HDMA) SetSourceReader(fn func(addr uint16) uint8) { h.readSource = fn }

func (h *HDMA) ReadHDMA1() uint8 { return uint8(h.src >> 8) }
func (h *HDMA) ReadHDMA2() uint8 { return uint8(h.src) }
func (h *HDMA) ReadHDMA3() uint8 { return uint8(h.dst >> 8) }
func (h *HDMA) ReadHDMA4() uint8 { return uint8(h.dst) }

func (h *HDMA) WriteHDMA1(v uint8) { h.src = h.src&0x00FF | uint16(v)<<8 }
func (h *HDMA) WriteHDMA2(v uint8) { h.src = h.src&0xFF00 | uint16(v&0xF0) }
func (h *HDMA) WriteHDMA3(v uint8) { h.dst = h.dst&0x00F0 | uint16(v&0x1F)<<8 }
func (h *HDMA) WriteHDMA4(v uint8) { h.dst = h.dst&0x1F00 | uint16(v&0xF0) }

// ReadHDMA5 reports remaining length (in 16-byte units, minus one) with
// bit 7 clear while an H-Blank transfer is active, or 0xFF when idle.
func (h *HDMA) ReadHDMA5() uint8 {
	if h.active && h.hblankMode {
		return uint8(h.remaining/0x10-1) & 0x7F
	}
	return 0xFF
}

// WriteHDMA5 starts a transfer, or, if an H-Blank transfer is already
// running, a bit-7-clear write terminates it instead of starting a new one.
func (h *HDMA) WriteHDMA5(v uint8) {
	if h.active && h.hblankMode && v&0x80 == 0 {
		h.active = false
		return
	}

	length := (uint16(v&0x7F) + 1) * 0x10
	h.hblankMode = v&0x80 != 0

	if !h.hblankMode {
		h.copyChunk(length)
		h.active = false
		return
	}

	h.active = true
	h.remaining = length
}

// OnHBlank runs one 0x10-byte burst of an active H-Blank transfer; the
// PPU calls it on every HBlank mode entry.
func (h *HDMA) OnHBlank() {
	if !h.active || !h.hblankMode {
		return
	}
	h.copyChunk(0x10)
	h.remaining -= 0x10
	if h.remaining == 0 {
		h.active = false
	}
}

func (h *HDMA) copyChunk(n uint16) {
	bank := h.p.vramBank()
	for i := uint16(0); i < n; i++ {
		var b uint8
		if h.readSource != nil {
			b = h.readSource(h.src)
		}
		h.p.vram[bank][h.dst&0x1FFF] = b
		h.src++
		h.dst = (h.dst + 1) & 0x1FFF
	}
}

var _ state.Stater = (*HDMA)(nil)

func (h *HDMA) Save(s *state.Chunk) {
	s.Write16(h.src)
	s.Write16(h.dst)
	s.WriteBool(h.active)
	s.WriteBool(h.hblankMode)
	s.Write16(h.remaining)
}

func (h *HDMA) Load(s *state.Chunk) {
	h.src = s.Read16()
	h.dst = s.Read16()
	h.active = s.ReadBool()
	h.hblankMode = s.ReadBool()
	h.remaining = s.Read16()
}
