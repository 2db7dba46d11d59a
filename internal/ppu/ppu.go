// Package ppu implements the pixel-processing unit: the mode state
// machine (spec.md §4.4), scanline compositor (DMG and CGB paths), and
// the STAT interrupt's edge-triggered OR line.
package ppu

import (
	"github.com/cespare/xxhash"
	"github.com/haldorsen/gbz80core/internal/interrupts"
	"github.com/haldorsen/gbz80core/internal/state"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	dotsPerLine  = 456
	linesPerFrame = 154
)

// Mode is the current PPU scan mode.
type Mode uint8

const (
	ModeHBlank Mode = 0
	ModeVBlank Mode = 1
	ModeOAM    Mode = 2
	ModeDraw   Mode = 3
)

// LCDC bits.
const (
	lcdcBGWindowEnable = 1 << 0
	lcdcOBJEnable      = 1 << 1
	lcdcOBJSize        = 1 << 2
	lcdcBGTileMap      = 1 << 3
	lcdcBGWindowTiles  = 1 << 4
	lcdcWindowEnable   = 1 << 5
	lcdcWindowTileMap  = 1 << 6
	lcdcEnable         = 1 << 7
)

// STAT bits.
const (
	statLYCEnable    = 1 << 6
	statOAMEnable    = 1 << 5
	statVBlankEnable = 1 << 4
	statHBlankEnable = 1 << 3
	statLYCFlag      = 1 << 2
)

// PresentFunc receives a completed frame in XBGR1555 host format.
type PresentFunc func(frame []uint16)

type PPU struct {
	irq *interrupts.Service

	lcdc, stat         uint8
	scy, scx           uint8
	ly, lyc            uint8
	wx, wy             uint8
	windowLineInternal uint8
	bgp, obp0, obp1    uint8

	vram [2]*[0x2000]byte
	oam  [0xA0]byte
	vbk  uint8

	// CGB palette RAM: 8 palettes x 4 colors x 2 bytes, little-endian
	// BGR555.
	bgPalette  [64]byte
	objPalette [64]byte
	bgpi, obpi uint8 // index register, bit 7 = auto-increment

	isCGB bool

	dotClock uint32
	mode     Mode
	prevMode Mode
	statLine bool

	frame         [ScreenWidth * ScreenHeight]uint16
	frameReady    bool
	frameSeq      uint64

	// tileHash/tileDecoded cache the per-pixel color-index decode of every
	// tile, keyed by a content hash of its 16 raw bytes: a tile referenced
	// by several map entries, or across several scanlines of the same
	// map entry, is only re-decoded when its bytes actually change.
	tileHash    [2][384]uint64
	tileDecoded [2][384][8][8]uint8

	dma  *DMA
	hdma *HDMA

	present PresentFunc

	Debug struct {
		BackgroundDisabled bool
		WindowDisabled     bool
		SpritesDisabled    bool
	}
}

func New(irq *interrupts.Service, isCGB bool, present PresentFunc) *PPU {
	p := &PPU{irq: irq, isCGB: isCGB, present: present}
	p.vram[0] = &[0x2000]byte{}
	p.vram[1] = &[0x2000]byte{}
	p.dma = newDMA(p)
	p.hdma = newHDMA(p)
	return p
}

func (p *PPU) DMA() *DMA   { return p.dma }
func (p *PPU) HDMA() *HDMA { return p.hdma }

// --- VideoMemory (bus.VideoMemory) ---

func (p *PPU) vramBank() int {
	if p.isCGB {
		return int(p.vbk & 1)
	}
	return 0
}

func (p *PPU) ReadVRAM(addr uint16) uint8 {
	return p.vram[p.vramBank()][addr-0x8000]
}

func (p *PPU) WriteVRAM(addr uint16, v uint8) {
	p.vram[p.vramBank()][addr-0x8000] = v
}

// ReadVRAMBank reads from an explicit bank, used by the renderer for CGB
// tile attributes (bank 1) regardless of the current VBK selection.
func (p *PPU) ReadVRAMBank(bank int, addr uint16) uint8 {
	return p.vram[bank][addr-0x8000]
}

func (p *PPU) ReadOAM(addr uint16) uint8 {
	return p.oam[addr-0xFE00]
}

func (p *PPU) WriteOAM(addr uint16, v uint8) {
	p.oam[addr-0xFE00] = v
}

func (p *PPU) OAMLocked() bool {
	return p.lcdc&lcdcEnable != 0 && (p.mode == ModeOAM || p.mode == ModeDraw)
}

// --- register I/O, installed by the wiring layer via bus.RegisterIO ---

func (p *PPU) ReadLCDC() uint8 { return p.lcdc }
func (p *PPU) WriteLCDC(v uint8) {
	wasEnabled := p.lcdc&lcdcEnable != 0
	p.lcdc = v
	nowEnabled := v&lcdcEnable != 0
	if wasEnabled && !nowEnabled {
		p.dotClock = 0
		p.ly = 0
		p.mode = ModeHBlank
		p.clearFrame()
	} else if !wasEnabled && nowEnabled {
		p.dotClock = 0
		p.mode = ModeOAM
	}
}

func (p *PPU) ReadSTAT() uint8 {
	return p.stat&0xF8 | uint8(p.mode) | 0x80
}

func (p *PPU) WriteSTAT(v uint8) {
	p.stat = v & 0x78
	p.checkSTATLine()
}

func (p *PPU) ReadSCY() uint8    { return p.scy }
func (p *PPU) WriteSCY(v uint8)  { p.scy = v }
func (p *PPU) ReadSCX() uint8    { return p.scx }
func (p *PPU) WriteSCX(v uint8)  { p.scx = v }
func (p *PPU) ReadLY() uint8     { return p.ly }
func (p *PPU) WriteLY(uint8)     {} // read-only on hardware
func (p *PPU) ReadLYC() uint8    { return p.lyc }
func (p *PPU) WriteLYC(v uint8)  { p.lyc = v; p.checkSTATLine() }
func (p *PPU) ReadWX() uint8     { return p.wx }
func (p *PPU) WriteWX(v uint8)   { p.wx = v }
func (p *PPU) ReadWY() uint8     { return p.wy }
func (p *PPU) WriteWY(v uint8)   { p.wy = v }
func (p *PPU) ReadBGP() uint8    { return p.bgp }
func (p *PPU) WriteBGP(v uint8)  { p.bgp = v }
func (p *PPU) ReadOBP0() uint8   { return p.obp0 }
func (p *PPU) WriteOBP0(v uint8) { p.obp0 = v }
func (p *PPU) ReadOBP1() uint8   { return p.obp1 }
func (p *PPU) WriteOBP1(v uint8) { p.obp1 = v }

func (p *PPU) ReadVBK() uint8   { return p.vbk | 0xFE }
func (p *PPU) WriteVBK(v uint8) { p.vbk = v & 1 }

func (p *PPU) ReadBGPI() uint8 { return p.bgpi | 0x40 }
func (p *PPU) WriteBGPI(v uint8) { p.bgpi = v & 0xBF }
func (p *PPU) ReadBGPD() uint8 { return p.bgPalette[p.bgpi&0x3F] }
func (p *PPU) WriteBGPD(v uint8) {
	p.bgPalette[p.bgpi&0x3F] = v
	if p.bgpi&0x80 != 0 {
		p.bgpi = p.bgpi&0x80 | (p.bgpi+1)&0x3F
	}
}

func (p *PPU) ReadOBPI() uint8 { return p.obpi | 0x40 }
func (p *PPU) WriteOBPI(v uint8) { p.obpi = v & 0xBF }
func (p *PPU) ReadOBPD() uint8 { return p.objPalette[p.obpi&0x3F] }
func (p *PPU) WriteOBPD(v uint8) {
	p.objPalette[p.obpi&0x3F] = v
	if p.obpi&0x80 != 0 {
		p.obpi = p.obpi&0x80 | (p.obpi+1)&0x3F
	}
}

// --- mode state machine ---

// Tick advances the PPU by clocks T-cycles.
func (p *PPU) Tick(clocks uint) {
	p.dma.Tick(clocks)
	if p.lcdc&lcdcEnable == 0 {
		return
	}
	for i := uint(0); i < clocks; i++ {
		p.tickOne()
	}
}

// SetDMASourceReader and SetHDMASourceReader wire the OAM-DMA and
// VRAM-DMA byte sources; the wiring layer calls these with
// bus.Bus.ReadDMASource once both are constructed.
func (p *PPU) SetDMASourceReader(fn func(uint16) uint8)  { p.dma.SetSourceReader(fn) }
func (p *PPU) SetHDMASourceReader(fn func(uint16) uint8) { p.hdma.SetSourceReader(fn) }

func (p *PPU) ReadDMA() uint8     { return p.dma.ReadReg() }
func (p *PPU) WriteDMA(v uint8)   { p.dma.WriteReg(v) }
func (p *PPU) ReadHDMA1() uint8   { return p.hdma.ReadHDMA1() }
func (p *PPU) ReadHDMA2() uint8   { return p.hdma.ReadHDMA2() }
func (p *PPU) ReadHDMA3() uint8   { return p.hdma.ReadHDMA3() }
func (p *PPU) ReadHDMA4() uint8   { return p.hdma.ReadHDMA4() }
func (p *PPU) ReadHDMA5() uint8   { return p.hdma.ReadHDMA5() }
func (p *PPU) WriteHDMA1(v uint8) { p.hdma.WriteHDMA1(v) }
func (p *PPU) WriteHDMA2(v uint8) { p.hdma.WriteHDMA2(v) }
func (p *PPU) WriteHDMA3(v uint8) { p.hdma.WriteHDMA3(v) }
func (p *PPU) WriteHDMA4(v uint8) { p.hdma.WriteHDMA4(v) }
func (p *PPU) WriteHDMA5(v uint8) { p.hdma.WriteHDMA5(v) }

func (p *PPU) tickOne() {
	p.dotClock = (p.dotClock + 1) % (dotsPerLine * linesPerFrame)
	lineDot := p.dotClock % dotsPerLine
	p.ly = uint8(p.dotClock / dotsPerLine)

	p.prevMode = p.mode
	switch {
	case p.ly >= 144:
		p.mode = ModeVBlank
	case lineDot < 80:
		p.mode = ModeOAM
	case lineDot < 168:
		p.mode = ModeDraw
	default:
		p.mode = ModeHBlank
	}

	if p.prevMode == ModeDraw && p.mode == ModeHBlank {
		p.renderScanline(p.ly)
		p.hdma.OnHBlank()
	}
	if p.prevMode != ModeVBlank && p.mode == ModeVBlank {
		p.irq.Request(interrupts.VBlank)
		p.presentFrame()
	}

	p.checkSTATLine()
}

// checkSTATLine recomputes the OR of the four STAT sub-lines and requests
// LCD_STAT exactly once per low-to-high transition (spec.md §4.4, §8).
func (p *PPU) checkSTATLine() {
	lyc := p.stat&statLYCEnable != 0 && p.ly == p.lyc
	hblank := p.stat&statHBlankEnable != 0 && p.mode == ModeHBlank
	vblank := p.stat&statVBlankEnable != 0 && p.mode == ModeVBlank
	oam := p.stat&statOAMEnable != 0 && p.mode == ModeOAM

	if p.ly == p.lyc {
		p.stat |= statLYCFlag
	} else {
		p.stat &^= statLYCFlag
	}

	line := lyc || hblank || vblank || oam
	if line && !p.statLine {
		p.irq.Request(interrupts.LCDStat)
	}
	p.statLine = line
}

func (p *PPU) presentFrame() {
	p.windowLineInternal = 0
	p.frameReady = true
	p.frameSeq++
	if p.present != nil {
		p.present(p.frame[:])
	}
}

func (p *PPU) clearFrame() {
	for i := range p.frame {
		p.frame[i] = colorWhiteXBGR1555
	}
}

// HasFrame reports whether a frame completed since the last ClearRefresh.
func (p *PPU) HasFrame() bool { return p.frameReady }
func (p *PPU) ClearRefresh()  { p.frameReady = false }
func (p *PPU) Frame() []uint16 { return p.frame[:] }
func (p *PPU) FrameSeq() uint64 { return p.frameSeq }
func (p *PPU) CurrentMode() Mode { return p.mode }

func tileHashKey(bank int, data []byte) uint64 {
	return xxhash.Sum64(data)
}

// decodedTile returns the cached 8x8 color-index grid for the tile whose
// data starts at tileAddr (0x8000-0x97FF) in the given VRAM bank,
// re-decoding it only when tileHashKey reports its bytes changed since
// the last call.
func (p *PPU) decodedTile(bank int, tileAddr uint16) *[8][8]uint8 {
	slot := (tileAddr - 0x8000) / 16
	off := int(slot) * 16
	data := p.vram[bank][off : off+16]

	h := tileHashKey(bank, data)
	if p.tileHash[bank][slot] != h {
		p.tileHash[bank][slot] = h
		tile := &p.tileDecoded[bank][slot]
		for row := 0; row < 8; row++ {
			lo, hi := data[row*2], data[row*2+1]
			for col := 0; col < 8; col++ {
				tile[row][col] = tileColorIndex(lo, hi, uint8(col))
			}
		}
	}
	return &p.tileDecoded[bank][slot]
}

var _ state.Stater = (*PPU)(nil)

func (p *PPU) Save(s *state.Chunk) {
	s.WriteBytes(p.vram[0][:])
	s.WriteBytes(p.vram[1][:])
	s.WriteBytes(p.oam[:])
	s.Write8(p.lcdc)
	s.Write8(p.stat)
	s.Write8(p.scy)
	s.Write8(p.scx)
	s.Write8(p.ly)
	s.Write8(p.lyc)
	s.Write8(p.wx)
	s.Write8(p.wy)
	s.Write8(p.windowLineInternal)
	s.Write8(p.bgp)
	s.Write8(p.obp0)
	s.Write8(p.obp1)
	s.Write8(p.vbk)
	s.WriteBytes(p.bgPalette[:])
	s.WriteBytes(p.objPalette[:])
	s.Write8(p.bgpi)
	s.Write8(p.obpi)
	s.Write32(p.dotClock)
	s.Write8(uint8(p.mode))
	s.WriteBool(p.statLine)
	p.dma.Save(s)
	p.hdma.Save(s)
}

func (p *PPU) Load(s *state.Chunk) {
	copy(p.vram[0][:], s.ReadBytes(0x2000))
	copy(p.vram[1][:], s.ReadBytes(0x2000))
	copy(p.oam[:], s.ReadBytes(0xA0))
	p.lcdc = s.Read8()
	p.stat = s.Read8()
	p.scy = s.Read8()
	p.scx = s.Read8()
	p.ly = s.Read8()
	p.lyc = s.Read8()
	p.wx = s.Read8()
	p.wy = s.Read8()
	p.windowLineInternal = s.Read8()
	p.bgp = s.Read8()
	p.obp0 = s.Read8()
	p.obp1 = s.Read8()
	p.vbk = s.Read8()
	copy(p.bgPalette[:], s.ReadBytes(64))
	copy(p.objPalette[:], s.ReadBytes(64))
	p.bgpi = s.Read8()
	p.obpi = s.Read8()
	p.dotClock = s.Read32()
	p.mode = Mode(s.Read8())
	p.statLine = s.ReadBool()
	p.dma.Load(s)
	p.hdma.Load(s)
}
