package ppu

import (
	"testing"

	"github.com/haldorsen/gbz80core/internal/interrupts"
)

func newTestPPU() *PPU {
	return New(interrupts.NewService(), false, nil)
}

func TestSTATInterruptFiresOnlyOnRisingEdge(t *testing.T) {
	p := newTestPPU()
	irq := p.irq
	p.lcdc = lcdcEnable
	p.stat = statLYCEnable
	p.ly = 5
	p.lyc = 5

	irq.Flag = 0
	p.checkSTATLine()
	if irq.Flag&(1<<uint8(interrupts.LCDStat)) == 0 {
		t.Fatalf("expected LCDStat requested on the rising edge")
	}

	irq.Clear(interrupts.LCDStat)
	p.checkSTATLine() // line still high: must not re-fire
	if irq.Flag&(1<<uint8(interrupts.LCDStat)) != 0 {
		t.Fatalf("expected no re-fire while the STAT line stays high")
	}

	p.ly = 6 // line drops low
	p.checkSTATLine()
	irq.Clear(interrupts.LCDStat)
	p.lyc = 6 // and rises again
	p.checkSTATLine()
	if irq.Flag&(1<<uint8(interrupts.LCDStat)) == 0 {
		t.Fatalf("expected LCDStat to re-fire on a fresh rising edge")
	}
}

func TestLYCFlagTracksLYEquality(t *testing.T) {
	p := newTestPPU()
	p.ly = 10
	p.lyc = 10
	p.checkSTATLine()
	if p.stat&statLYCFlag == 0 {
		t.Fatalf("expected LYC flag set when LY == LYC")
	}
	p.ly = 11
	p.checkSTATLine()
	if p.stat&statLYCFlag != 0 {
		t.Fatalf("expected LYC flag cleared when LY != LYC")
	}
}

func TestVBlankInterruptFiresOncePerFrame(t *testing.T) {
	p := newTestPPU()
	irq := p.irq
	p.lcdc = lcdcEnable
	p.mode = ModeOAM

	p.Tick(dotsPerLine * 144) // advance through all visible lines
	if irq.Flag&(1<<uint8(interrupts.VBlank)) == 0 {
		t.Fatalf("expected VBlank interrupt requested entering line 144")
	}
	irq.Clear(interrupts.VBlank)

	p.Tick(dotsPerLine * 9) // stay inside VBlank (lines 145-153)
	if irq.Flag&(1<<uint8(interrupts.VBlank)) != 0 {
		t.Fatalf("expected no re-fire while still inside VBlank")
	}
}

// writeSolidTile fills 8x8 tile index with a uniform color index (0-3) in
// VRAM bank 0.
func writeSolidTile(p *PPU, tile uint8, colorIndex uint8) {
	addr := uint16(0x8000) + uint16(tile)*16
	var lo, hi uint8
	if colorIndex&0x01 != 0 {
		lo = 0xFF
	}
	if colorIndex&0x02 != 0 {
		hi = 0xFF
	}
	for row := 0; row < 8; row++ {
		p.WriteVRAM(addr+uint16(row)*2, lo)
		p.WriteVRAM(addr+uint16(row)*2+1, hi)
	}
}

func TestRenderSpritesSmallerXWins(t *testing.T) {
	p := newTestPPU()
	p.lcdc = lcdcEnable | lcdcOBJEnable
	p.obp0 = 0xE4
	p.obp1 = 0x1B // a visibly different palette so the winner is identifiable

	writeSolidTile(p, 1, 2) // color index 2 throughout
	// sprite A: OAM index 0, x=16 (covers screen columns 8-15), uses OBP0
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 16, 1, 0
	// sprite B: OAM index 1, x=18 (covers columns 10-17), uses OBP1, overlaps A
	p.oam[4], p.oam[5], p.oam[6], p.oam[7] = 16, 18, 1, 0x10

	var bg [ScreenWidth]bgPixel
	var out [ScreenWidth]uint16
	p.renderSprites(0, &bg, &out)

	wantA := dmgColor(p.obp0, 2)
	overlapCol := 10 // covered by both A (cols 8-15) and B (cols 10-17)
	if out[overlapCol] != wantA {
		t.Fatalf("expected the smaller-X sprite (A, OBP0) to win the overlap, got color %#04x want %#04x", out[overlapCol], wantA)
	}

	onlyBCol := 16 // covered by B only (cols 10-17), not by A (cols 8-15)
	wantB := dmgColor(p.obp1, 2)
	if out[onlyBCol] != wantB {
		t.Fatalf("expected B's own column to show OBP1's color, got %#04x want %#04x", out[onlyBCol], wantB)
	}
}

func TestRenderBackgroundDecodedTileCacheTracksVRAMRewrites(t *testing.T) {
	p := newTestPPU()
	p.lcdc = lcdcEnable | lcdcBGWindowEnable | lcdcBGWindowTiles
	p.bgp = 0xE4

	writeSolidTile(p, 0, 1) // tile 0, color index 1 throughout
	// map entry (0,0) -> tile 0; renderBackground reads it on every call.
	p.WriteVRAM(0x9800, 0)

	var bg [ScreenWidth]bgPixel
	p.renderBackground(0, &bg)
	if bg[0].colorIndex != 1 {
		t.Fatalf("expected color index 1 from tile 0, got %d", bg[0].colorIndex)
	}

	writeSolidTile(p, 0, 3) // rewrite tile 0's bytes: color index 3 throughout
	p.renderBackground(0, &bg)
	if bg[0].colorIndex != 3 {
		t.Fatalf("expected the decoded-tile cache to pick up the rewrite, got color index %d", bg[0].colorIndex)
	}
}

func TestBGPriorityBlocksSpriteWhenBGNonZero(t *testing.T) {
	p := newTestPPU()
	p.lcdc = lcdcEnable | lcdcOBJEnable | lcdcBGWindowEnable
	p.obp0 = 0xE4
	writeSolidTile(p, 1, 1)
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 16, 1, 0x80 // bg-priority bit set

	var bg [ScreenWidth]bgPixel
	bg[8] = bgPixel{colorIndex: 1} // non-zero background pixel beneath the sprite
	var out [ScreenWidth]uint16
	out[8] = 0xBEEF // sentinel so we can tell whether the sprite touched it
	p.renderSprites(0, &bg, &out)

	if out[8] != 0xBEEF {
		t.Fatalf("expected BG-priority sprite to yield to a non-zero background pixel, got %#04x", out[8])
	}
}
