package ppu

// bgPixel is the compositor slot for one background/window pixel before
// sprites are drawn over it.
type bgPixel struct {
	colorIndex uint8
	paletteNum uint8 // CGB BG palette 0-7; always 0 on DMG
	priority   bool  // CGB tile attribute bit 7
	noPalette  bool  // DMG "BG/window disabled" forced-white tag
}

// renderScanline composes one 160-pixel row of the frame buffer for ly,
// background + window + sprites, and writes it into p.frame.
func (p *PPU) renderScanline(ly uint8) {
	var bg [ScreenWidth]bgPixel
	p.renderBackground(ly, &bg)
	windowDrawn := p.renderWindow(ly, &bg)
	if windowDrawn {
		p.windowLineInternal++
	}

	var out [ScreenWidth]uint16
	for x := 0; x < ScreenWidth; x++ {
		out[x] = p.resolveBGColor(bg[x])
	}

	if p.lcdc&lcdcOBJEnable != 0 && !p.Debug.SpritesDisabled {
		p.renderSprites(ly, &bg, &out)
	}

	copy(p.frame[int(ly)*ScreenWidth:(int(ly)+1)*ScreenWidth], out[:])
}

func (p *PPU) resolveBGColor(px bgPixel) uint16 {
	if px.noPalette {
		return dmgShades[0]
	}
	if p.isCGB {
		return cgbColor(&p.bgPalette, px.paletteNum, px.colorIndex)
	}
	return dmgColor(p.bgp, px.colorIndex)
}

func (p *PPU) bgTileDataAddr(tileIndex uint8) uint16 {
	if p.lcdc&lcdcBGWindowTiles != 0 {
		return 0x8000 + uint16(tileIndex)*16
	}
	return uint16(0x9000 + int16(int8(tileIndex))*16)
}

func (p *PPU) renderBackground(ly uint8, bg *[ScreenWidth]bgPixel) {
	disabled := !p.isCGB && p.lcdc&lcdcBGWindowEnable == 0
	if disabled || p.Debug.BackgroundDisabled {
		for x := range bg {
			bg[x] = bgPixel{noPalette: true}
		}
		return
	}

	mapBase := uint16(0x9800)
	if p.lcdc&lcdcBGTileMap != 0 {
		mapBase = 0x9C00
	}

	y := uint16(p.scy) + uint16(ly)
	tileRow := (y / 8) % 32
	fineY := y % 8

	for x := 0; x < ScreenWidth; x++ {
		px := uint16(p.scx) + uint16(x)
		tileCol := (px / 8) % 32
		fineX := px % 8

		mapAddr := mapBase + tileRow*32 + tileCol
		tileIndex := p.ReadVRAMBank(0, mapAddr)

		var attr uint8
		bank := 0
		if p.isCGB {
			attr = p.ReadVRAMBank(1, mapAddr)
			bank = int(attr >> 3 & 1)
		}

		tileAddr := p.bgTileDataAddr(tileIndex)
		fy := fineY
		fx := fineX
		if p.isCGB {
			if attr&0x40 != 0 { // y-flip
				fy = 7 - fy
			}
			if attr&0x20 != 0 { // x-flip
				fx = 7 - fx
			}
		}

		tile := p.decodedTile(bank, tileAddr)
		colorIndex := tile[fy][fx]

		bg[x] = bgPixel{
			colorIndex: colorIndex,
			paletteNum: attr & 0x07,
			priority:   p.isCGB && attr&0x80 != 0,
		}
	}
}

// renderWindow overlays the window layer where visible, returning whether
// it drew on this scanline (so the caller advances the internal window
// line counter only on visible lines).
func (p *PPU) renderWindow(ly uint8, bg *[ScreenWidth]bgPixel) bool {
	if p.lcdc&lcdcWindowEnable == 0 || p.Debug.WindowDisabled {
		return false
	}
	if p.wx > 166 || p.wy > 143 || ly < p.wy {
		return false
	}

	mapBase := uint16(0x9800)
	if p.lcdc&lcdcWindowTileMap != 0 {
		mapBase = 0x9C00
	}

	wx := int(p.wx) - 7
	tileRow := uint16(p.windowLineInternal) / 8
	fineY := uint16(p.windowLineInternal) % 8

	drew := false
	for x := 0; x < ScreenWidth; x++ {
		if x < wx {
			continue
		}
		drew = true
		col := uint16(x-wx) / 8
		fineX := uint16(x-wx) % 8

		mapAddr := mapBase + tileRow*32 + col
		tileIndex := p.ReadVRAMBank(0, mapAddr)

		var attr uint8
		bank := 0
		if p.isCGB {
			attr = p.ReadVRAMBank(1, mapAddr)
			bank = int(attr >> 3 & 1)
		}

		tileAddr := p.bgTileDataAddr(tileIndex)
		fy := fineY
		fx := fineX
		if p.isCGB {
			if attr&0x40 != 0 {
				fy = 7 - fy
			}
			if attr&0x20 != 0 {
				fx = 7 - fx
			}
		}

		tile := p.decodedTile(bank, tileAddr)
		colorIndex := tile[fy][fx]

		bg[x] = bgPixel{
			colorIndex: colorIndex,
			paletteNum: attr & 0x07,
			priority:   p.isCGB && attr&0x80 != 0,
		}
	}
	return drew
}

// tileColorIndex extracts the 2-bit color index for pixel fx (0 = leftmost)
// from a tile row's two bitplane bytes.
func tileColorIndex(lo, hi uint8, fx uint8) uint8 {
	bit := 7 - fx
	loB := (lo >> bit) & 1
	hiB := (hi >> bit) & 1
	return hiB<<1 | loB
}
