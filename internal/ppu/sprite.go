package ppu

// spriteEntry is one OAM entry scanned for the current line.
type spriteEntry struct {
	y, x, tile, attr uint8
	oamIndex         int
}

// scanSprites collects up to 10 sprites intersecting ly, in OAM order.
func (p *PPU) scanSprites(ly uint8) []spriteEntry {
	height := uint8(8)
	if p.lcdc&lcdcOBJSize != 0 {
		height = 16
	}

	var found []spriteEntry
	for i := 0; i < 40 && len(found) < 10; i++ {
		base := i * 4
		y := p.oam[base]
		top := int(y) - 16
		if int(ly) < top || int(ly) >= top+int(height) {
			continue
		}
		found = append(found, spriteEntry{
			y:        y,
			x:        p.oam[base+1],
			tile:     p.oam[base+2],
			attr:     p.oam[base+3],
			oamIndex: i,
		})
	}
	return found
}

// renderSprites composites the object layer for ly onto out, respecting
// BG/OBJ priority per pixel (spec.md §4.4, §8).
func (p *PPU) renderSprites(ly uint8, bg *[ScreenWidth]bgPixel, out *[ScreenWidth]uint16) {
	sprites := p.scanSprites(ly)
	if len(sprites) == 0 {
		return
	}

	// DMG priority: smaller X wins, ties broken by OAM order; lower
	// priority sprites are drawn first so higher priority overwrites
	// them. Sort ascending by (x, oamIndex) then draw back to front.
	for i := 1; i < len(sprites); i++ {
		for j := i; j > 0; j-- {
			a, b := sprites[j-1], sprites[j]
			if a.x < b.x || (a.x == b.x && a.oamIndex <= b.oamIndex) {
				break
			}
			sprites[j-1], sprites[j] = sprites[j], sprites[j-1]
		}
	}

	height := uint8(8)
	if p.lcdc&lcdcOBJSize != 0 {
		height = 16
	}

	for i := len(sprites) - 1; i >= 0; i-- {
		sp := sprites[i]
		left := int(sp.x) - 8
		if left <= -8 || left >= ScreenWidth {
			continue
		}

		row := ly - (sp.y - 16)
		if sp.attr&0x40 != 0 { // y-flip
			row = height - 1 - row
		}

		tile := sp.tile
		if height == 16 {
			tile &^= 0x01
			if row >= 8 {
				tile |= 0x01
				row -= 8
			}
		}

		bank := 0
		paletteNum := uint8(0)
		if p.isCGB {
			bank = int(sp.attr >> 3 & 1)
			paletteNum = sp.attr & 0x07
		}

		tileAddr := 0x8000 + uint16(tile)*16
		lo := p.ReadVRAMBank(bank, tileAddr+uint16(row)*2)
		hi := p.ReadVRAMBank(bank, tileAddr+uint16(row)*2+1)

		bgPriority := sp.attr&0x80 != 0
		for fx := 0; fx < 8; fx++ {
			x := left + fx
			if x < 0 || x >= ScreenWidth {
				continue
			}

			col := uint8(fx)
			if sp.attr&0x20 != 0 { // x-flip
				col = 7 - uint8(fx)
			}
			colorIndex := tileColorIndex(lo, hi, col)
			if colorIndex == 0 {
				continue
			}

			if p.bgObjPriorityBlocksSprite(bg[x], bgPriority) {
				continue
			}

			var color uint16
			if p.isCGB {
				color = cgbColor(&p.objPalette, paletteNum, colorIndex)
			} else if sp.attr&0x10 != 0 {
				color = dmgColor(p.obp1, colorIndex)
			} else {
				color = dmgColor(p.obp0, colorIndex)
			}
			out[x] = color
		}
	}
}

// bgObjPriorityBlocksSprite reports whether the background pixel should
// be kept instead of the sprite pixel, per spec.md §4.4's CGB/DMG priority
// rules.
func (p *PPU) bgObjPriorityBlocksSprite(bg bgPixel, spritePriority bool) bool {
	if bg.noPalette {
		return false
	}
	if p.isCGB {
		if p.lcdc&lcdcBGWindowEnable == 0 {
			// BG master priority off: objects always win.
			return false
		}
		if bg.priority && bg.colorIndex != 0 {
			return true
		}
	}
	if spritePriority && bg.colorIndex != 0 {
		return true
	}
	return false
}
