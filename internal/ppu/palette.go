package ppu

// colorWhiteXBGR1555 is color index 0 of the default DMG palette, used to
// clear the frame buffer when the LCD is switched off.
const colorWhiteXBGR1555 = 0x7FFF

// dmgShades are the four monochrome shades (white..black) encoded as
// XBGR1555, in palette-index order.
var dmgShades = [4]uint16{
	rgb15(0xFF, 0xFF, 0xFF),
	rgb15(0xAA, 0xAA, 0xAA),
	rgb15(0x55, 0x55, 0x55),
	rgb15(0x00, 0x00, 0x00),
}

func rgb15(r, g, b uint8) uint16 {
	return uint16(r>>3) | uint16(g>>3)<<5 | uint16(b>>3)<<10
}

// dmgColor resolves a 2-bit color index through a DMG palette register
// (BGP/OBP0/OBP1): each 2-bit field of the register selects one of the
// four shades.
func dmgColor(palette uint8, index uint8) uint16 {
	shade := (palette >> (index * 2)) & 0x03
	return dmgShades[shade]
}

// cgbColor resolves a 2-bit color index through one of the 8 CGB
// palettes (4 colors x 2 bytes, little-endian BGR555) and converts the
// native GBC BGR555 to the host's XBGR1555.
func cgbColor(paletteRAM *[64]byte, paletteNum, index uint8) uint16 {
	off := int(paletteNum)*8 + int(index)*2
	lo := paletteRAM[off]
	hi := paletteRAM[off+1]
	bgr := uint16(hi)<<8 | uint16(lo)
	r := bgr & 0x1F
	g := (bgr >> 5) & 0x1F
	b := (bgr >> 10) & 0x1F
	return r | g<<5 | b<<10
}
