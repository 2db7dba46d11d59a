// Package cartridge owns the cartridge ROM/RAM banks and the per-kind MBC
// dispatch logic (spec.md §4.3).
package cartridge

import (
	"fmt"

	"github.com/haldorsen/gbz80core/internal/state"
)

// ErrUnsupportedMBC is returned for MBC2/MBC6/MBC7/MMM01/HuC cartridges.
// Per SPEC_FULL.md §7 the core refuses to start rather than degrade.
type ErrUnsupportedMBC struct{ Kind MBCKind }

func (e *ErrUnsupportedMBC) Error() string {
	return fmt.Sprintf("cartridge: unsupported mbc kind %s", e.Kind)
}

// Cartridge wraps the parsed header and the constructed MBC.
type Cartridge struct {
	Header Header
	MBC    MBC
}

// New parses rom and constructs the appropriate MBC. A header checksum
// mismatch is non-fatal (surfaced via Header.ChecksumOK) per spec.md §7.
func New(rom []byte) (*Cartridge, error) {
	h, err := parseHeader(rom)
	if err != nil {
		return nil, err
	}

	ramBanks := h.RAMBytes / (8 * 1024)

	var mbc MBC
	switch h.Kind {
	case KindNoMBC:
		mbc = newNoMBC(rom, h.RAMBytes)
	case KindMBC1:
		mbc = newMBC1(rom, make([]byte, h.RAMBytes), h.ROMBanks, max(ramBanks, 1))
	case KindMBC3:
		mbc = newMBC3(rom, make([]byte, h.RAMBytes), h.ROMBanks, h.HasRTC)
	case KindMBC5:
		mbc = newMBC5(rom, make([]byte, h.RAMBytes), h.ROMBanks, max(ramBanks, 1))
	default:
		return nil, &ErrUnsupportedMBC{Kind: h.Kind}
	}

	return &Cartridge{Header: h, MBC: mbc}, nil
}

func (c *Cartridge) Read(addr uint16) uint8 {
	if addr < 0x8000 {
		return c.MBC.ReadROM(addr)
	}
	return c.MBC.ReadRAM(addr)
}

func (c *Cartridge) Write(addr uint16, v uint8) {
	if addr < 0x8000 {
		c.MBC.WriteControl(addr, v)
		return
	}
	c.MBC.WriteRAM(addr, v)
}

func (c *Cartridge) Tick(clocks uint) {
	c.MBC.Tick(clocks)
}

var _ state.Stater = (*Cartridge)(nil)

func (c *Cartridge) Save(s *state.Chunk) { c.MBC.Save(s) }
func (c *Cartridge) Load(s *state.Chunk) { c.MBC.Load(s) }
