package cartridge

import "github.com/haldorsen/gbz80core/internal/state"

// noMBC is a plain 32 KiB ROM with no banking, optionally with a single
// 8 KiB RAM bank.
type noMBC struct {
	rom []byte
	ram []byte
}

func newNoMBC(rom []byte, ramSize int) *noMBC {
	return &noMBC{rom: rom, ram: make([]byte, ramSize)}
}

func (m *noMBC) ReadROM(addr uint16) uint8 {
	if int(addr) < len(m.rom) {
		return m.rom[addr]
	}
	return 0xFF
}

func (m *noMBC) ReadRAM(addr uint16) uint8 {
	off := addr - 0xA000
	if int(off) < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}

func (m *noMBC) WriteControl(addr uint16, v uint8) {}

func (m *noMBC) WriteRAM(addr uint16, v uint8) {
	off := addr - 0xA000
	if int(off) < len(m.ram) {
		m.ram[off] = v
	}
}

func (m *noMBC) RAM() []byte { return m.ram }

func (m *noMBC) Tick(clocks uint) {}

func (m *noMBC) Save(s *state.Chunk) { s.WriteBytes(m.ram) }
func (m *noMBC) Load(s *state.Chunk) {
	copy(m.ram, s.ReadBytes(len(m.ram)))
}
