package cartridge

import "github.com/haldorsen/gbz80core/internal/state"

// mbc1 implements the MBC1 controller: a 5-bit low ROM bank selector, a
// shared 2-bit upper selector (ROM bits 5-6, or the RAM bank in mode 1),
// and a banking-mode toggle. See spec.md §4.1 and §4.3.
type mbc1 struct {
	rom []byte
	ram []byte

	romMask uint16
	ramMask uint16

	ramEnabled bool
	romBankLo  uint8 // 5 bits, 0x2000-0x3FFF
	upperBits  uint8 // 2 bits, 0x4000-0x5FFF
	mode       bool  // 0x6000-0x7FFF
}

func newMBC1(rom, ram []byte, numROMBanks, numRAMBanks int) *mbc1 {
	return &mbc1{
		rom:       rom,
		ram:       ram,
		romMask:   bankMask(numROMBanks),
		ramMask:   bankMask(max(numRAMBanks, 1)),
		romBankLo: 1,
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (m *mbc1) romBank() uint16 {
	raw := uint16(m.upperBits)<<5 | uint16(m.romBankLo)
	return raw & m.romMask
}

func (m *mbc1) zeroBank() uint16 {
	if !m.mode {
		return 0
	}
	return (uint16(m.upperBits) << 5) & m.romMask
}

func (m *mbc1) ramBank() uint16 {
	if !m.mode {
		return 0
	}
	return uint16(m.upperBits) & m.ramMask
}

func (m *mbc1) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		bank := m.zeroBank()
		off := uint32(bank)*0x4000 + uint32(addr)
		if int(off) < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	}
	bank := m.romBank()
	off := uint32(bank)*0x4000 + uint32(addr-0x4000)
	if int(off) < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *mbc1) ReadRAM(addr uint16) uint8 {
	if !m.ramEnabled || len(m.ram) == 0 {
		return 0xFF
	}
	off := uint32(m.ramBank())*0x2000 + uint32(addr-0xA000)
	if int(off) < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}

func (m *mbc1) WriteControl(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x4000:
		v &= 0x1F
		if v == 0 {
			v = 1
		}
		m.romBankLo = v
	case addr < 0x6000:
		m.upperBits = v & 0x03
	default:
		m.mode = v&1 != 0
	}
}

func (m *mbc1) WriteRAM(addr uint16, v uint8) {
	if !m.ramEnabled || len(m.ram) == 0 {
		return
	}
	off := uint32(m.ramBank())*0x2000 + uint32(addr-0xA000)
	if int(off) < len(m.ram) {
		m.ram[off] = v
	}
}

func (m *mbc1) RAM() []byte { return m.ram }

func (m *mbc1) Tick(clocks uint) {}

func (m *mbc1) Save(s *state.Chunk) {
	s.WriteBytes(m.ram)
	s.WriteBool(m.ramEnabled)
	s.Write8(m.romBankLo)
	s.Write8(m.upperBits)
	s.WriteBool(m.mode)
}

func (m *mbc1) Load(s *state.Chunk) {
	copy(m.ram, s.ReadBytes(len(m.ram)))
	m.ramEnabled = s.ReadBool()
	m.romBankLo = s.Read8()
	m.upperBits = s.Read8()
	m.mode = s.ReadBool()
}
