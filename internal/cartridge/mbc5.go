package cartridge

import "github.com/haldorsen/gbz80core/internal/state"

// mbc5 implements the MBC5 controller: a 9-bit ROM bank number split
// across two write windows, and a 4-bit RAM bank. Spec.md §3, §4.3.
type mbc5 struct {
	rom []byte
	ram []byte

	romMask uint16
	ramMask uint16

	ramEnabled bool
	romLo      uint8
	romHi      bool
	ramBankno  uint8
}

func newMBC5(rom, ram []byte, numROMBanks, numRAMBanks int) *mbc5 {
	return &mbc5{
		rom:     rom,
		ram:     ram,
		romMask: bankMask(numROMBanks),
		ramMask: bankMask(max(numRAMBanks, 1)),
		romLo:   1,
	}
}

func (m *mbc5) romBank() uint16 {
	bank := uint16(m.romLo)
	if m.romHi {
		bank |= 0x100
	}
	return bank & m.romMask
}

func (m *mbc5) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	}
	off := uint32(m.romBank())*0x4000 + uint32(addr-0x4000)
	if int(off) < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *mbc5) ReadRAM(addr uint16) uint8 {
	if !m.ramEnabled || len(m.ram) == 0 {
		return 0xFF
	}
	off := uint32(uint16(m.ramBankno)&m.ramMask)*0x2000 + uint32(addr-0xA000)
	if int(off) < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}

func (m *mbc5) WriteControl(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v == 0x0A
	case addr < 0x3000:
		m.romLo = v
	case addr < 0x4000:
		m.romHi = v&1 != 0
	case addr < 0x6000:
		m.ramBankno = v & 0x0F
	}
}

func (m *mbc5) WriteRAM(addr uint16, v uint8) {
	if !m.ramEnabled || len(m.ram) == 0 {
		return
	}
	off := uint32(uint16(m.ramBankno)&m.ramMask)*0x2000 + uint32(addr-0xA000)
	if int(off) < len(m.ram) {
		m.ram[off] = v
	}
}

func (m *mbc5) RAM() []byte { return m.ram }

func (m *mbc5) Tick(clocks uint) {}

func (m *mbc5) Save(s *state.Chunk) {
	s.WriteBytes(m.ram)
	s.WriteBool(m.ramEnabled)
	s.Write8(m.romLo)
	s.WriteBool(m.romHi)
	s.Write8(m.ramBankno)
}

func (m *mbc5) Load(s *state.Chunk) {
	copy(m.ram, s.ReadBytes(len(m.ram)))
	m.ramEnabled = s.ReadBool()
	m.romLo = s.Read8()
	m.romHi = s.ReadBool()
	m.ramBankno = s.Read8()
}
