package cartridge

import "testing"

func TestMBC1BankZeroAlias(t *testing.T) {
	numBanks := 64
	rom := make([]byte, numBanks*0x4000)
	// tag every bank's first byte with its own index so reads are
	// unambiguous about which bank answered.
	for i := 0; i < numBanks; i++ {
		rom[i*0x4000] = byte(i)
	}

	m := newMBC1(rom, nil, numBanks, 1)

	// mode 0 (default): the 0x0000-0x3FFF window always reads bank 0,
	// regardless of the upper selector bits.
	m.WriteControl(0x4000, 0x01) // upperBits = 1
	if got := m.ReadROM(0x0000); got != 0 {
		t.Fatalf("mode 0 zero-bank: expected bank 0, got bank %d", got)
	}

	// mode 1: the upper selector bits retarget the 0x0000-0x3FFF window
	// to bank (upperBits<<5), the classic MBC1 "large ROM" alias.
	m.WriteControl(0x6000, 0x01) // mode = 1
	if got := m.ReadROM(0x0000); got != 32 {
		t.Fatalf("mode 1 zero-bank: expected bank 32, got bank %d", got)
	}

	// the switchable window is unaffected by the alias and still follows
	// the low 5 bits plus the upper selector.
	m.WriteControl(0x2000, 0x03) // romBankLo = 3
	if got := m.ReadROM(0x4000); got != 32+3 {
		t.Fatalf("switchable window: expected bank 35, got bank %d", got)
	}
}

func TestMBC1RAMGatedByEnable(t *testing.T) {
	rom := make([]byte, 2*0x4000)
	ram := make([]byte, 0x2000)
	m := newMBC1(rom, ram, 2, 1)

	m.WriteRAM(0xA000, 0x42)
	if got := m.ReadRAM(0xA000); got != 0xFF {
		t.Fatalf("expected 0xFF with ram disabled, got %#02x", got)
	}

	m.WriteControl(0x0000, 0x0A) // enable
	m.WriteRAM(0xA000, 0x42)
	if got := m.ReadRAM(0xA000); got != 0x42 {
		t.Fatalf("expected 0x42 with ram enabled, got %#02x", got)
	}
}

func TestMBC1RomBankZeroNeverSelectsBankZero(t *testing.T) {
	rom := make([]byte, 4*0x4000)
	m := newMBC1(rom, nil, 4, 1)

	m.WriteControl(0x2000, 0x00) // write 0 to the bank register
	if m.romBank() != 1 {
		t.Fatalf("expected writing 0 to romBankLo to select bank 1, got %d", m.romBank())
	}
}
