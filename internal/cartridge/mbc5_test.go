package cartridge

import "testing"

func TestMBC5BankZeroIsSelectable(t *testing.T) {
	// unlike MBC1/MBC3, writing 0 to MBC5's bank register selects bank 0
	// rather than aliasing to bank 1.
	rom := make([]byte, 2*0x4000)
	rom[0x4000] = 0xAA // bank 1's first byte, to distinguish from bank 0
	m := newMBC5(rom, nil, 2, 0)

	m.WriteControl(0x2000, 0x00)
	if got := m.romBank(); got != 0 {
		t.Fatalf("expected bank register 0 to select bank 0, got %d", got)
	}
}

func TestMBC5NineBitBankSpansHiRegister(t *testing.T) {
	const numBanks = 258
	rom := make([]byte, numBanks*0x4000)
	rom[257*0x4000] = 0xCD

	m := newMBC5(rom, nil, numBanks, 0)
	m.WriteControl(0x2000, 0x01) // low 8 bits of the bank number
	m.WriteControl(0x3000, 0x01) // bit 8

	if got := m.romBank(); got != 257 {
		t.Fatalf("expected the hi bit to push the bank number to 257, got %d", got)
	}
	if got := m.ReadROM(0x4000); got != 0xCD {
		t.Fatalf("expected bank 257's first byte, got %#02x", got)
	}
}

func TestMBC5RAMBankSelectAndEnableGate(t *testing.T) {
	ram := make([]byte, 4*0x2000)
	m := newMBC5(nil, ram, 2, 4)

	m.WriteControl(0x4000, 0x02) // select RAM bank 2
	m.WriteRAM(0xA000, 0x77)
	if got := m.ReadRAM(0xA000); got != 0xFF {
		t.Fatalf("expected 0xFF with RAM disabled, got %#02x", got)
	}

	m.WriteControl(0x0000, 0x0A) // enable
	m.WriteRAM(0xA000, 0x77)
	if got := m.ReadRAM(0xA000); got != 0x77 {
		t.Fatalf("expected bank 2's byte once enabled, got %#02x", got)
	}

	m.WriteControl(0x4000, 0x00) // switch back to bank 0
	if got := m.ReadRAM(0xA000); got == 0x77 {
		t.Fatalf("expected a different RAM bank to not see bank 2's write")
	}
}
