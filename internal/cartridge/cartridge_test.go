package cartridge

import "testing"

// buildROM constructs a minimal, checksum-valid header for typeCode at
// the given size, zero-filled otherwise. Shared by this package's tests.
func buildROM(t *testing.T, typeCode uint8, romSizeCode, ramSizeCode uint8) []byte {
	t.Helper()
	rom := make([]byte, 0x8000)
	copy(rom[0x0134:], "TESTGAME")
	rom[0x0147] = typeCode
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode

	var sum uint8
	for i := 0x0134; i <= 0x014C; i++ {
		sum = sum - rom[i] - 1
	}
	rom[0x014D] = sum
	return rom
}

func TestNewNoMBC(t *testing.T) {
	rom := buildROM(t, 0x00, 0x00, 0x00)
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Header.Kind != KindNoMBC {
		t.Fatalf("expected KindNoMBC, got %v", c.Header.Kind)
	}
	if c.Header.Title != "TESTGAME" {
		t.Fatalf("expected title TESTGAME, got %q", c.Header.Title)
	}
	if !c.Header.ChecksumOK {
		t.Fatalf("expected checksum to validate")
	}
}

func TestNewUnsupportedMBC(t *testing.T) {
	rom := buildROM(t, 0x20, 0x00, 0x00) // MBC6
	_, err := New(rom)
	var target *ErrUnsupportedMBC
	if err == nil {
		t.Fatalf("expected error for MBC6")
	}
	if e, ok := err.(*ErrUnsupportedMBC); !ok || e.Kind != KindMBC6 {
		t.Fatalf("expected ErrUnsupportedMBC{MBC6}, got %T %v (%v)", err, err, target)
	}
}

func TestMalformedROMTooShort(t *testing.T) {
	_, err := New(make([]byte, 0x10))
	if err == nil {
		t.Fatalf("expected error for truncated rom")
	}
}
