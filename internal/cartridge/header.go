package cartridge

import "fmt"

// MBCKind identifies the memory bank controller a cartridge uses.
type MBCKind uint8

const (
	KindNoMBC MBCKind = iota
	KindMBC1
	KindMBC2
	KindMBC3
	KindMBC5
	KindMMM01
	KindMBC6
	KindMBC7
	KindUnsupported
)

func (k MBCKind) String() string {
	switch k {
	case KindNoMBC:
		return "NoMBC"
	case KindMBC1:
		return "MBC1"
	case KindMBC2:
		return "MBC2"
	case KindMBC3:
		return "MBC3"
	case KindMBC5:
		return "MBC5"
	case KindMMM01:
		return "MMM01"
	case KindMBC6:
		return "MBC6"
	case KindMBC7:
		return "MBC7"
	default:
		return "Unsupported"
	}
}

// romBanksByCode and ramBytesByCode decode the size codes at 0x0148/0x0149.
var romBanksByCode = map[uint8]int{
	0x00: 2, 0x01: 4, 0x02: 8, 0x03: 16, 0x04: 32, 0x05: 64, 0x06: 128,
	0x07: 256, 0x08: 512, 0x52: 72, 0x53: 80, 0x54: 96,
}

var ramBytesByCode = map[uint8]int{
	0x00: 0, 0x01: 2 * 1024, 0x02: 8 * 1024, 0x03: 32 * 1024,
	0x04: 128 * 1024, 0x05: 64 * 1024,
}

// typeToKind implements spec.md §6 Table A.
func typeToKind(code uint8) (MBCKind, bool /* hasRTC */, bool /* hasBattery */) {
	switch {
	case code == 0x00 || code == 0x08 || code == 0x09 || code == 0xFC || code == 0xFD:
		return KindNoMBC, false, code == 0x09
	case code >= 0x01 && code <= 0x03:
		return KindMBC1, false, code == 0x03
	case code == 0x05 || code == 0x06:
		return KindMBC2, false, code == 0x06
	case code == 0x0F || code == 0x10:
		return KindMBC3, true, true
	case code >= 0x11 && code <= 0x13:
		return KindMBC3, false, code == 0x13
	case code >= 0x19 && code <= 0x1E:
		return KindMBC5, false, code == 0x1B || code == 0x1D || code == 0x1E
	case code >= 0x0B && code <= 0x0D:
		return KindMMM01, false, code == 0x0D
	case code == 0x20:
		return KindMBC6, false, true
	case code == 0x22:
		return KindMBC7, false, true
	default:
		return KindUnsupported, false, false
	}
}

// Header is the parsed cartridge header at 0x0100-0x014F.
type Header struct {
	Title          string
	CGBFlag        uint8 // raw byte at 0x0143
	CGBCapable     bool  // bit 7 set (bit 6 is ignored per spec.md §6)
	SGBFlag        bool
	TypeCode       uint8
	Kind           MBCKind
	HasRTC         bool
	HasBattery     bool
	ROMBanks       int
	RAMBytes       int
	NumROMBits     uint8 // ceil(log2(ROMBanks))
	NumRAMBits     uint8
	HeaderChecksum uint8
	ChecksumOK     bool
}

// ErrMalformed is returned when the ROM is too short to contain a header
// or declares a size code this implementation cannot decode.
type ErrMalformed struct{ Reason string }

func (e *ErrMalformed) Error() string { return "cartridge: malformed rom: " + e.Reason }

func parseHeader(rom []byte) (Header, error) {
	if len(rom) < 0x150 {
		return Header{}, &ErrMalformed{Reason: "shorter than header"}
	}

	h := Header{}
	titleEnd := 0x0144
	for i := 0x0134; i < titleEnd; i++ {
		if rom[i] == 0 {
			titleEnd = i
			break
		}
	}
	h.Title = string(rom[0x0134:titleEnd])

	h.CGBFlag = rom[0x0143]
	h.CGBCapable = h.CGBFlag&0x80 != 0
	h.SGBFlag = rom[0x0146] == 0x03

	h.TypeCode = rom[0x0147]
	kind, rtc, batt := typeToKind(h.TypeCode)
	h.Kind = kind
	h.HasRTC = rtc
	h.HasBattery = batt

	banks, ok := romBanksByCode[rom[0x0148]]
	if !ok {
		return Header{}, &ErrMalformed{Reason: fmt.Sprintf("unknown rom size code 0x%02X", rom[0x0148])}
	}
	h.ROMBanks = banks
	h.NumROMBits = log2Ceil(banks)

	ramBytes, ok := ramBytesByCode[rom[0x0149]]
	if !ok {
		return Header{}, &ErrMalformed{Reason: fmt.Sprintf("unknown ram size code 0x%02X", rom[0x0149])}
	}
	h.RAMBytes = ramBytes
	if ramBytes > 0 {
		h.NumRAMBits = log2Ceil(ramBytes / (8 * 1024))
		if h.NumRAMBits == 0 {
			h.NumRAMBits = 1
		}
	}

	h.HeaderChecksum = rom[0x014D]
	var sum uint8
	for i := 0x0134; i <= 0x014C; i++ {
		sum = sum - rom[i] - 1
	}
	h.ChecksumOK = sum == h.HeaderChecksum

	return h, nil
}

func log2Ceil(n int) uint8 {
	var bits uint8
	v := 1
	for v < n {
		v <<= 1
		bits++
	}
	return bits
}
