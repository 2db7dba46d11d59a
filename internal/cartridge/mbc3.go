package cartridge

import "github.com/haldorsen/gbz80core/internal/state"

// rtcCyclesPerSecond is the CPU clock rate; the RTC down-counter ticks
// once per T-cycle and rolls a second every time it empties.
const rtcCyclesPerSecond = 4194304

// mbc3 implements the MBC3 controller with up to 4 RAM banks and an
// optional real-time clock (spec.md §3, §4.3).
type mbc3 struct {
	rom []byte
	ram []byte

	romMask uint16

	ramAndRTCEnabled bool
	romBankno        uint8 // 7 bits
	selector         uint8 // 0x00-0x03 RAM bank, 0x08-0x0C RTC register
	latchPrev        uint8
	latched          bool

	hasRTC bool
	s, m, h uint16
	d       uint16 // 9-bit day counter
	halt    bool
	dayCarry bool

	latch [5]byte // S, M, H, DL, DH

	tickCountdown uint32
}

func newMBC3(rom, ram []byte, numROMBanks int, hasRTC bool) *mbc3 {
	return &mbc3{
		rom:           rom,
		ram:           ram,
		romMask:       bankMask(numROMBanks),
		romBankno:     1,
		hasRTC:        hasRTC,
		tickCountdown: rtcCyclesPerSecond,
	}
}

func (m *mbc3) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	}
	bank := uint16(m.romBankno) & m.romMask
	off := uint32(bank)*0x4000 + uint32(addr-0x4000)
	if int(off) < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *mbc3) ReadRAM(addr uint16) uint8 {
	if !m.ramAndRTCEnabled {
		return 0xFF
	}
	if m.hasRTC && m.selector >= 0x08 && m.selector <= 0x0C {
		return m.latch[m.selector-0x08] | rtcUnusedMask[m.selector-0x08]
	}
	if m.selector <= 0x03 && len(m.ram) > 0 {
		off := uint32(m.selector)*0x2000 + uint32(addr-0xA000)
		if int(off) < len(m.ram) {
			return m.ram[off]
		}
	}
	return 0xFF
}

var rtcUnusedMask = [5]uint8{0xC0, 0xC0, 0xE0, 0x00, 0x3E}

func (m *mbc3) WriteControl(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		m.ramAndRTCEnabled = v&0x0F == 0x0A
	case addr < 0x4000:
		v &= 0x7F
		if v == 0 {
			v = 1
		}
		m.romBankno = v
	case addr < 0x6000:
		m.selector = v
	default:
		if m.latchPrev == 0x00 && v == 0x01 {
			m.captureLatch()
		}
		m.latchPrev = v
	}
}

func (m *mbc3) captureLatch() {
	m.latch[0] = uint8(m.s)
	m.latch[1] = uint8(m.m)
	m.latch[2] = uint8(m.h)
	m.latch[3] = uint8(m.d)
	dh := uint8(m.d >> 8 & 1)
	if m.halt {
		dh |= 0x40
	}
	if m.dayCarry {
		dh |= 0x80
	}
	m.latch[4] = dh
}

func (m *mbc3) WriteRAM(addr uint16, v uint8) {
	if !m.ramAndRTCEnabled {
		return
	}
	if m.hasRTC && m.selector >= 0x08 && m.selector <= 0x0C {
		switch m.selector {
		case 0x08:
			m.s = uint16(v) & 0x3F
			if m.s == 60 {
				m.rollMinute()
			}
		case 0x09:
			m.m = uint16(v) & 0x3F
			if m.m == 60 {
				m.rollHour()
			}
		case 0x0A:
			m.h = uint16(v) & 0x1F
			if m.h == 24 {
				m.rollDay()
			}
		case 0x0B:
			m.d = m.d&0x100 | uint16(v)
		case 0x0C:
			if v&1 != 0 {
				m.d |= 0x100
			} else {
				m.d &^= 0x100
			}
			m.halt = v&0x40 != 0
			m.dayCarry = v&0x80 != 0
		}
		return
	}
	if m.selector <= 0x03 && len(m.ram) > 0 {
		off := uint32(m.selector)*0x2000 + uint32(addr-0xA000)
		if int(off) < len(m.ram) {
			m.ram[off] = v
		}
	}
}

func (m *mbc3) RAM() []byte { return m.ram }

// Tick advances the RTC's 2^22 Hz down-counter; when it empties, the
// second (then minute, hour, day) counters roll over per spec.md §4.3.
func (m *mbc3) Tick(clocks uint) {
	if !m.hasRTC || m.halt {
		return
	}
	for clocks > 0 {
		step := clocks
		if uint64(step) > uint64(m.tickCountdown) {
			step = uint(m.tickCountdown)
		}
		m.tickCountdown -= uint32(step)
		clocks -= step
		if m.tickCountdown == 0 {
			m.tickCountdown = rtcCyclesPerSecond
			m.s++
			if m.s == 60 {
				m.rollMinute()
			}
		}
	}
}

func (m *mbc3) rollMinute() {
	m.s = 0
	m.m++
	if m.m == 60 {
		m.rollHour()
	}
}

func (m *mbc3) rollHour() {
	m.m = 0
	m.h++
	if m.h == 24 {
		m.rollDay()
	}
}

func (m *mbc3) rollDay() {
	m.h = 0
	m.d++
	if m.d > 0x1FF {
		m.d = 0
		m.dayCarry = true
	}
}

func (m *mbc3) RTCRegisters() (s, m2, h, dl, dh, ls, lm, lh uint32) {
	return uint32(m.s), uint32(m.m), uint32(m.h), uint32(m.d & 0xFF), uint32(m.d >> 8),
		uint32(m.latch[0]), uint32(m.latch[1]), uint32(m.latch[2])
}

func (m *mbc3) SetRTCRegisters(s, mi, h, dl, dh, ls, lm, lh uint32) {
	m.s, m.m, m.h = uint16(s), uint16(mi), uint16(h)
	m.d = uint16(dl) | uint16(dh&1)<<8
	m.latch[0], m.latch[1], m.latch[2] = uint8(ls), uint8(lm), uint8(lh)
}

// FastForward advances the RTC by the given number of elapsed real
// seconds, applied at load time (spec.md §5, §6).
func (m *mbc3) FastForward(seconds uint64) {
	if !m.hasRTC || m.halt {
		return
	}
	for ; seconds > 0; seconds-- {
		m.s++
		if m.s == 60 {
			m.rollMinute()
		}
	}
}

var _ RTCController = (*mbc3)(nil)

func (m *mbc3) Save(s *state.Chunk) {
	s.WriteBytes(m.ram)
	s.WriteBool(m.ramAndRTCEnabled)
	s.Write8(m.romBankno)
	s.Write8(m.selector)
	s.Write8(m.latchPrev)
	s.WriteBool(m.latched)
	s.Write16(m.s)
	s.Write16(m.m)
	s.Write16(m.h)
	s.Write16(m.d)
	s.WriteBool(m.halt)
	s.WriteBool(m.dayCarry)
	s.WriteBytes(m.latch[:])
	s.Write32(m.tickCountdown)
}

func (m *mbc3) Load(s *state.Chunk) {
	copy(m.ram, s.ReadBytes(len(m.ram)))
	m.ramAndRTCEnabled = s.ReadBool()
	m.romBankno = s.Read8()
	m.selector = s.Read8()
	m.latchPrev = s.Read8()
	m.latched = s.ReadBool()
	m.s = s.Read16()
	m.m = s.Read16()
	m.h = s.Read16()
	m.d = s.Read16()
	m.halt = s.ReadBool()
	m.dayCarry = s.ReadBool()
	copy(m.latch[:], s.ReadBytes(5))
	m.tickCountdown = s.Read32()
}
