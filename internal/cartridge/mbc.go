package cartridge

import "github.com/haldorsen/gbz80core/internal/state"

// MBC is the interface every memory bank controller implements. The
// cartridge window spans 0x0000-0x7FFF (ROM + bank control writes) and
// 0xA000-0xBFFF (external RAM / MBC3 RTC).
type MBC interface {
	ReadROM(addr uint16) uint8
	ReadRAM(addr uint16) uint8
	WriteControl(addr uint16, v uint8)
	WriteRAM(addr uint16, v uint8)

	// RAM returns the live external RAM banks, concatenated, for the
	// cartridge save-file writer. It is empty for controllers with no RAM.
	RAM() []byte

	// Tick advances MBC-local timing (MBC3's real-time clock). A no-op
	// for controllers without one.
	Tick(clocks uint)

	state.Stater
}

// RTCController is implemented by MBCs that expose a real-time clock, so
// the save-file writer/reader can append/consume the 48-byte RTC tail and
// the host can fast-forward it by elapsed wall-clock seconds.
type RTCController interface {
	RTCRegisters() (s, m, h, dl, dh, latchedS, latchedM, latchedH uint32)
	SetRTCRegisters(s, m, h, dl, dh, latchedS, latchedM, latchedH uint32)
	FastForward(seconds uint64)
}

func bankMask(numBanks int) uint16 {
	return uint16(numBanks - 1)
}
