// Package bus implements the Game Boy's 16-bit memory-mapped address
// space (spec.md §4.2). It is the explicit "bus context" called for in
// spec.md §9: sub-systems are constructed with a reference to the Bus (or
// register themselves into it) but the Bus never reaches back into a
// sub-system beyond the two narrow interfaces below.
package bus

import (
	"github.com/haldorsen/gbz80core/internal/cartridge"
	"github.com/haldorsen/gbz80core/internal/interrupts"
	"github.com/haldorsen/gbz80core/internal/state"
)

// VideoMemory is the narrow surface the bus needs from the PPU: VRAM and
// OAM storage, plus whether OAM is currently locked against CPU reads
// (used only to pick the Prohibited-region read value, spec.md §4.2 rule
// 8).
type VideoMemory interface {
	ReadVRAM(addr uint16) uint8
	WriteVRAM(addr uint16, v uint8)
	ReadOAM(addr uint16) uint8
	WriteOAM(addr uint16, v uint8)
	OAMLocked() bool
}

// ioReg is one dispatchable I/O register in 0xFF00-0xFF7F.
type ioReg struct {
	get func() uint8
	set func(uint8)
}

// Bus routes 16-bit addresses to the owning component. It holds the
// WRAM/HRAM arrays directly (no component "owns" plain RAM better than
// the bus that serves it) and the cartridge + interrupt service, plus a
// registry of per-address I/O closures that CPU-external components
// (timer, joypad, APU, PPU) populate at construction.
type Bus struct {
	Cart *cartridge.Cartridge
	irq  *interrupts.Service
	io   [0x80]ioReg

	wram     [8][0x1000]byte
	wramBank uint8 // SVBK low 3 bits, CGB only; 0 behaves as 1
	hram     [0x7F]byte

	bootROM         []byte
	bootEnabled     bool
	bootDisableOnce bool

	isCGB bool
	key0  uint8
	key1  uint8
	vbk   uint8

	video VideoMemory

	dmaActive func() bool
}

func New(cart *cartridge.Cartridge, irq *interrupts.Service, isCGB bool) *Bus {
	b := &Bus{Cart: cart, irq: irq, isCGB: isCGB, wramBank: 1}
	b.dmaActive = func() bool { return false }

	b.RegisterIO(0xFF0F, func() uint8 { return b.irq.ReadIF() }, b.irq.WriteIF)
	b.RegisterIO(0xFFFF, func() uint8 { return b.irq.ReadIE() }, b.irq.WriteIE)
	b.RegisterIO(0xFF50, func() uint8 { return 0xFF }, b.writeBootDisable)
	if isCGB {
		b.RegisterIO(0xFF4D, func() uint8 { return b.key1 }, func(v uint8) { b.key1 = b.key1&0x80 | v&0x01 })
		b.RegisterIO(0xFF4C, func() uint8 { return b.key0 }, func(v uint8) { b.key0 = v })
		b.RegisterIO(0xFF70, func() uint8 { return b.wramBank | 0xF8 }, func(v uint8) {
			b.wramBank = v & 0x07
			if b.wramBank == 0 {
				b.wramBank = 1
			}
		})
		b.RegisterIO(0xFF4F, func() uint8 { return b.vbk | 0xFE }, func(v uint8) { b.vbk = v & 1 })
	}
	return b
}

// AttachVideo wires the PPU's VRAM/OAM surface; called once during
// construction in the wiring layer (internal/gameboy), after both Bus and
// PPU exist, to avoid a construction cycle.
func (b *Bus) AttachVideo(v VideoMemory) {
	b.video = v
}

// SetDMAActive installs the predicate the OAM DMA controller uses to
// report "transfer in flight" to the bus, so non-HRAM accesses can be
// blocked per spec.md §4.2 rule 2.
func (b *Bus) SetDMAActive(fn func() bool) {
	b.dmaActive = fn
}

func (b *Bus) SetBootROM(rom []byte) {
	b.bootROM = rom
	b.bootEnabled = len(rom) > 0
}

func (b *Bus) writeBootDisable(v uint8) {
	if v&1 != 0 {
		b.bootDisableOnce = true
		b.bootEnabled = false
	}
}

// RegisterIO installs a dispatchable I/O register. get/set may be nil for
// write-only/read-only registers; a nil get reads back 0xFF, a nil set is
// a no-op write, matching real open-bus behavior for undefined registers.
func (b *Bus) RegisterIO(addr uint16, get func() uint8, set func(uint8)) {
	b.io[addr&0x7F] = ioReg{get: get, set: set}
}

func (b *Bus) inBootROM(addr uint16) bool {
	if !b.bootEnabled {
		return false
	}
	if addr <= 0x00FF {
		return true
	}
	if b.isCGB && addr >= 0x0200 && addr <= 0x08FF {
		return true
	}
	return false
}

// Read implements spec.md §4.2's region priority.
func (b *Bus) Read(addr uint16) uint8 {
	if b.inBootROM(addr) {
		// the CGB boot rom image is a flat 0x900-byte file; addresses
		// 0x0100-0x01FF fall inside it but are never reached through the
		// overlay (the cartridge header takes priority there instead, per
		// inBootROM's gap), so no offset translation is needed.
		if int(addr) < len(b.bootROM) {
			return b.bootROM[addr]
		}
	}

	if b.dmaActive() {
		if addr >= 0xFF80 && addr <= 0xFFFE {
			return b.hram[addr-0xFF80]
		}
		if addr == 0xFF46 {
			return b.ioRead(addr)
		}
		return 0xFF
	}

	switch {
	case addr < 0x8000:
		return b.Cart.Read(addr)
	case addr < 0xA000:
		return b.video.ReadVRAM(addr)
	case addr < 0xC000:
		return b.Cart.Read(addr)
	case addr < 0xD000:
		return b.wram[0][addr-0xC000]
	case addr < 0xE000:
		return b.wram[b.effectiveWRAMBank()][addr-0xD000]
	case addr < 0xFE00:
		return b.Read(addr - 0x2000)
	case addr < 0xFEA0:
		return b.video.ReadOAM(addr)
	case addr < 0xFF00:
		if b.video.OAMLocked() {
			return 0xFF
		}
		return 0x00
	case addr < 0xFF80:
		return b.ioRead(addr)
	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]
	default:
		return b.ioRead(addr)
	}
}

func (b *Bus) effectiveWRAMBank() uint8 {
	if !b.isCGB {
		return 1
	}
	bank := b.wramBank
	if bank == 0 {
		bank = 1
	}
	return bank
}

func (b *Bus) ioRead(addr uint16) uint8 {
	reg := b.io[addr&0x7F]
	if reg.get == nil {
		return 0xFF
	}
	return reg.get()
}

// Write implements spec.md §4.2's region priority for writes.
func (b *Bus) Write(addr uint16, v uint8) {
	if b.dmaActive() {
		if addr >= 0xFF80 && addr <= 0xFFFE {
			b.hram[addr-0xFF80] = v
			return
		}
		if addr == 0xFF46 {
			b.ioWrite(addr, v)
		}
		return
	}

	switch {
	case addr < 0x8000:
		b.Cart.Write(addr, v)
	case addr < 0xA000:
		b.video.WriteVRAM(addr, v)
	case addr < 0xC000:
		b.Cart.Write(addr, v)
	case addr < 0xD000:
		b.wram[0][addr-0xC000] = v
	case addr < 0xE000:
		b.wram[b.effectiveWRAMBank()][addr-0xD000] = v
	case addr < 0xFE00:
		b.Write(addr-0x2000, v)
	case addr < 0xFEA0:
		b.video.WriteOAM(addr, v)
	case addr < 0xFF00:
		// prohibited region: writes ignored
	case addr < 0xFF80:
		b.ioWrite(addr, v)
	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = v
	default:
		b.ioWrite(addr, v)
	}
}

func (b *Bus) ioWrite(addr uint16, v uint8) {
	reg := b.io[addr&0x7F]
	if reg.set != nil {
		reg.set(v)
	}
}

// ReadDMASource reads a byte for the OAM DMA copy, bypassing the DMA
// block gate (the transfer's own source reads are not subject to it) but
// still dispatching to the cartridge for cartridge-mapped addresses per
// spec.md §4.6.
func (b *Bus) ReadDMASource(addr uint16) uint8 {
	if addr < 0x8000 || (addr >= 0xA000 && addr < 0xC000) {
		return b.Cart.Read(addr)
	}
	switch {
	case addr < 0xA000:
		// spec.md §9 ambiguity (a): the DMA source logic itself reads
		// garbage from VRAM, not the VRAM controller's own contents.
		return 0xA5
	case addr < 0xD000:
		return b.wram[0][addr-0xC000]
	case addr < 0xE000:
		return b.wram[b.effectiveWRAMBank()][addr-0xD000]
	default:
		return b.Read(addr)
	}
}

// Write16/Read16 are convenience helpers the CPU and instruction set use
// for 16-bit memory operands.
func (b *Bus) Read16(addr uint16) uint16 {
	lo := b.Read(addr)
	hi := b.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (b *Bus) Write16(addr uint16, v uint16) {
	b.Write(addr, uint8(v))
	b.Write(addr+1, uint8(v>>8))
}

func (b *Bus) IsGBC() bool { return b.isCGB }

// SpeedSwitchArmed reports whether KEY1 bit 0 was set, arming a speed
// switch on the next STOP instruction (CGB only).
func (b *Bus) SpeedSwitchArmed() bool { return b.isCGB && b.key1&0x01 != 0 }

// CompleteSpeedSwitch toggles KEY1's current-speed bit and clears the arm
// bit; it is called by the CPU when STOP executes with a switch armed.
func (b *Bus) CompleteSpeedSwitch() bool {
	newDouble := b.key1&0x80 == 0
	b.key1 = 0
	if newDouble {
		b.key1 = 0x80
	}
	return newDouble
}

var _ state.Stater = (*Bus)(nil)

func (b *Bus) Save(s *state.Chunk) {
	for i := range b.wram {
		s.WriteBytes(b.wram[i][:])
	}
	s.WriteBytes(b.hram[:])
	s.Write8(b.wramBank)
	s.WriteBool(b.bootEnabled)
	s.Write8(b.key0)
	s.Write8(b.key1)
	s.Write8(b.vbk)
	b.Cart.Save(s)
}

func (b *Bus) Load(s *state.Chunk) {
	for i := range b.wram {
		copy(b.wram[i][:], s.ReadBytes(0x1000))
	}
	copy(b.hram[:], s.ReadBytes(0x7F))
	b.wramBank = s.Read8()
	b.bootEnabled = s.ReadBool()
	b.key0 = s.Read8()
	b.key1 = s.Read8()
	b.vbk = s.Read8()
	b.Cart.Load(s)
}
