// Package gameboy wires the bus, CPU, PPU, APU, timer, joypad and
// cartridge into a runnable console and drives the deterministic
// fetch-execute-distribute loop described in spec.md §2 and §5: each
// CPU.Step's returned cycle delta is handed to every other component in
// the same fixed order, every step, so two runs fed the same ROM and the
// same input trace always reach the same state.
package gameboy

import (
	"fmt"

	"github.com/haldorsen/gbz80core/internal/apu"
	"github.com/haldorsen/gbz80core/internal/bus"
	"github.com/haldorsen/gbz80core/internal/cartridge"
	"github.com/haldorsen/gbz80core/internal/cpu"
	"github.com/haldorsen/gbz80core/internal/interrupts"
	"github.com/haldorsen/gbz80core/internal/joypad"
	"github.com/haldorsen/gbz80core/internal/ppu"
	"github.com/haldorsen/gbz80core/internal/state"
	"github.com/haldorsen/gbz80core/internal/timer"
	"github.com/haldorsen/gbz80core/pkg/host"
	"github.com/haldorsen/gbz80core/pkg/log"
)

// ClockSpeed is the DMG/CGB single-speed master clock, in T-cycles/sec.
const ClockSpeed = 4194304

// Model selects which power-up register defaults and boot path apply.
type Model uint8

const (
	ModelDMG Model = iota
	ModelCGB
)

// GameBoy owns every emulated component and the host callback boundary;
// it is the single type the embedding application constructs.
type GameBoy struct {
	CPU   *cpu.CPU
	Bus   *bus.Bus
	PPU   *ppu.PPU
	APU   *apu.APU
	Timer *timer.Controller
	Pad   *joypad.Controller
	IRQ   *interrupts.Service
	Cart  *cartridge.Cartridge

	log log.Logger
	h   host.Host

	model Model
}

// Option configures a GameBoy at construction time.
type Option func(*GameBoy)

// WithLogger overrides the default null logger.
func WithLogger(l log.Logger) Option { return func(g *GameBoy) { g.log = l } }

// WithBootROM installs a boot ROM image to run before the cartridge entry
// point; without one, register state is initialized directly to its
// post-boot values.
func WithBootROM(rom []byte) Option {
	return func(g *GameBoy) {
		if len(rom) > 0 {
			g.Bus.SetBootROM(rom)
			g.CPU.PC = 0
		}
	}
}

// New constructs a fully wired GameBoy for rom, auto-detecting CGB
// support from the cartridge header unless forced by model.
func New(rom []byte, model Model, h host.Host, opts ...Option) (*GameBoy, error) {
	cart, err := cartridge.New(rom)
	if err != nil {
		return nil, fmt.Errorf("gameboy: %w", err)
	}

	isCGB := model == ModelCGB && cart.Header.CGBCapable

	irq := interrupts.NewService()
	g := &GameBoy{
		IRQ:   irq,
		Cart:  cart,
		Timer: timer.NewController(irq),
		Pad:   joypad.New(irq),
		log:   log.Null(),
		h:     h,
		model: model,
	}

	g.Bus = bus.New(cart, irq, isCGB)
	g.PPU = ppu.New(irq, isCGB, g.presentFrame)
	g.APU = apu.New(g.queueAudio)
	g.CPU = cpu.New(g.Bus, irq)

	g.Bus.AttachVideo(g.PPU)
	g.Bus.SetDMAActive(g.PPU.DMA().Active)
	g.PPU.SetDMASourceReader(g.Bus.ReadDMASource)
	g.PPU.SetHDMASourceReader(g.Bus.ReadDMASource)

	g.registerIO()
	g.powerOnDefaults()

	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GameBoy) presentFrame(frame []uint16) {
	if g.h != nil {
		g.h.PresentFrame(frame)
	}
}

func (g *GameBoy) queueAudio(samples []float32) {
	if g.h != nil {
		g.h.QueueAudio(samples)
	}
}

// registerIO installs every I/O-register closure onto the bus; timer,
// joypad, PPU and APU each own their register semantics and are only
// reachable through this dispatch, per spec.md §9's no-back-pointer rule.
func (g *GameBoy) registerIO() {
	b := g.Bus

	b.RegisterIO(0xFF00, g.Pad.Read, g.Pad.Write)

	b.RegisterIO(0xFF04, g.Timer.ReadDIV, g.Timer.WriteDIV)
	b.RegisterIO(0xFF05, g.Timer.ReadTIMA, g.Timer.WriteTIMA)
	b.RegisterIO(0xFF06, g.Timer.ReadTMA, g.Timer.WriteTMA)
	b.RegisterIO(0xFF07, g.Timer.ReadTAC, g.Timer.WriteTAC)

	b.RegisterIO(0xFF10, g.APU.ReadNR10, g.APU.WriteNR10)
	b.RegisterIO(0xFF11, g.APU.ReadNR11, g.APU.WriteNR11)
	b.RegisterIO(0xFF12, g.APU.ReadNR12, g.APU.WriteNR12)
	b.RegisterIO(0xFF13, func() uint8 { return 0xFF }, g.APU.WriteNR13)
	b.RegisterIO(0xFF14, g.APU.ReadNR14, g.APU.WriteNR14)
	b.RegisterIO(0xFF16, g.APU.ReadNR21, g.APU.WriteNR21)
	b.RegisterIO(0xFF17, g.APU.ReadNR22, g.APU.WriteNR22)
	b.RegisterIO(0xFF18, func() uint8 { return 0xFF }, g.APU.WriteNR23)
	b.RegisterIO(0xFF19, g.APU.ReadNR24, g.APU.WriteNR24)
	b.RegisterIO(0xFF1A, g.APU.ReadNR30, g.APU.WriteNR30)
	b.RegisterIO(0xFF1B, func() uint8 { return 0xFF }, g.APU.WriteNR31)
	b.RegisterIO(0xFF1C, g.APU.ReadNR32, g.APU.WriteNR32)
	b.RegisterIO(0xFF1D, func() uint8 { return 0xFF }, g.APU.WriteNR33)
	b.RegisterIO(0xFF1E, g.APU.ReadNR34, g.APU.WriteNR34)
	b.RegisterIO(0xFF20, func() uint8 { return 0xFF }, g.APU.WriteNR41)
	b.RegisterIO(0xFF21, g.APU.ReadNR42, g.APU.WriteNR42)
	b.RegisterIO(0xFF22, g.APU.ReadNR43, g.APU.WriteNR43)
	b.RegisterIO(0xFF23, g.APU.ReadNR44, g.APU.WriteNR44)
	b.RegisterIO(0xFF24, g.APU.ReadNR50, g.APU.WriteNR50)
	b.RegisterIO(0xFF25, g.APU.ReadNR51, g.APU.WriteNR51)
	b.RegisterIO(0xFF26, g.APU.ReadNR52, g.APU.WriteNR52)
	for addr := uint16(0xFF30); addr <= 0xFF3F; addr++ {
		a := addr
		b.RegisterIO(a, func() uint8 { return g.APU.ReadWave(a) }, func(v uint8) { g.APU.WriteWave(a, v) })
	}

	b.RegisterIO(0xFF40, g.PPU.ReadLCDC, g.PPU.WriteLCDC)
	b.RegisterIO(0xFF41, g.PPU.ReadSTAT, g.PPU.WriteSTAT)
	b.RegisterIO(0xFF42, g.PPU.ReadSCY, g.PPU.WriteSCY)
	b.RegisterIO(0xFF43, g.PPU.ReadSCX, g.PPU.WriteSCX)
	b.RegisterIO(0xFF44, g.PPU.ReadLY, g.PPU.WriteLY)
	b.RegisterIO(0xFF45, g.PPU.ReadLYC, g.PPU.WriteLYC)
	b.RegisterIO(0xFF46, g.PPU.ReadDMA, g.PPU.WriteDMA)
	b.RegisterIO(0xFF47, g.PPU.ReadBGP, g.PPU.WriteBGP)
	b.RegisterIO(0xFF48, g.PPU.ReadOBP0, g.PPU.WriteOBP0)
	b.RegisterIO(0xFF49, g.PPU.ReadOBP1, g.PPU.WriteOBP1)
	b.RegisterIO(0xFF4A, g.PPU.ReadWX, g.PPU.WriteWX)
	b.RegisterIO(0xFF4B, g.PPU.ReadWY, g.PPU.WriteWY)

	if g.Bus.IsGBC() {
		b.RegisterIO(0xFF4F, g.PPU.ReadVBK, g.PPU.WriteVBK)
		b.RegisterIO(0xFF51, g.PPU.ReadHDMA1, g.PPU.WriteHDMA1)
		b.RegisterIO(0xFF52, g.PPU.ReadHDMA2, g.PPU.WriteHDMA2)
		b.RegisterIO(0xFF53, g.PPU.ReadHDMA3, g.PPU.WriteHDMA3)
		b.RegisterIO(0xFF54, g.PPU.ReadHDMA4, g.PPU.WriteHDMA4)
		b.RegisterIO(0xFF55, g.PPU.ReadHDMA5, g.PPU.WriteHDMA5)
		b.RegisterIO(0xFF68, g.PPU.ReadBGPI, g.PPU.WriteBGPI)
		b.RegisterIO(0xFF69, g.PPU.ReadBGPD, g.PPU.WriteBGPD)
		b.RegisterIO(0xFF6A, g.PPU.ReadOBPI, g.PPU.WriteOBPI)
		b.RegisterIO(0xFF6B, g.PPU.ReadOBPD, g.PPU.WriteOBPD)
	}
}

// powerOnDefaults sets the post-boot register values games rely on when
// no boot ROM is supplied (spec.md §4.2's boot-ROM-overlay note).
func (g *GameBoy) powerOnDefaults() {
	g.CPU.PC = 0x0100
	g.CPU.SP = 0xFFFE
	g.CPU.SetAF(0x01B0)
	g.CPU.SetBC(0x0013)
	g.CPU.SetDE(0x00D8)
	g.CPU.SetHL(0x014D)

	g.PPU.WriteLCDC(0x91)
	g.PPU.WriteBGP(0xFC)
	g.APU.WriteNR52(0x80)
	g.APU.WriteNR50(0x77)
	g.APU.WriteNR51(0xF3)
}

// StepFrame runs the emulator until one PPU frame has completed, polling
// the host for input once per frame, and returns the T-cycles consumed.
func (g *GameBoy) StepFrame() uint {
	g.PPU.ClearRefresh()
	g.syncInput()

	var total uint
	for !g.PPU.HasFrame() {
		total += g.step()
	}
	return total
}

func (g *GameBoy) step() uint {
	clocks := g.CPU.Step()
	g.distribute(clocks)
	return clocks
}

// distribute hands one CPU step's cycle delta to every other component,
// always in the same order, per spec.md §5.
func (g *GameBoy) distribute(clocks uint) {
	g.Timer.Tick(clocks)
	g.PPU.Tick(clocks)
	g.APU.Tick(clocks)
	g.Cart.Tick(clocks)
}

func (g *GameBoy) syncInput() {
	if g.h == nil {
		return
	}
	held := g.h.PollInput()
	all := []joypad.Button{
		joypad.ButtonA, joypad.ButtonB, joypad.ButtonSelect, joypad.ButtonStart,
		joypad.ButtonRight, joypad.ButtonLeft, joypad.ButtonUp, joypad.ButtonDown,
	}
	for _, b := range all {
		if host.JoypadState(held)&host.JoypadState(b) != 0 {
			g.Pad.Press(b)
		} else {
			g.Pad.Release(b)
		}
	}
}

// Snapshot serializes the whole machine into a single byte slice,
// suitable for pkg/saves.WriteState or internal/debugserver.Hub.Publish.
func (g *GameBoy) Snapshot() []byte {
	c := state.NewWriter()
	g.Save(c)
	return c.Bytes()
}

// Restore is Snapshot's inverse.
func (g *GameBoy) Restore(raw []byte) {
	g.Load(state.NewReader(raw))
}

// BatteryRAM exposes the cartridge's external RAM for pkg/saves, nil if
// the cartridge has none.
func (g *GameBoy) BatteryRAM() []byte {
	ram := g.Cart.MBC.RAM()
	if len(ram) == 0 {
		return nil
	}
	return ram
}

// RTCController exposes the cartridge's real-time clock, if any, so the
// host can persist and fast-forward it across runs.
func (g *GameBoy) RTCController() (cartridge.RTCController, bool) {
	rtc, ok := g.Cart.MBC.(cartridge.RTCController)
	return rtc, ok
}

var _ state.Stater = (*GameBoy)(nil)

func (g *GameBoy) Save(s *state.Chunk) {
	g.CPU.Save(s)
	g.Bus.Save(s)
	g.PPU.Save(s)
	g.APU.Save(s)
	g.Timer.Save(s)
	g.Pad.Save(s)
	s.Write8(g.IRQ.ReadIE())
	s.Write8(g.IRQ.Flag)
	s.WriteBool(g.IRQ.IME)
}

func (g *GameBoy) Load(s *state.Chunk) {
	g.CPU.Load(s)
	g.Bus.Load(s)
	g.PPU.Load(s)
	g.APU.Load(s)
	g.Timer.Load(s)
	g.Pad.Load(s)
	g.IRQ.WriteIE(s.Read8())
	g.IRQ.Flag = s.Read8()
	g.IRQ.IME = s.ReadBool()
}
