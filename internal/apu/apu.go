// Package apu implements the 4-channel audio processing unit: two pulse
// channels (the first with a frequency sweep), a programmable waveform
// channel and a noise channel, mixed through NR50/NR51 panning into the
// stereo stream the host consumes (spec.md §4.5).
package apu

import "github.com/haldorsen/gbz80core/internal/state"

const (
	masterClock = 4194304
	sampleRate  = 44100
	// frameSequencerPeriod is how many master clocks separate each of the
	// 512 Hz frame sequencer's 8 steps.
	frameSequencerPeriod = masterClock / 512
)

// SampleFunc receives interleaved stereo float32 samples in [-1, 1].
type SampleFunc func(samples []float32)

type APU struct {
	enabled bool

	ch1 pulseChannel
	ch2 pulseChannel
	ch3 waveChannel
	ch4 noiseChannel

	frameSeqCounter int32
	frameSeqStep    uint8

	leftVol, rightVol uint8
	vinLeft, vinRight bool
	panLeft           [4]bool
	panRight          [4]bool

	sampleCounter int32
	emit          SampleFunc
	outBuf        []float32
}

func New(emit SampleFunc) *APU {
	a := &APU{emit: emit, ch1: pulseChannel{hasSweep: true}}
	a.outBuf = make([]float32, 0, 2048)
	return a
}

// Tick advances the APU by clocks T-cycles, generating any sample frames
// that fall due and invoking emit once per call with whatever completed.
func (a *APU) Tick(clocks uint) {
	if !a.enabled {
		return
	}
	n := int32(clocks)

	a.frameSeqCounter -= n
	for a.frameSeqCounter <= 0 {
		a.frameSeqCounter += frameSequencerPeriod
		a.stepFrameSequencer()
	}

	a.ch1.tick(n)
	a.ch2.tick(n)
	a.ch3.tick(n)
	a.ch4.tick(n)

	a.sampleCounter += n * sampleRate
	for a.sampleCounter >= masterClock {
		a.sampleCounter -= masterClock
		l, r := a.mix()
		a.outBuf = append(a.outBuf, l, r)
	}
	if len(a.outBuf) > 0 && a.emit != nil {
		a.emit(a.outBuf)
		a.outBuf = a.outBuf[:0]
	}
}

func (a *APU) stepFrameSequencer() {
	switch a.frameSeqStep {
	case 0, 2, 4, 6:
		a.ch1.tickLength()
		a.ch2.tickLength()
		a.ch3.tickLength()
		a.ch4.tickLength()
	}
	if a.frameSeqStep == 2 || a.frameSeqStep == 6 {
		a.ch1.tickSweep()
	}
	if a.frameSeqStep == 7 {
		a.ch1.tickEnvelope()
		a.ch2.tickEnvelope()
		a.ch4.tickEnvelope()
	}
	a.frameSeqStep = (a.frameSeqStep + 1) % 8
}

func (a *APU) mix() (float32, float32) {
	amps := [4]float32{a.ch1.amplitude(), a.ch2.amplitude(), a.ch3.amplitude(), a.ch4.amplitude()}

	var left, right float32
	for i, amp := range amps {
		if a.panLeft[i] {
			left += amp
		}
		if a.panRight[i] {
			right += amp
		}
	}
	left = left / 4 * (float32(a.leftVol+1) / 8)
	right = right / 4 * (float32(a.rightVol+1) / 8)
	return left, right
}

// --- register I/O ---

func (a *APU) ReadNR10() uint8 {
	return a.ch1.sweepPeriod<<4 | b2u(a.ch1.sweepNegate)<<3 | a.ch1.sweepShift | 0x80
}
func (a *APU) WriteNR10(v uint8) {
	a.ch1.sweepPeriod = v >> 4 & 7
	a.ch1.sweepNegate = v&0x08 != 0
	a.ch1.sweepShift = v & 7
}

func (a *APU) ReadNR11() uint8 { return a.ch1.duty<<6 | 0x3F }
func (a *APU) WriteNR11(v uint8) {
	a.ch1.duty = v >> 6
	a.ch1.lengthCounter = 64 - v&0x3F
}
func (a *APU) ReadNR12() uint8 {
	return a.ch1.initialVolume<<4 | b2u(a.ch1.envelopeAdd)<<3 | a.ch1.envelopePeriod
}
func (a *APU) WriteNR12(v uint8) {
	a.ch1.initialVolume = v >> 4
	a.ch1.envelopeAdd = v&0x08 != 0
	a.ch1.envelopePeriod = v & 7
	a.ch1.dacOn = v&0xF8 != 0
	if !a.ch1.dacOn {
		a.ch1.enabled = false
	}
}
func (a *APU) WriteNR13(v uint8) { a.ch1.frequency = a.ch1.frequency&0x700 | uint16(v) }
func (a *APU) ReadNR14() uint8   { return b2u(a.ch1.lengthEnable)<<6 | 0xBF }
func (a *APU) WriteNR14(v uint8) {
	a.ch1.frequency = a.ch1.frequency&0xFF | uint16(v&7)<<8
	a.ch1.lengthEnable = v&0x40 != 0
	if v&0x80 != 0 {
		a.ch1.trigger()
	}
}

func (a *APU) ReadNR21() uint8 { return a.ch2.duty<<6 | 0x3F }
func (a *APU) WriteNR21(v uint8) {
	a.ch2.duty = v >> 6
	a.ch2.lengthCounter = 64 - v&0x3F
}
func (a *APU) ReadNR22() uint8 {
	return a.ch2.initialVolume<<4 | b2u(a.ch2.envelopeAdd)<<3 | a.ch2.envelopePeriod
}
func (a *APU) WriteNR22(v uint8) {
	a.ch2.initialVolume = v >> 4
	a.ch2.envelopeAdd = v&0x08 != 0
	a.ch2.envelopePeriod = v & 7
	a.ch2.dacOn = v&0xF8 != 0
	if !a.ch2.dacOn {
		a.ch2.enabled = false
	}
}
func (a *APU) WriteNR23(v uint8) { a.ch2.frequency = a.ch2.frequency&0x700 | uint16(v) }
func (a *APU) ReadNR24() uint8   { return b2u(a.ch2.lengthEnable)<<6 | 0xBF }
func (a *APU) WriteNR24(v uint8) {
	a.ch2.frequency = a.ch2.frequency&0xFF | uint16(v&7)<<8
	a.ch2.lengthEnable = v&0x40 != 0
	if v&0x80 != 0 {
		a.ch2.trigger()
	}
}

func (a *APU) ReadNR30() uint8 { return b2u(a.ch3.dacOn)<<7 | 0x7F }
func (a *APU) WriteNR30(v uint8) {
	a.ch3.dacOn = v&0x80 != 0
	if !a.ch3.dacOn {
		a.ch3.enabled = false
	}
}
func (a *APU) WriteNR31(v uint8) { a.ch3.lengthCounter = 256 - uint16(v) }
func (a *APU) ReadNR32() uint8   { return a.ch3.volumeShift<<5 | 0x9F }
func (a *APU) WriteNR32(v uint8) { a.ch3.volumeShift = v >> 5 & 3 }
func (a *APU) WriteNR33(v uint8) { a.ch3.frequency = a.ch3.frequency&0x700 | uint16(v) }
func (a *APU) ReadNR34() uint8   { return b2u(a.ch3.lengthEnable)<<6 | 0xBF }
func (a *APU) WriteNR34(v uint8) {
	a.ch3.frequency = a.ch3.frequency&0xFF | uint16(v&7)<<8
	a.ch3.lengthEnable = v&0x40 != 0
	if v&0x80 != 0 {
		a.ch3.trigger()
	}
}

func (a *APU) ReadNR41() uint8 { return 0xFF }
func (a *APU) WriteNR41(v uint8) { a.ch4.lengthCounter = 64 - v&0x3F }
func (a *APU) ReadNR42() uint8 {
	return a.ch4.initialVolume<<4 | b2u(a.ch4.envelopeAdd)<<3 | a.ch4.envelopePeriod
}
func (a *APU) WriteNR42(v uint8) {
	a.ch4.initialVolume = v >> 4
	a.ch4.envelopeAdd = v&0x08 != 0
	a.ch4.envelopePeriod = v & 7
	a.ch4.dacOn = v&0xF8 != 0
	if !a.ch4.dacOn {
		a.ch4.enabled = false
	}
}
func (a *APU) ReadNR43() uint8 {
	return a.ch4.shift<<4 | b2u(a.ch4.widthMode)<<3 | a.ch4.divisor
}
func (a *APU) WriteNR43(v uint8) {
	a.ch4.shift = v >> 4
	a.ch4.widthMode = v&0x08 != 0
	a.ch4.divisor = v & 7
}
func (a *APU) ReadNR44() uint8 { return b2u(a.ch4.lengthEnable)<<6 | 0xBF }
func (a *APU) WriteNR44(v uint8) {
	a.ch4.lengthEnable = v&0x40 != 0
	if v&0x80 != 0 {
		a.ch4.trigger()
	}
}

func (a *APU) ReadNR50() uint8 {
	return b2u(a.vinLeft)<<7 | a.leftVol<<4 | b2u(a.vinRight)<<3 | a.rightVol
}
func (a *APU) WriteNR50(v uint8) {
	a.vinLeft = v&0x80 != 0
	a.leftVol = v >> 4 & 7
	a.vinRight = v&0x08 != 0
	a.rightVol = v & 7
}

func (a *APU) ReadNR51() uint8 {
	var v uint8
	for i := 0; i < 4; i++ {
		if a.panRight[i] {
			v |= 1 << i
		}
		if a.panLeft[i] {
			v |= 1 << (i + 4)
		}
	}
	return v
}
func (a *APU) WriteNR51(v uint8) {
	for i := 0; i < 4; i++ {
		a.panRight[i] = v&(1<<i) != 0
		a.panLeft[i] = v&(1<<(i+4)) != 0
	}
}

// ReadNR52 reports the master enable plus each channel's own length/DAC
// enabled status.
func (a *APU) ReadNR52() uint8 {
	v := b2u(a.enabled) << 7
	v |= b2u(a.ch1.enabled)
	v |= b2u(a.ch2.enabled) << 1
	v |= b2u(a.ch3.enabled) << 2
	v |= b2u(a.ch4.enabled) << 3
	return v | 0x70
}

// WriteNR52 disables the whole unit and zeroes every channel's state when
// bit 7 is cleared; re-enabling starts the frame sequencer from step 0.
func (a *APU) WriteNR52(v uint8) {
	wasEnabled := a.enabled
	a.enabled = v&0x80 != 0
	if wasEnabled && !a.enabled {
		*a = APU{enabled: false, emit: a.emit, outBuf: a.outBuf[:0], ch1: pulseChannel{hasSweep: true}}
	} else if !wasEnabled && a.enabled {
		a.frameSeqStep = 0
	}
}

func (a *APU) ReadWave(addr uint16) uint8  { return a.ch3.ram[addr&0x0F] }
func (a *APU) WriteWave(addr uint16, v uint8) { a.ch3.ram[addr&0x0F] = v }

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ state.Stater = (*APU)(nil)

func (a *APU) Save(s *state.Chunk) {
	s.WriteBool(a.enabled)
	s.Write8(a.ch1.duty)
	s.Write8(a.ch1.dutyStep)
	s.Write16(uint16(a.ch1.frequency))
	s.Write8(a.ch1.lengthCounter)
	s.WriteBool(a.ch1.lengthEnable)
	s.Write8(a.ch1.volume)
	s.Write8(a.ch1.initialVolume)
	s.WriteBool(a.ch1.envelopeAdd)
	s.Write8(a.ch1.envelopePeriod)
	s.Write8(a.ch1.sweepPeriod)
	s.WriteBool(a.ch1.sweepNegate)
	s.Write8(a.ch1.sweepShift)
	s.Write16(a.ch1.shadowFreq)
	s.WriteBool(a.ch1.sweepEnabled)
	s.WriteBool(a.ch1.enabled)
	s.WriteBool(a.ch1.dacOn)

	s.Write8(a.ch2.duty)
	s.Write8(a.ch2.dutyStep)
	s.Write16(a.ch2.frequency)
	s.Write8(a.ch2.lengthCounter)
	s.WriteBool(a.ch2.lengthEnable)
	s.Write8(a.ch2.volume)
	s.Write8(a.ch2.initialVolume)
	s.WriteBool(a.ch2.envelopeAdd)
	s.Write8(a.ch2.envelopePeriod)
	s.WriteBool(a.ch2.enabled)
	s.WriteBool(a.ch2.dacOn)

	s.WriteBytes(a.ch3.ram[:])
	s.Write16(a.ch3.frequency)
	s.Write16(a.ch3.lengthCounter)
	s.WriteBool(a.ch3.lengthEnable)
	s.Write8(a.ch3.position)
	s.Write8(a.ch3.volumeShift)
	s.WriteBool(a.ch3.enabled)
	s.WriteBool(a.ch3.dacOn)

	s.Write8(a.ch4.shift)
	s.Write8(a.ch4.divisor)
	s.WriteBool(a.ch4.widthMode)
	s.Write16(a.ch4.lfsr)
	s.Write8(a.ch4.lengthCounter)
	s.WriteBool(a.ch4.lengthEnable)
	s.Write8(a.ch4.volume)
	s.Write8(a.ch4.initialVolume)
	s.WriteBool(a.ch4.envelopeAdd)
	s.Write8(a.ch4.envelopePeriod)
	s.WriteBool(a.ch4.enabled)
	s.WriteBool(a.ch4.dacOn)

	s.Write8(a.leftVol)
	s.Write8(a.rightVol)
	s.WriteBool(a.vinLeft)
	s.WriteBool(a.vinRight)
	for i := 0; i < 4; i++ {
		s.WriteBool(a.panLeft[i])
		s.WriteBool(a.panRight[i])
	}
}

func (a *APU) Load(s *state.Chunk) {
	a.enabled = s.ReadBool()
	a.ch1.duty = s.Read8()
	a.ch1.dutyStep = s.Read8()
	a.ch1.frequency = s.Read16()
	a.ch1.lengthCounter = s.Read8()
	a.ch1.lengthEnable = s.ReadBool()
	a.ch1.volume = s.Read8()
	a.ch1.initialVolume = s.Read8()
	a.ch1.envelopeAdd = s.ReadBool()
	a.ch1.envelopePeriod = s.Read8()
	a.ch1.sweepPeriod = s.Read8()
	a.ch1.sweepNegate = s.ReadBool()
	a.ch1.sweepShift = s.Read8()
	a.ch1.shadowFreq = s.Read16()
	a.ch1.sweepEnabled = s.ReadBool()
	a.ch1.enabled = s.ReadBool()
	a.ch1.dacOn = s.ReadBool()
	a.ch1.hasSweep = true

	a.ch2.duty = s.Read8()
	a.ch2.dutyStep = s.Read8()
	a.ch2.frequency = s.Read16()
	a.ch2.lengthCounter = s.Read8()
	a.ch2.lengthEnable = s.ReadBool()
	a.ch2.volume = s.Read8()
	a.ch2.initialVolume = s.Read8()
	a.ch2.envelopeAdd = s.ReadBool()
	a.ch2.envelopePeriod = s.Read8()
	a.ch2.enabled = s.ReadBool()
	a.ch2.dacOn = s.ReadBool()

	copy(a.ch3.ram[:], s.ReadBytes(16))
	a.ch3.frequency = s.Read16()
	a.ch3.lengthCounter = s.Read16()
	a.ch3.lengthEnable = s.ReadBool()
	a.ch3.position = s.Read8()
	a.ch3.volumeShift = s.Read8()
	a.ch3.enabled = s.ReadBool()
	a.ch3.dacOn = s.ReadBool()

	a.ch4.shift = s.Read8()
	a.ch4.divisor = s.Read8()
	a.ch4.widthMode = s.ReadBool()
	a.ch4.lfsr = s.Read16()
	a.ch4.lengthCounter = s.Read8()
	a.ch4.lengthEnable = s.ReadBool()
	a.ch4.volume = s.Read8()
	a.ch4.initialVolume = s.Read8()
	a.ch4.envelopeAdd = s.ReadBool()
	a.ch4.envelopePeriod = s.Read8()
	a.ch4.enabled = s.ReadBool()
	a.ch4.dacOn = s.ReadBool()

	a.leftVol = s.Read8()
	a.rightVol = s.Read8()
	a.vinLeft = s.ReadBool()
	a.vinRight = s.ReadBool()
	for i := 0; i < 4; i++ {
		a.panLeft[i] = s.ReadBool()
		a.panRight[i] = s.ReadBool()
	}
}
