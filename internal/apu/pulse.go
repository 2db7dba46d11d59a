package apu

// dutyTable holds the four duty-cycle waveforms (12.5%, 25%, 50%, 75%),
// one bit per of the 8 steps in the waveform.
var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

// pulseChannel implements both CH1 and CH2; CH2 simply never arms its
// sweep unit (hasSweep stays false).
type pulseChannel struct {
	hasSweep bool

	enabled bool
	dacOn   bool

	duty     uint8
	dutyStep uint8

	freqTimer int32
	frequency uint16

	lengthCounter uint8
	lengthEnable  bool

	volume         uint8
	initialVolume  uint8
	envelopeAdd    bool
	envelopePeriod uint8
	envelopeTimer  uint8

	sweepPeriod  uint8
	sweepTimer   uint8
	sweepNegate  bool
	sweepShift   uint8
	shadowFreq   uint16
	sweepEnabled bool
}

func (p *pulseChannel) trigger() {
	p.enabled = true
	if p.lengthCounter == 0 {
		p.lengthCounter = 64
	}
	p.freqTimer = (2048 - int32(p.frequency)) * 4
	p.envelopeTimer = p.envelopePeriod
	p.volume = p.initialVolume
	if p.hasSweep {
		p.shadowFreq = p.frequency
		p.sweepTimer = p.sweepPeriod
		if p.sweepTimer == 0 {
			p.sweepTimer = 8
		}
		p.sweepEnabled = p.sweepPeriod != 0 || p.sweepShift != 0
		if p.sweepShift != 0 {
			p.calcSweepFreq()
		}
	}
	if !p.dacOn {
		p.enabled = false
	}
}

func (p *pulseChannel) calcSweepFreq() uint16 {
	delta := p.shadowFreq >> p.sweepShift
	var newFreq uint16
	if p.sweepNegate {
		newFreq = p.shadowFreq - delta
	} else {
		newFreq = p.shadowFreq + delta
	}
	if newFreq > 2047 {
		p.enabled = false
	}
	return newFreq
}

func (p *pulseChannel) tickSweep() {
	if !p.hasSweep || !p.sweepEnabled {
		return
	}
	if p.sweepTimer > 0 {
		p.sweepTimer--
	}
	if p.sweepTimer != 0 {
		return
	}
	p.sweepTimer = p.sweepPeriod
	if p.sweepTimer == 0 {
		p.sweepTimer = 8
	}
	if p.sweepPeriod == 0 {
		return
	}
	newFreq := p.calcSweepFreq()
	if newFreq <= 2047 && p.sweepShift != 0 {
		p.shadowFreq = newFreq
		p.frequency = newFreq
		p.calcSweepFreq()
	}
}

func (p *pulseChannel) tickLength() {
	if !p.lengthEnable || p.lengthCounter == 0 {
		return
	}
	p.lengthCounter--
	if p.lengthCounter == 0 {
		p.enabled = false
	}
}

func (p *pulseChannel) tickEnvelope() {
	if p.envelopePeriod == 0 {
		return
	}
	if p.envelopeTimer > 0 {
		p.envelopeTimer--
	}
	if p.envelopeTimer != 0 {
		return
	}
	p.envelopeTimer = p.envelopePeriod
	if p.envelopeAdd && p.volume < 15 {
		p.volume++
	} else if !p.envelopeAdd && p.volume > 0 {
		p.volume--
	}
}

func (p *pulseChannel) tick(clocks int32) {
	p.freqTimer -= clocks
	for p.freqTimer <= 0 {
		p.freqTimer += (2048 - int32(p.frequency)) * 4
		p.dutyStep = (p.dutyStep + 1) % 8
	}
}

func (p *pulseChannel) amplitude() float32 {
	if !p.enabled || !p.dacOn {
		return 0
	}
	if dutyTable[p.duty][p.dutyStep] == 0 {
		return 0
	}
	return float32(p.volume) / 15
}
