package apu

import "testing"

func newTestAPU() *APU {
	a := New(nil)
	a.WriteNR52(0x80) // power on
	return a
}

func TestTriggerEnablesChannelAndReloadsVolume(t *testing.T) {
	a := newTestAPU()
	a.WriteNR12(0xF0) // initial volume 15, DAC on
	a.WriteNR11(0x3F) // lengthCounter = 64 - 0x3F = 1
	a.WriteNR14(0x80) // trigger bit

	if !a.ch1.enabled {
		t.Fatalf("expected ch1 enabled after trigger")
	}
	if a.ch1.volume != 15 {
		t.Fatalf("expected volume loaded from NR12, got %d", a.ch1.volume)
	}
}

func TestLengthCounterDisablesChannelAtZero(t *testing.T) {
	a := newTestAPU()
	a.WriteNR12(0xF0)
	a.WriteNR11(0x3F) // lengthCounter = 1
	a.WriteNR14(0xC0) // trigger + length enable

	a.stepFrameSequencer() // step 0: clocks length, counter 1->0, disables
	if a.ch1.enabled {
		t.Fatalf("expected ch1 disabled once its length counter reaches 0")
	}
}

func TestLengthCounterIgnoredWhenDisabled(t *testing.T) {
	a := newTestAPU()
	a.WriteNR12(0xF0)
	a.WriteNR11(0x3F)
	a.WriteNR14(0x80) // trigger, length NOT enabled

	a.stepFrameSequencer()
	if !a.ch1.enabled {
		t.Fatalf("expected ch1 to stay enabled when length is not enabled")
	}
}

func TestEnvelopeRampsOneStepPerEnvelopeClock(t *testing.T) {
	a := newTestAPU()
	a.WriteNR12(0x19) // initial volume 1, envelope add, period 1
	a.WriteNR14(0x80) // trigger

	for i := 0; i < 8; i++ {
		// step 7 of the frame sequencer is the only one that clocks envelope
		for a.frameSeqStep != 7 {
			a.stepFrameSequencer()
		}
		a.stepFrameSequencer()
	}

	if a.ch1.volume != 9 {
		t.Fatalf("expected volume to have ramped from 1 to 9 over 8 envelope clocks, got %d", a.ch1.volume)
	}
}

func TestNR52PowerOffZeroesChannelState(t *testing.T) {
	a := newTestAPU()
	a.WriteNR12(0xF0)
	a.WriteNR14(0x80) // ch1 now enabled

	a.WriteNR52(0x00) // power off
	if a.ch1.enabled {
		t.Fatalf("expected ch1 state zeroed when the APU powers off")
	}
	if a.enabled {
		t.Fatalf("expected master enable false")
	}

	a.WriteNR52(0x80) // power back on
	if a.frameSeqStep != 0 {
		t.Fatalf("expected frame sequencer reset to step 0 on power-on, got %d", a.frameSeqStep)
	}
}

func TestSweepIncreasesFrequencyOverTime(t *testing.T) {
	a := newTestAPU()
	a.WriteNR10(0x11) // period 1, add mode, shift 1
	a.WriteNR12(0xF0) // dac on
	a.WriteNR13(100)  // frequency low byte
	a.WriteNR14(0x80) // trigger, frequency high bits 0

	a.ch1.tickSweep()

	if a.ch1.frequency != 150 {
		t.Fatalf("expected frequency 100+100/2=150 after one sweep tick, got %d", a.ch1.frequency)
	}
	if !a.ch1.enabled {
		t.Fatalf("expected channel to remain enabled after a non-overflowing sweep")
	}
}

func TestSweepOverflowDisablesChannelOnTrigger(t *testing.T) {
	a := newTestAPU()
	a.WriteNR10(0x11) // period 1, add mode, shift 1
	a.WriteNR12(0xF0)
	a.WriteNR13(0xD0) // frequency 0x7D0 = 2000
	a.WriteNR14(0x87) // trigger, frequency high bits 7

	if a.ch1.enabled {
		t.Fatalf("expected trigger's own overflow check (2000+1000=3000 > 2047) to disable the channel immediately")
	}
}

func TestMixRespectsPanningAndMasterVolume(t *testing.T) {
	a := newTestAPU()
	a.ch1.enabled = true
	a.ch1.dacOn = true
	a.ch1.volume = 15
	a.ch1.duty = 2 // dutyTable[2][0] == 1, so dutyStep 0 sounds
	a.panLeft[0] = true
	a.panRight[0] = false
	a.leftVol = 7 // max
	a.rightVol = 0

	left, right := a.mix()
	if left <= 0 {
		t.Fatalf("expected nonzero left output when ch1 pans left, got %f", left)
	}
	if right != 0 {
		t.Fatalf("expected zero right output when ch1 does not pan right, got %f", right)
	}
}
