// Package host defines the narrow callback surface the emulation core
// consumes from whatever windowing/audio/input layer embeds it
// (spec.md §6). The core never imports a concrete host implementation;
// it is handed a Host at construction time.
package host

// JoypadState reports which buttons are currently held, bit-for-bit
// compatible with joypad.Button.
type JoypadState uint8

// Host is implemented by the embedding application (pkg/sdlhost, a test
// double, a headless harness, ...).
type Host interface {
	// PresentFrame receives a completed 160x144 XBGR1555 frame.
	PresentFrame(frame []uint16)

	// QueueAudio receives interleaved stereo float32 samples at 44100 Hz.
	QueueAudio(samples []float32)

	// PollInput returns the buttons currently held.
	PollInput() JoypadState

	// NowUnixSeconds returns the current wall-clock time, used to
	// fast-forward an MBC3 RTC across emulator sessions.
	NowUnixSeconds() uint64
}
