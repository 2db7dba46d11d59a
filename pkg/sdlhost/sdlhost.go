// Package sdlhost implements pkg/host.Host with a real window, audio
// device and keyboard, grounded on the teacher's pkg/audio/sdl.go
// (AudioSpec/OpenAudioDevice/PauseAudioDevice) and pkg/display/glfw's
// key-to-button map (glfw.go), rebased onto the SDL2 key scancodes this
// tree's go.mod actually depends on instead of glfw/OpenGL, which aren't
// in the dependency pack.
package sdlhost

import (
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/haldorsen/gbz80core/internal/joypad"
	"github.com/haldorsen/gbz80core/pkg/host"
	"github.com/haldorsen/gbz80core/pkg/log"
)

const (
	screenWidth  = 160
	screenHeight = 144
	sampleRate   = 44100
)

// keyBindings maps SDL scancodes to Game Boy buttons, the same pairing
// the teacher's glfwDriver uses (arrows, Z/X, Enter/Backspace), adapted
// to SDL's scancode type.
var keyBindings = map[sdl.Scancode]joypad.Button{
	sdl.SCANCODE_Z:         joypad.ButtonA,
	sdl.SCANCODE_X:         joypad.ButtonB,
	sdl.SCANCODE_RETURN:    joypad.ButtonStart,
	sdl.SCANCODE_BACKSPACE: joypad.ButtonSelect,
	sdl.SCANCODE_RIGHT:     joypad.ButtonRight,
	sdl.SCANCODE_LEFT:      joypad.ButtonLeft,
	sdl.SCANCODE_UP:        joypad.ButtonUp,
	sdl.SCANCODE_DOWN:      joypad.ButtonDown,
}

// Host is an SDL2-backed window, audio device and keyboard, implementing
// pkg/host.Host.
type Host struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	audioDev sdl.AudioDeviceID

	log log.Logger

	mu     sync.Mutex
	held   host.JoypadState
	closed bool
}

// Options configures window scale and title.
type Options struct {
	Scale int
	Title string
	Log   log.Logger
}

// Open initializes SDL video and audio subsystems and creates the
// emulator window. Call Close when done.
func Open(opts Options) (*Host, error) {
	if opts.Scale <= 0 {
		opts.Scale = 3
	}
	if opts.Title == "" {
		opts.Title = "gbz80core"
	}
	l := opts.Log
	if l == nil {
		l = log.Null()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_JOYSTICK); err != nil {
		return nil, err
	}

	window, err := sdl.CreateWindow(
		opts.Title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(screenWidth*opts.Scale), int32(screenHeight*opts.Scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, err
	}

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR1555,
		sdl.TEXTUREACCESS_STREAMING,
		screenWidth, screenHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, err
	}

	h := &Host{window: window, renderer: renderer, texture: texture, log: l}

	dev, err := sdl.OpenAudioDevice("", false, &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_F32,
		Channels: 2,
		Samples:  1024,
	}, nil, 0)
	if err != nil {
		l.Warnf("sdlhost: audio device unavailable: %v", err)
	} else {
		h.audioDev = dev
		sdl.PauseAudioDevice(dev, false)
	}

	return h, nil
}

// PresentFrame uploads a completed frame to the streaming texture and
// presents it scaled to the window.
func (h *Host) PresentFrame(frame []uint16) {
	if err := h.texture.Update(nil, frameToBytes(frame), screenWidth*2); err != nil {
		h.log.Warnf("sdlhost: texture update failed: %v", err)
	}
	h.renderer.Clear()
	h.renderer.Copy(h.texture, nil, nil)
	h.renderer.Present()
	h.pumpEvents()
}

// frameToBytes reinterprets the frame's native little-endian uint16
// XBGR1555 pixels as the byte stream SDL's matching texture format wants.
func frameToBytes(frame []uint16) []byte {
	out := make([]byte, len(frame)*2)
	for i, px := range frame {
		out[i*2] = byte(px)
		out[i*2+1] = byte(px >> 8)
	}
	return out
}

// QueueAudio pushes interleaved stereo float32 samples to the SDL audio
// device's ring buffer.
func (h *Host) QueueAudio(samples []float32) {
	if h.audioDev == 0 {
		return
	}
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		bits := float32bits(s)
		buf[i*4] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	if err := sdl.QueueAudio(h.audioDev, buf); err != nil {
		h.log.Warnf("sdlhost: queue audio: %v", err)
	}
}

// PollInput returns the buttons currently held, refreshed on every
// PresentFrame pump of the SDL event loop.
func (h *Host) PollInput() host.JoypadState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held
}

// NowUnixSeconds returns the host's wall-clock time for MBC3 RTC
// fast-forwarding.
func (h *Host) NowUnixSeconds() uint64 {
	return uint64(sdlNow())
}

// Closed reports whether the user closed the window.
func (h *Host) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Host) pumpEvents() {
	keys := sdl.GetKeyboardState()
	var held host.JoypadState
	for scancode, button := range keyBindings {
		if keys[scancode] != 0 {
			held |= host.JoypadState(button)
		}
	}

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			h.mu.Lock()
			h.closed = true
			h.mu.Unlock()
		}
	}

	h.mu.Lock()
	h.held = held
	h.mu.Unlock()
}

// Close tears down the audio device, renderer and window, and shuts down
// SDL.
func (h *Host) Close() {
	if h.audioDev != 0 {
		sdl.CloseAudioDevice(h.audioDev)
	}
	h.texture.Destroy()
	h.renderer.Destroy()
	h.window.Destroy()
	sdl.Quit()
}

var _ host.Host = (*Host)(nil)
