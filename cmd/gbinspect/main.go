// Command gbinspect is the fyne-based inspector: a screen view, CPU
// register panel and audio waveform chart for a ROM running headless
// (no SDL window), with screenshot copy/save. Grounded on the teacher's
// cmd/goboy/main.go multi-window fyne.App/Window construction, simplified
// to a single window split into the views pkg/inspector exposes.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/haldorsen/gbz80core/internal/gameboy"
	"github.com/haldorsen/gbz80core/pkg/host"
	"github.com/haldorsen/gbz80core/pkg/inspector"
	"github.com/haldorsen/gbz80core/pkg/log"
)

const (
	screenWidth  = 160
	screenHeight = 144
)

// inspectorHost is a host.Host that buffers the latest frame and audio
// block for the UI goroutine to pick up, and never reports any buttons
// held (the inspector is a read-only window onto the emulator).
type inspectorHost struct {
	mu          sync.Mutex
	frame       []uint16
	lastSamples []float32
}

func (h *inspectorHost) PresentFrame(frame []uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = append(h.frame[:0], frame...)
}

func (h *inspectorHost) QueueAudio(samples []float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSamples = append(h.lastSamples[:0], samples...)
}

func (h *inspectorHost) PollInput() host.JoypadState { return 0 }
func (h *inspectorHost) NowUnixSeconds() uint64       { return uint64(time.Now().Unix()) }

func (h *inspectorHost) snapshot() ([]uint16, []float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint16(nil), h.frame...), append([]float32(nil), h.lastSamples...)
}

func main() {
	romPath := flag.String("rom", "", "the ROM file to load")
	flag.Parse()

	l := log.New("gbinspect")

	a := app.New()
	w := a.NewWindow("gbinspect")

	screenImg := image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight))
	screenCanvas := canvas.NewImageFromImage(screenImg)
	screenCanvas.FillMode = canvas.ImageFillOriginal
	screenCanvas.SetMinSize(fyne.NewSize(screenWidth*2, screenHeight*2))

	var (
		gb   *gameboy.GameBoy
		ih   = &inspectorHost{}
		regs *inspector.RegisterView
		wave = inspector.NewWaveform(400, 150)
	)

	status := widget.NewLabel("no ROM loaded")
	regsContainer := container.NewVBox()

	openROM := func(path string) {
		rom, err := os.ReadFile(path)
		if err != nil {
			status.SetText(fmt.Sprintf("error: %v", err))
			return
		}
		newGB, err := gameboy.New(rom, gameboy.ModelCGB, ih, gameboy.WithLogger(l))
		if err != nil {
			status.SetText(fmt.Sprintf("error: %v", err))
			return
		}
		gb = newGB
		regs = inspector.NewRegisterView(gb)
		regsContainer.Objects = []fyne.CanvasObject{regs}
		regsContainer.Refresh()
		status.SetText(path)
	}

	if *romPath != "" {
		openROM(*romPath)
	}

	openButton := widget.NewButton("Open ROM...", func() {
		path, err := inspector.AskForROM(".")
		if err == nil && path != "" {
			openROM(path)
		}
	})
	copyButton := widget.NewButton("Copy Screenshot", func() {
		frame, _ := ih.snapshot()
		if len(frame) == 0 {
			return
		}
		img := inspector.FrameToImage(frame, screenWidth, screenHeight)
		if err := inspector.CopyToClipboard(img); err != nil {
			status.SetText(fmt.Sprintf("copy failed: %v", err))
		}
	})
	saveButton := widget.NewButton("Save Screenshot...", func() {
		frame, _ := ih.snapshot()
		if len(frame) == 0 {
			return
		}
		img := inspector.FrameToImage(frame, screenWidth, screenHeight)
		if path, err := inspector.SaveScreenshot(img); err != nil {
			status.SetText(fmt.Sprintf("save failed: %v", err))
		} else {
			status.SetText("saved " + path)
		}
	})

	toolbar := container.NewHBox(openButton, copyButton, saveButton)
	right := container.NewVBox(wave.Canvas(), regsContainer)
	content := container.NewBorder(toolbar, status, nil, right, screenCanvas)
	w.SetContent(content)
	w.Resize(fyne.NewSize(900, 560))

	go func() {
		for {
			if gb != nil {
				gb.StepFrame()
				frame, samples := ih.snapshot()
				if len(frame) == screenWidth*screenHeight {
					updateScreen(screenImg, frame)
					screenCanvas.Refresh()
				}
				if len(samples) > 0 {
					wave.Update(samples)
				}
				if regs != nil {
					regs.Refresh()
				}
			} else {
				time.Sleep(16 * time.Millisecond)
			}
		}
	}()

	w.ShowAndRun()
}

func updateScreen(img *image.RGBA, frame []uint16) {
	for i, px := range frame {
		r := uint8(px&0x1F) << 3
		g := uint8((px>>5)&0x1F) << 3
		b := uint8((px>>10)&0x1F) << 3
		img.Set(i%screenWidth, i/screenWidth, color.RGBA{R: r, G: g, B: b, A: 0xFF})
	}
}
