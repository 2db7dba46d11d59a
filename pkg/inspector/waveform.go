package inspector

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Waveform renders the most recent stereo audio samples as a gonum/plot
// line chart rasterized into a fyne canvas.Image, grounded on the
// teacher's pkg/display/fyne/views/performance.go frame-time chart (same
// plot.New / vgimg.NewWith(vgimg.UseImage) / draw.New plumbing, applied
// to audio samples instead of frame durations).
type Waveform struct {
	img    *image.RGBA
	canvas *canvas.Image
	left   plotter.XYs
}

// NewWaveform creates a chart of the given pixel size.
func NewWaveform(width, height int) *Waveform {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillOriginal
	c.SetMinSize(fyne.NewSize(float32(width), float32(height)))
	return &Waveform{img: img, canvas: c}
}

// Canvas returns the fyne object to place in a container.
func (w *Waveform) Canvas() fyne.CanvasObject { return w.canvas }

// Update re-draws the chart from interleaved stereo float32 samples,
// plotting the left channel.
func (w *Waveform) Update(samples []float32) {
	n := len(samples) / 2
	if n == 0 {
		return
	}
	if len(w.left) != n {
		w.left = make(plotter.XYs, n)
	}
	for i := 0; i < n; i++ {
		w.left[i].X = float64(i)
		w.left[i].Y = float64(samples[i*2])
	}

	p := plot.New()
	p.Title.Text = "Audio"
	p.Y.Min, p.Y.Max = -1, 1

	line, err := plotter.NewLine(w.left)
	if err != nil {
		return
	}
	p.Add(line)

	c := vgimg.NewWith(vgimg.UseImage(w.img))
	p.Draw(draw.New(c))

	w.canvas.Image = c.Image()
	w.canvas.Refresh()
}
