//go:build !test

// Screenshot export, grounded on the teacher's pkg/utils/image.go
// (CopyImage via golang.design/x/clipboard, SaveImage via
// sqweek/dialog's save-file picker) and pkg/utils/dialog.go's
// AskForFile load-file picker, retargeted from PNG to BMP since this
// tree's go.mod carries golang.org/x/image (for its bmp encoder) rather
// than relying on image/png alone.
package inspector

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/sqweek/dialog"
	"golang.design/x/clipboard"
	"golang.org/x/image/bmp"
)

// FrameToImage converts a 160x144 XBGR1555 frame into a standard
// image.Image for screenshotting.
func FrameToImage(frame []uint16, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, px := range frame {
		r := uint8(px&0x1F) << 3
		g := uint8((px>>5)&0x1F) << 3
		b := uint8((px>>10)&0x1F) << 3
		img.Set(i%width, i/width, color.RGBA{R: r, G: g, B: b, A: 0xFF})
	}
	return img
}

// CopyToClipboard encodes img as BMP and places it on the system
// clipboard.
func CopyToClipboard(img image.Image) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("inspector: clipboard init: %w", err)
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return fmt.Errorf("inspector: bmp encode: %w", err)
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}

// SaveScreenshot prompts the user for a destination and writes img as a
// BMP file.
func SaveScreenshot(img image.Image) (string, error) {
	filename, err := dialog.File().Filter("BMP Image", "bmp").Title("Save Screenshot").Save()
	if err != nil {
		return "", err
	}
	if len(filename) < 4 || filename[len(filename)-4:] != ".bmp" {
		filename += ".bmp"
	}

	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := bmp.Encode(f, img); err != nil {
		return "", err
	}
	return filename, nil
}

// AskForROM prompts the user to pick a ROM file to load.
func AskForROM(startingDir string) (string, error) {
	return dialog.File().SetStartDir(startingDir).Title("Open ROM").Load()
}
