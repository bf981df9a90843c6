// Package analyze implements the image measurements of the toolkit. The
// distribution analyzer bins a labeled object mask along both axes and
// records histograms and descriptive statistics into an observation store.
package analyze

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
)

// LabeledMask is a labeled object mask: 0 is background, positive values
// identify individual objects. Labels are stored row-major.
type LabeledMask struct {
	Width  int
	Height int
	Labels []int
}

// NewLabeledMask creates an all-background mask of the given size.
func NewLabeledMask(width, height int) (*LabeledMask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("analyze: invalid mask size %dx%d", width, height)
	}
	return &LabeledMask{Width: width, Height: height, Labels: make([]int, width*height)}, nil
}

// At returns the label at (x, y).
func (m *LabeledMask) At(x, y int) int { return m.Labels[y*m.Width+x] }

// Set writes the label at (x, y).
func (m *LabeledMask) Set(x, y, label int) { m.Labels[y*m.Width+x] = label }

// LoadLabeledMask reads a grayscale image (PNG, BMP or GIF) and interprets
// each pixel's gray value as an object label.
func LoadLabeledMask(path string) (*LabeledMask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("analyze: opening mask: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("analyze: decoding mask %s: %w", path, err)
	}
	return MaskFromImage(img), nil
}

// MaskFromImage converts a decoded image to a labeled mask using the gray
// value of each pixel as its label. 16-bit sources are scaled down to their
// high byte, matching 8-bit label exports.
func MaskFromImage(img image.Image) *LabeledMask {
	bounds := img.Bounds()
	m := &LabeledMask{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Labels: make([]int, bounds.Dx()*bounds.Dy()),
	}
	if gray16, ok := img.(*image.Gray16); ok {
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				m.Labels[y*m.Width+x] = int(gray16.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return m
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// ITU-R BT.601 luma, reduced to 8 bits.
			luma := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
			m.Labels[y*m.Width+x] = int(luma)
		}
	}
	return m
}
