package mocks

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// MapRenderer is a mock implementation of ports.MapRenderer backed by a
// solid-color canvas.
type MapRenderer struct {
	Width       int
	Height      int
	CanvasColor color.Color

	// Recorded calls for verification
	UpdateCalls []UpdateProvinceColorsCall
	RedrawCount int
}

// UpdateProvinceColorsCall records a call to UpdateProvinceColors.
type UpdateProvinceColorsCall struct {
	Primary   []byte
	Secondary []byte
}

// NewMapRenderer creates a renderer of the given size with a uniform canvas.
func NewMapRenderer(width, height int, c color.Color) *MapRenderer {
	return &MapRenderer{Width: width, Height: height, CanvasColor: c}
}

func (m *MapRenderer) UpdateProvinceColors(primary, secondary []byte) {
	m.UpdateCalls = append(m.UpdateCalls, UpdateProvinceColorsCall{Primary: primary, Secondary: secondary})
}

func (m *MapRenderer) RedrawNow() {
	m.RedrawCount++
}

func (m *MapRenderer) Canvas() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	c := m.CanvasColor
	if c == nil {
		c = color.Black
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func (m *MapRenderer) Size() (int, int) {
	return m.Width, m.Height
}

var _ ports.MapRenderer = (*MapRenderer)(nil)
