package mocks

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// Surface is a mock implementation of ports.Surface backed by a real RGBA
// raster. Blit and FillRect mutate the raster so tests can assert on pixels;
// text calls are only recorded.
type Surface struct {
	Raster *image.RGBA

	// Recorded calls for verification
	BlitCalls     []BlitCall
	FillRectCalls []FillRectCall
	TextCalls     []DrawTextRightCall
}

// BlitCall records a call to Blit.
type BlitCall struct {
	X, Y int
}

// FillRectCall records a call to FillRect.
type FillRectCall struct {
	X, Y, W, H int
	Color      color.Color
}

// DrawTextRightCall records a call to DrawTextRight.
type DrawTextRightCall struct {
	Text     string
	X, Y     int
	FontSize float64
	Color    color.Color
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{Raster: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (s *Surface) Blit(img image.Image, x, y int) {
	s.BlitCalls = append(s.BlitCalls, BlitCall{X: x, Y: y})
	draw.Draw(s.Raster, img.Bounds().Add(image.Pt(x, y)), img, img.Bounds().Min, draw.Src)
}

func (s *Surface) FillRect(x, y, w, h int, c color.Color) {
	s.FillRectCalls = append(s.FillRectCalls, FillRectCall{X: x, Y: y, W: w, H: h, Color: c})
	draw.Draw(s.Raster, image.Rect(x, y, x+w, y+h), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *Surface) DrawTextRight(text string, x, y int, fontSize float64, c color.Color) {
	s.TextCalls = append(s.TextCalls, DrawTextRightCall{Text: text, X: x, Y: y, FontSize: fontSize, Color: c})
}

func (s *Surface) Image() image.Image {
	return s.Raster
}

func (s *Surface) Size() (int, int) {
	b := s.Raster.Bounds()
	return b.Dx(), b.Dy()
}

var _ ports.Surface = (*Surface)(nil)
