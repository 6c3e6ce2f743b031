// Package ggsurface provides an off-screen compositing surface backed by the
// gg drawing library.
package ggsurface

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// Surface implements ports.Surface using a gg.Context over an RGBA raster.
type Surface struct {
	dc       *gg.Context
	width    int
	height   int
	fontPath string
	fontSize float64
}

// New creates a surface at the given resolution. Text falls back to gg's
// built-in face; use NewWithFont to render the overlay with a TTF.
func New(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ggsurface: invalid dimensions %dx%d", width, height)
	}
	return &Surface{
		dc:     gg.NewContext(width, height),
		width:  width,
		height: height,
	}, nil
}

// NewWithFont creates a surface whose text is drawn with the given TTF file.
func NewWithFont(width, height int, fontPath string) (*Surface, error) {
	s, err := New(width, height)
	if err != nil {
		return nil, err
	}
	s.fontPath = fontPath
	return s, nil
}

// Blit draws img at (x, y) with source-copy semantics. A source whose size
// matches the surface is copied directly; anything else is scaled to cover
// the surface.
func (s *Surface) Blit(img image.Image, x, y int) {
	dst, ok := s.dc.Image().(*image.RGBA)
	if !ok {
		// gg contexts are RGBA-backed; this is unreachable in practice.
		return
	}

	b := img.Bounds()
	if b.Dx() == s.width && b.Dy() == s.height {
		stddraw.Draw(dst, image.Rect(x, y, x+s.width, y+s.height), img, b.Min, stddraw.Src)
		return
	}

	rect := image.Rect(x, y, x+s.width, y+s.height)
	xdraw.CatmullRom.Scale(dst, rect, img, b, xdraw.Src, nil)
}

// FillRect draws a filled rectangle.
func (s *Surface) FillRect(x, y, w, h int, c color.Color) {
	s.dc.SetColor(c)
	s.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	s.dc.Fill()
}

// DrawTextRight draws text right-aligned so it ends at x, vertically
// centered on y.
func (s *Surface) DrawTextRight(text string, x, y int, size float64, c color.Color) {
	if s.fontPath != "" && size != s.fontSize {
		if err := s.dc.LoadFontFace(s.fontPath, size); err == nil {
			s.fontSize = size
		}
	}
	s.dc.SetColor(c)
	s.dc.DrawStringAnchored(text, float64(x), float64(y), 1.0, 0.5)
}

// Image returns the surface raster. The pixels are reused by later draws.
func (s *Surface) Image() image.Image {
	return s.dc.Image()
}

// Size returns the surface dimensions.
func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

var _ ports.Surface = (*Surface)(nil)
