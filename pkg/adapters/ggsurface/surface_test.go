package ggsurface

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestNew_InvalidDimensions(t *testing.T) {
	if _, err := New(0, 100); err == nil {
		t.Error("expected an error for zero width")
	}
	if _, err := New(100, -5); err == nil {
		t.Error("expected an error for negative height")
	}
}

func TestSurface_Size(t *testing.T) {
	s, err := New(320, 180)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w, h := s.Size()
	if w != 320 || h != 180 {
		t.Errorf("expected 320x180, got %dx%d", w, h)
	}
}

func TestSurface_BlitSameSize(t *testing.T) {
	s, err := New(40, 30)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	src := image.NewRGBA(image.Rect(0, 0, 40, 30))
	red := color.RGBA{R: 255, A: 255}
	draw.Draw(src, src.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)

	s.Blit(src, 0, 0)

	got := s.Image().(*image.RGBA).RGBAAt(20, 15)
	if got != red {
		t.Errorf("expected red at (20,15), got %v", got)
	}
}

func TestSurface_BlitScalesMismatchedSource(t *testing.T) {
	s, err := New(40, 30)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// A smaller uniform source must still cover the whole surface.
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	blue := color.RGBA{B: 255, A: 255}
	draw.Draw(src, src.Bounds(), image.NewUniform(blue), image.Point{}, draw.Src)

	s.Blit(src, 0, 0)

	raster := s.Image().(*image.RGBA)
	for _, pt := range []image.Point{{0, 0}, {39, 29}, {20, 15}} {
		if got := raster.RGBAAt(pt.X, pt.Y); got != blue {
			t.Errorf("expected blue at %v, got %v", pt, got)
		}
	}
}

func TestSurface_BlitIsOpaqueCopy(t *testing.T) {
	s, err := New(10, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.FillRect(0, 0, 10, 10, color.RGBA{G: 255, A: 255})

	// A transparent source must replace, not blend.
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	s.Blit(src, 0, 0)

	got := s.Image().(*image.RGBA).RGBAAt(5, 5)
	if got != (color.RGBA{}) {
		t.Errorf("expected the transparent source to overwrite, got %v", got)
	}
}

func TestSurface_FillRect(t *testing.T) {
	s, err := New(50, 50)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	fill := color.RGBA{R: 0x14, G: 0x14, B: 0x14, A: 0xff}
	s.FillRect(10, 10, 20, 20, fill)

	raster := s.Image().(*image.RGBA)
	if got := raster.RGBAAt(15, 15); got != fill {
		t.Errorf("expected fill color inside the rect, got %v", got)
	}
	if got := raster.RGBAAt(5, 5); got == fill {
		t.Error("expected no fill outside the rect")
	}
}

func TestSurface_DrawTextRightMarksPixels(t *testing.T) {
	s, err := New(200, 50)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.FillRect(0, 0, 200, 50, color.Black)

	s.DrawTextRight("PDX TOOLS", 190, 25, 12, color.White)

	// The glyphs end at x=190, so some pixel to its left must be lit.
	raster := s.Image().(*image.RGBA)
	lit := false
	for x := 100; x <= 190 && !lit; x++ {
		for y := 15; y <= 35; y++ {
			if c := raster.RGBAAt(x, y); c.R > 0 || c.G > 0 || c.B > 0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("expected text pixels left of the anchor")
	}

	// Nothing is drawn past the anchor.
	for x := 191; x < 200; x++ {
		for y := 0; y < 50; y++ {
			if c := raster.RGBAAt(x, y); c.R > 0 || c.G > 0 || c.B > 0 {
				t.Fatalf("unexpected pixel right of the anchor at (%d,%d)", x, y)
			}
		}
	}
}
