package ports

import (
	"image"
	"image/color"
)

// MapRenderer abstracts the interactive map renderer that owns the province
// color state and the canvas backing store. All methods are synchronous; the
// timelapse pipeline is the sole mutator during a capture session.
type MapRenderer interface {
	// UpdateProvinceColors replaces the renderer's persistent color buffers.
	UpdateProvinceColors(primary, secondary []byte)

	// RedrawNow forces an immediate raster flush to the canvas backing store.
	RedrawNow()

	// Canvas returns the canvas's current pixel contents. The returned image
	// is only valid until the next RedrawNow.
	Canvas() image.Image

	// Size returns the canvas dimensions in pixels.
	Size() (width, height int)
}

// Surface is an off-screen raster surface frames are composited onto.
type Surface interface {
	// Blit draws img at (x, y) with source-copy semantics (no alpha
	// blending).
	Blit(img image.Image, x, y int)

	// FillRect draws a filled rectangle.
	FillRect(x, y, w, h int, c color.Color)

	// DrawTextRight draws text right-aligned so it ends at x, vertically
	// centered on y.
	DrawTextRight(text string, x, y int, size float64, c color.Color)

	// Image returns the surface's raster. The backing pixels are reused by
	// subsequent draws; callers that need the contents past the next draw
	// must copy.
	Image() image.Image

	// Size returns the surface dimensions in pixels.
	Size() (width, height int)
}
