package timelapse

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// Overlay geometry. The badge is a fixed-size dark rectangle anchored at the
// top-right corner of the surface, holding the brand label and the current
// date, both right-aligned. Everything doubles on surfaces wider than 2000px.
const (
	overlayWidth      = 130
	overlayHeight     = 50
	overlayPad        = 10
	brandBaseline     = 18
	dateBaseline      = 38
	brandFontSize     = 12
	dateFontSize      = 16
	wideSurfaceWidth  = 2000
	overlayBrandLabel = "PDX TOOLS"
)

var (
	overlayFill = color.RGBA{R: 0x14, G: 0x14, B: 0x14, A: 0xff}
	overlayText = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// compositor paints one frame per date: it pulls a colorization from the
// save engine, pushes it into the renderer's persistent color state, forces a
// synchronous redraw, blits the canvas onto the off-screen surface without
// alpha blending and stamps the overlay badge on top.
type compositor struct {
	engine   ports.SaveEngine
	renderer ports.MapRenderer
	surface  ports.Surface
	payload  ports.MapRenderPayload
	logger   ports.Logger
}

func newCompositor(engine ports.SaveEngine, renderer ports.MapRenderer, surface ports.Surface, payload ports.MapRenderPayload, logger ports.Logger) *compositor {
	return &compositor{
		engine:   engine,
		renderer: renderer,
		surface:  surface,
		payload:  payload,
		logger:   logger.WithComponent("compositor"),
	}
}

// overlayScale returns the badge scale tier for a surface width.
func overlayScale(surfaceWidth int) int {
	if surfaceWidth > wideSurfaceWidth {
		return 2
	}
	return 1
}

// CompositeFrame renders the map as of date onto the surface and returns the
// surface raster. The raster is only valid until the next call.
func (c *compositor) CompositeFrame(ctx context.Context, date ports.SimDate) (image.Image, error) {
	payload := c.payload
	days := date.Days
	payload.DateOverride = &days

	colors, err := c.engine.MapColors(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("map colors for %s: %w", date.Text, err)
	}

	// The renderer's color buffers are the only shared mutable state in the
	// pipeline: written here, read by the immediate redraw. Strict sequencing
	// stands in for locking.
	c.renderer.UpdateProvinceColors(colors.Primary, colors.Secondary)
	c.renderer.RedrawNow()

	c.surface.Blit(c.renderer.Canvas(), 0, 0)
	c.drawOverlay(date)

	c.logger.Debug("Composited frame for %s", date.Text)
	return c.surface.Image(), nil
}

func (c *compositor) drawOverlay(date ports.SimDate) {
	width, _ := c.surface.Size()
	scale := overlayScale(width)

	x := width - overlayWidth*scale
	c.surface.FillRect(x, 0, overlayWidth*scale, overlayHeight*scale, overlayFill)

	right := width - overlayPad*scale
	c.surface.DrawTextRight(overlayBrandLabel, right, brandBaseline*scale, float64(brandFontSize*scale), overlayText)
	c.surface.DrawTextRight(date.Text, right, dateBaseline*scale, float64(dateFontSize*scale), overlayText)
}
