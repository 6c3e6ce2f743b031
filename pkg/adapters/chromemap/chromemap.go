// Package chromemap drives a running pdx-tools page in headless Chrome and
// exposes its wasm save worker and WebGL map through the SaveEngine and
// MapRenderer ports.
package chromemap

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/clemux/pdx-tools/pkg/ports"
)

const mapCanvasSelector = "canvas#map"

// Options configures the browser session.
type Options struct {
	// URL of a pdx-tools page with a loaded save.
	URL string
	// ChromePath overrides Chrome discovery (falls back to CHROME_PATH, then
	// the system default).
	ChromePath string
	Headless   bool
	// LoadTimeout bounds the initial page load. Zero means 60s.
	LoadTimeout time.Duration

	Logger ports.Logger
}

// Session is a live browser tab. It implements both ports.SaveEngine and
// ports.MapRenderer; the pipeline sequences all calls, so no locking is
// needed beyond chromedp's own.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      ports.Logger

	width  int
	height int
	canvas image.Image

	// lastErr records renderer-side failures; the renderer port is
	// synchronous, so they surface on the next Canvas read.
	lastErr error
}

// Launch opens the page and waits for the save worker and map canvas to be
// ready.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	chromedpOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
	}
	if opts.Headless {
		chromedpOpts = append(chromedpOpts, chromedp.Flag("headless", "new"))
	}
	if path := resolveChromePath(opts.ChromePath); path != "" {
		chromedpOpts = append(chromedpOpts, chromedp.ExecPath(path))
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedpOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		logger:      logger.WithComponent("chromemap"),
	}

	timeout := opts.LoadTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	loadCtx, loadCancel := context.WithTimeout(tabCtx, timeout)
	defer loadCancel()

	err := chromedp.Run(loadCtx,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(mapCanvasSelector),
		chromedp.Evaluate(`window.pdx.ready()`, nil, awaitPromise),
		chromedp.Evaluate(`document.querySelector("canvas#map").width`, &s.width),
		chromedp.Evaluate(`document.querySelector("canvas#map").height`, &s.height),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open pdx-tools page: %w", err)
	}

	s.logger.Debug("Map canvas ready at %dx%d", s.width, s.height)
	return s, nil
}

// Close tears down the tab and the browser.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}

// IncrementDate advances a day ordinal by one interval step via the save
// worker.
func (s *Session) IncrementDate(ctx context.Context, days int, interval ports.DateInterval) (ports.SimDate, error) {
	var res struct {
		Days int    `json:"days"`
		Text string `json:"text"`
	}
	script := fmt.Sprintf(`window.pdx.incrementDate(%d, %q)`, days, string(interval))
	if err := s.run(ctx, chromedp.Evaluate(script, &res, awaitPromise)); err != nil {
		return ports.SimDate{}, fmt.Errorf("increment date: %w", err)
	}
	return ports.SimDate{Days: res.Days, Text: res.Text}, nil
}

// MapColors computes province color buffers via the save worker. The worker
// replies with base64 so the buffers survive the CDP JSON boundary.
func (s *Session) MapColors(ctx context.Context, payload ports.MapRenderPayload) (ports.ColorBuffers, error) {
	date := "null"
	if payload.DateOverride != nil {
		date = fmt.Sprintf("%d", *payload.DateOverride)
	}
	script := fmt.Sprintf(
		`window.pdx.mapColorsBase64({mapMode: %q, tag: %q, date: %s, showSecondaryColor: %t})`,
		payload.MapMode, payload.Tag, date, payload.ShowSecondaryColor,
	)

	var res struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
	}
	if err := s.run(ctx, chromedp.Evaluate(script, &res, awaitPromise)); err != nil {
		return ports.ColorBuffers{}, fmt.Errorf("map colors: %w", err)
	}

	primary, err := base64.StdEncoding.DecodeString(res.Primary)
	if err != nil {
		return ports.ColorBuffers{}, fmt.Errorf("decode primary colors: %w", err)
	}
	secondary, err := base64.StdEncoding.DecodeString(res.Secondary)
	if err != nil {
		return ports.ColorBuffers{}, fmt.Errorf("decode secondary colors: %w", err)
	}
	return ports.ColorBuffers{Primary: primary, Secondary: secondary}, nil
}

// UpdateProvinceColors pushes the buffers into the page's map state.
func (s *Session) UpdateProvinceColors(primary, secondary []byte) {
	script := fmt.Sprintf(
		`window.pdx.updateProvinceColors(%q, %q)`,
		base64.StdEncoding.EncodeToString(primary),
		base64.StdEncoding.EncodeToString(secondary),
	)
	if err := s.run(s.ctx, chromedp.Evaluate(script, nil)); err != nil {
		s.lastErr = fmt.Errorf("update province colors: %w", err)
	}
}

// RedrawNow forces a map redraw and captures the canvas pixels.
func (s *Session) RedrawNow() {
	var shot []byte
	err := s.run(s.ctx,
		chromedp.Evaluate(`window.pdx.redrawMapNow()`, nil),
		chromedp.Screenshot(mapCanvasSelector, &shot, chromedp.NodeVisible),
	)
	if err != nil {
		s.lastErr = fmt.Errorf("redraw map: %w", err)
		return
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		s.lastErr = fmt.Errorf("decode canvas screenshot: %w", err)
		return
	}
	s.canvas = img
	s.lastErr = nil
}

// Canvas returns the pixels captured by the last RedrawNow.
func (s *Session) Canvas() image.Image {
	if s.canvas == nil || s.lastErr != nil {
		// A frame must always be available; a gray canvas makes a renderer
		// fault visible in the output instead of crashing the export.
		if s.lastErr != nil {
			s.logger.Warn("Using placeholder canvas: %s", s.lastErr)
		}
		return image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	}
	return s.canvas
}

// DateRange returns the save's first and last playable dates.
func (s *Session) DateRange(ctx context.Context) (start, end ports.SimDate, err error) {
	var res struct {
		Start struct {
			Days int    `json:"days"`
			Text string `json:"text"`
		} `json:"start"`
		End struct {
			Days int    `json:"days"`
			Text string `json:"text"`
		} `json:"end"`
	}
	if err := s.run(ctx, chromedp.Evaluate(`window.pdx.dateRange()`, &res, awaitPromise)); err != nil {
		return ports.SimDate{}, ports.SimDate{}, fmt.Errorf("date range: %w", err)
	}
	return ports.SimDate{Days: res.Start.Days, Text: res.Start.Text},
		ports.SimDate{Days: res.End.Days, Text: res.End.Text}, nil
}

// ResolveDate converts an ISO 8601 date string to a SimDate.
func (s *Session) ResolveDate(ctx context.Context, iso string) (ports.SimDate, error) {
	var res struct {
		Days int    `json:"days"`
		Text string `json:"text"`
	}
	script := fmt.Sprintf(`window.pdx.resolveDate(%q)`, iso)
	if err := s.run(ctx, chromedp.Evaluate(script, &res, awaitPromise)); err != nil {
		return ports.SimDate{}, fmt.Errorf("resolve date %q: %w", iso, err)
	}
	return ports.SimDate{Days: res.Days, Text: res.Text}, nil
}

// Size returns the map canvas dimensions.
func (s *Session) Size() (int, int) {
	return s.width, s.height
}

// Err returns the last renderer-side failure, if any.
func (s *Session) Err() error {
	return s.lastErr
}

// run executes browser actions against the tab, bounded by the caller's ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if ctx != nil && ctx != s.ctx {
		var cancel context.CancelFunc
		runCtx, cancel = mergeContexts(s.ctx, ctx)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// mergeContexts derives a context from tab that is also cancelled when the
// caller's ctx ends.
func mergeContexts(tab, caller context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(tab)
	stop := context.AfterFunc(caller, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

func awaitPromise(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func resolveChromePath(custom string) string {
	if custom != "" {
		return custom
	}
	if env := os.Getenv("CHROME_PATH"); env != "" {
		return env
	}
	return ""
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})      {}
func (noopLogger) Info(string, ...interface{})       {}
func (noopLogger) Warn(string, ...interface{})       {}
func (noopLogger) Error(string, ...interface{})      {}
func (noopLogger) WithComponent(string) ports.Logger { return noopLogger{} }

var (
	_ ports.SaveEngine  = (*Session)(nil)
	_ ports.MapRenderer = (*Session)(nil)
)
