// Package timelapse implements the capture-encode-mux pipeline that turns a
// span of in-save dates into a video: a lazy date sequence, a frame
// compositor with a date overlay, codec negotiation, and an encode/mux engine
// with a one-frame-in-flight backpressure discipline.
package timelapse

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// Options configures one export. Renderer, Engine, Encoders, NewSurface and
// NewMuxer are required; the zero values of the remaining fields are not
// useful, so callers populate everything explicitly.
type Options struct {
	Renderer ports.MapRenderer
	Engine   ports.SaveEngine
	Encoders ports.VideoEncoderFactory

	// NewSurface allocates the off-screen compositing surface at the
	// negotiated resolution.
	NewSurface func(width, height int) (ports.Surface, error)

	// NewMuxer allocates the container muxer for the negotiated
	// configuration.
	NewMuxer func(cfg ports.EncoderConfig) ports.Muxer

	MapPayload ports.MapRenderPayload
	Interval   ports.DateInterval
	StartDate  ports.SimDate
	EndDate    ports.SimDate
	FPS        int

	// FreezeFrameSeconds holds the final composited frame for this many
	// seconds by emitting repeated encode calls at successive timestamps.
	FreezeFrameSeconds int

	Logger ports.Logger
}

// TimelapseEncoder drives one export from start to finish. It is built by
// New, lives for exactly one export, and is torn down by Finish. There is no
// implicit cleanup of the encoder resource, so callers must call Finish on
// every exit path, including after an error.
type TimelapseEncoder struct {
	cfg        ports.EncoderConfig
	cursor     *DateCursor
	comp       *compositor
	engine     *encodeMux
	endDate    ports.SimDate
	fps        int
	freezeSecs int
	frameDurUs int64
	logger     ports.Logger

	tsCursorUs int64
	stop       atomic.Bool
	finished   bool
}

// New negotiates the output codec, allocates the compositing surface and the
// encoder/muxer pair, and returns a pipeline ready to iterate. A negotiation
// failure happens before any resource is allocated, so it carries no cleanup
// obligation.
func New(ctx context.Context, opts Options) (*TimelapseEncoder, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("timelapse: fps must be positive, got %d", opts.FPS)
	}
	if opts.StartDate.Days > opts.EndDate.Days {
		return nil, fmt.Errorf("timelapse: start date %q is after end date %q", opts.StartDate.Text, opts.EndDate.Text)
	}

	width, height := opts.Renderer.Size()
	cfg, err := negotiateCodec(opts.Encoders, width, height, opts.FPS)
	if err != nil {
		return nil, err
	}

	surface, err := opts.NewSurface(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("allocate surface: %w", err)
	}

	engine, err := newEncodeMux(opts.Encoders, cfg, opts.NewMuxer(cfg))
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.WithComponent("timelapse")
	logger.Debug("Negotiated %s at %dx%d, %d bps", cfg.Codec, cfg.Width, cfg.Height, cfg.Bitrate)

	return &TimelapseEncoder{
		cfg:        cfg,
		cursor:     NewDateCursor(opts.Engine, opts.StartDate, opts.EndDate, opts.Interval),
		comp:       newCompositor(opts.Engine, opts.Renderer, surface, opts.MapPayload, opts.Logger),
		engine:     engine,
		endDate:    opts.EndDate,
		fps:        opts.FPS,
		freezeSecs: opts.FreezeFrameSeconds,
		frameDurUs: 1_000_000 / int64(opts.FPS),
		logger:     logger,
	}, nil
}

// Config returns the negotiated encoder configuration.
func (t *TimelapseEncoder) Config() ports.EncoderConfig {
	return t.cfg
}

// FramesEncoded returns the number of frames committed so far.
func (t *TimelapseEncoder) FramesEncoded() int {
	return t.engine.framesEncoded
}

// Next advances the pipeline by one date: it checks for a captured encoder
// fault and a pending stop request, composites and encodes exactly one frame
// for the next date (plus the freeze-frame hold when that date is the
// terminal one), and returns the date as the caller's progress observation
// point. The second return value is false when the sequence is over, whether
// by exhaustion or by Stop.
func (t *TimelapseEncoder) Next(ctx context.Context) (ports.SimDate, bool, error) {
	if t.finished {
		return ports.SimDate{}, false, ErrFinished
	}
	if err := t.engine.checkErr(); err != nil {
		return ports.SimDate{}, false, err
	}
	if t.stop.Load() {
		t.logger.Debug("Stop observed, ending sequence")
		return ports.SimDate{}, false, nil
	}

	date, ok, err := t.cursor.Next(ctx)
	if err != nil || !ok {
		return ports.SimDate{}, false, err
	}

	raster, err := t.comp.CompositeFrame(ctx, date)
	if err != nil {
		return ports.SimDate{}, false, err
	}

	if err := t.encodeAt(ctx, raster); err != nil {
		return ports.SimDate{}, false, err
	}

	if date.Days >= t.endDate.Days {
		// Hold the final frame: repeated submissions of the same raster at
		// successive timestamps, each individually flushed.
		for i := 0; i < t.freezeSecs*t.fps; i++ {
			if err := t.encodeAt(ctx, raster); err != nil {
				return ports.SimDate{}, false, err
			}
		}
	}

	return date, true, nil
}

// encodeAt commits one frame at the current timestamp cursor and advances
// the cursor by exactly one frame duration.
func (t *TimelapseEncoder) encodeAt(ctx context.Context, raster image.Image) error {
	if err := t.engine.encodeFrame(ctx, raster, t.tsCursorUs, t.frameDurUs); err != nil {
		return err
	}
	t.tsCursorUs += t.frameDurUs
	return nil
}

// Stop requests cooperative cancellation. It only sets a flag: the request is
// observed at the next date checkpoint, and a frame already mid-flush always
// completes, so the output produced so far remains finalizable.
func (t *TimelapseEncoder) Stop() {
	t.stop.Store(true)
}

// Finish finalizes the container and releases the encoder resource. It may
// be called at most once, and only after the caller has stopped driving Next.
func (t *TimelapseEncoder) Finish() ([]byte, error) {
	if t.finished {
		return nil, ErrFinished
	}
	t.finished = true

	data, err := t.engine.finish()
	if err != nil {
		return nil, err
	}
	t.logger.Info("Encoded %d frames into %d bytes", t.engine.framesEncoded, len(data))
	return data, nil
}

// IsSupported reports whether the platform exposes a usable encoding
// primitive at all, by probing the candidate list at a nominal resolution.
func IsSupported(factory ports.VideoEncoderFactory) bool {
	_, err := negotiateCodec(factory, 640, 360, 30)
	return err == nil
}
