package timelapse

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// KeyframeInterval is the keyframe cadence in frames. The frame counter is
// shared between the stepped phase and the freeze-frame hold and is never
// reset, so held frames continue the same cadence.
const KeyframeInterval = 150

// encodeMux owns the stateful encoder and muxer for one export. It consumes
// composited frames in strict sequence: each frame is submitted, tagged with
// the cadence keyframe decision, and fully flushed before the next one is
// accepted. The encoder never holds more than one frame in flight, so an error
// or a cancellation is observed with exact knowledge of the last committed
// frame.
type encodeMux struct {
	enc ports.VideoEncoder
	mux ports.Muxer

	framesEncoded int

	mu          sync.Mutex
	capturedErr error
}

// newEncodeMux allocates the encoder resource for cfg and wires its chunk
// output into the muxer and its error channel into the captured-error slot.
func newEncodeMux(factory ports.VideoEncoderFactory, cfg ports.EncoderConfig, mux ports.Muxer) (*encodeMux, error) {
	m := &encodeMux{mux: mux}

	enc, err := factory.NewEncoder(cfg, m.mux.AddChunk, m.captureErr)
	if err != nil {
		return nil, fmt.Errorf("allocate encoder: %w", err)
	}
	m.enc = enc

	return m, nil
}

// captureErr records an asynchronous encoder fault. The first fault wins;
// later ones are dropped. The engine never reads orchestration state, it only
// writes here.
func (m *encodeMux) captureErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.capturedErr == nil {
		m.capturedErr = err
	}
}

// checkErr surfaces the captured encoder fault, non-destructively. Callers
// must check before submitting further work.
func (m *encodeMux) checkErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.capturedErr != nil {
		return fmt.Errorf("encoder fault: %w", m.capturedErr)
	}
	return nil
}

// encodeFrame submits one frame and awaits a full flush before returning.
// The raster is only borrowed for the duration of the call; the compositing
// surface mutates it on the next step.
func (m *encodeMux) encodeFrame(ctx context.Context, raster image.Image, timestampUs, durationUs int64) error {
	if err := m.checkErr(); err != nil {
		return err
	}

	m.framesEncoded++
	keyframe := m.framesEncoded%KeyframeInterval == 0

	frame := ports.Frame{
		Image:       raster,
		TimestampUs: timestampUs,
		DurationUs:  durationUs,
	}
	if err := m.enc.Encode(frame, keyframe); err != nil {
		return fmt.Errorf("encode frame %d: %w", m.framesEncoded, err)
	}

	if err := m.enc.Flush(ctx); err != nil {
		return fmt.Errorf("flush frame %d: %w", m.framesEncoded, err)
	}

	return nil
}

// finish finalizes the muxer into the output container. An export that never
// committed a frame fails with ErrEmptyMuxer. The encoder resource is closed
// as the last step regardless of the finalization outcome.
func (m *encodeMux) finish() ([]byte, error) {
	defer m.enc.Close()

	data, err := m.mux.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize muxer: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyMuxer
	}
	return data, nil
}
