package mocks

import (
	"context"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// VideoEncoderFactory is a mock implementation of ports.VideoEncoderFactory.
// By default every probe reports supported and NewEncoder hands out the
// embedded Encoder wired to the pipeline's callbacks.
type VideoEncoderFactory struct {
	IsConfigSupportedFunc func(cfg ports.EncoderConfig) (ports.EncoderConfig, bool, error)

	// Encoder is returned by NewEncoder. Allocated on first use when nil.
	Encoder *VideoEncoder

	// Recorded calls for verification
	ProbeCalls []ports.EncoderConfig
}

func (m *VideoEncoderFactory) IsConfigSupported(cfg ports.EncoderConfig) (ports.EncoderConfig, bool, error) {
	m.ProbeCalls = append(m.ProbeCalls, cfg)
	if m.IsConfigSupportedFunc != nil {
		return m.IsConfigSupportedFunc(cfg)
	}
	return cfg, true, nil
}

func (m *VideoEncoderFactory) NewEncoder(cfg ports.EncoderConfig, onChunk func(ports.EncodedChunk), onError func(error)) (ports.VideoEncoder, error) {
	if m.Encoder == nil {
		m.Encoder = &VideoEncoder{}
	}
	m.Encoder.cfg = cfg
	m.Encoder.onChunk = onChunk
	m.Encoder.onError = onError
	return m.Encoder, nil
}

// VideoEncoder is a mock implementation of ports.VideoEncoder. Unless
// EncodeFunc is set, every Encode emits one chunk that echoes the submitted
// timing and keyframe tag, so the muxer sees the same sequence the engine
// committed.
type VideoEncoder struct {
	EncodeFunc func(frame ports.Frame, keyframe bool) error
	FlushFunc  func(ctx context.Context) error
	CloseFunc  func() error

	// Recorded calls for verification
	EncodeCalls []EncodeCall
	FlushCount  int
	Closed      bool

	cfg     ports.EncoderConfig
	onChunk func(ports.EncodedChunk)
	onError func(error)
}

// EncodeCall records a call to Encode.
type EncodeCall struct {
	TimestampUs int64
	DurationUs  int64
	Keyframe    bool
}

func (m *VideoEncoder) Encode(frame ports.Frame, keyframe bool) error {
	m.EncodeCalls = append(m.EncodeCalls, EncodeCall{
		TimestampUs: frame.TimestampUs,
		DurationUs:  frame.DurationUs,
		Keyframe:    keyframe,
	})
	if m.EncodeFunc != nil {
		return m.EncodeFunc(frame, keyframe)
	}
	if m.onChunk != nil {
		m.onChunk(ports.EncodedChunk{
			Data:        []byte{0xde, 0xad},
			TimestampUs: frame.TimestampUs,
			DurationUs:  frame.DurationUs,
			Keyframe:    keyframe,
		})
	}
	return nil
}

func (m *VideoEncoder) Flush(ctx context.Context) error {
	m.FlushCount++
	if m.FlushFunc != nil {
		return m.FlushFunc(ctx)
	}
	return nil
}

func (m *VideoEncoder) Close() error {
	m.Closed = true
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// InjectError delivers err on the encoder's asynchronous error callback, as
// a faulting platform encoder would.
func (m *VideoEncoder) InjectError(err error) {
	if m.onError != nil {
		m.onError(err)
	}
}

var (
	_ ports.VideoEncoderFactory = (*VideoEncoderFactory)(nil)
	_ ports.VideoEncoder        = (*VideoEncoder)(nil)
)
