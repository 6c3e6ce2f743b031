package ports

import (
	"context"
	"image"
)

// EncoderConfig is the resolved output shape for one export. It is immutable
// once negotiated.
type EncoderConfig struct {
	// Codec is the codec identifier, e.g. "vp09.00.10.08" or "vp8".
	Codec string
	// MuxerTag is the container sample entry type, e.g. "vp09" or "vp08".
	MuxerTag string
	Width    int
	Height   int
	// Bitrate is the target bitrate in bits per second.
	Bitrate int
	// Framerate in frames per second.
	Framerate int
	// BitrateMode is "variable" or "constant".
	BitrateMode string
}

// Frame is a timestamped raster snapshot handed to the encoder. The Image is
// only valid for the duration of the Encode call: the backing buffer belongs
// to the compositing surface and is mutated by the next composite step, so
// encoders must copy whatever they need before returning.
type Frame struct {
	Image       image.Image
	TimestampUs int64
	DurationUs  int64
}

// EncodedChunk is one encoded video sample as emitted by the encoder.
type EncodedChunk struct {
	Data        []byte
	TimestampUs int64
	DurationUs  int64
	Keyframe    bool
}

// VideoEncoder is a stateful platform encoding resource. Encoded chunks and
// internal faults are delivered asynchronously on the callbacks registered at
// construction.
type VideoEncoder interface {
	// Encode submits one frame, tagged as a keyframe when requested.
	Encode(frame Frame, keyframe bool) error

	// Flush blocks until every submitted frame has been emitted as a chunk.
	Flush(ctx context.Context) error

	// Close releases the encoder resource. Safe to call after a failure.
	Close() error
}

// VideoEncoderFactory probes codec support and constructs encoders.
type VideoEncoderFactory interface {
	// IsConfigSupported reports whether cfg can be encoded. A supported probe
	// returns the actual negotiated configuration, which may refine values
	// (dimensions rounded to codec constraints, clamped bitrate).
	IsConfigSupported(cfg EncoderConfig) (EncoderConfig, bool, error)

	// NewEncoder allocates the encoder resource for cfg. onChunk receives
	// every encoded sample in submission order; onError receives asynchronous
	// encoder faults.
	NewEncoder(cfg EncoderConfig, onChunk func(EncodedChunk), onError func(error)) (VideoEncoder, error)
}

// Muxer packages encoded chunks into a playable container.
type Muxer interface {
	// AddChunk appends one encoded sample. Chunks must arrive in timestamp
	// order.
	AddChunk(chunk EncodedChunk)

	// Finalize builds the container and returns it. A muxer that received no
	// chunks returns an empty buffer, not an error; the caller decides
	// whether that is a failure.
	Finalize() ([]byte, error)
}
