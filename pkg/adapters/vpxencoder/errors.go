package vpxencoder

import "errors"

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("vpxencoder: ffmpeg not found")

	// ErrClosed is returned when a frame is submitted after Close.
	ErrClosed = errors.New("vpxencoder: encoder closed")

	// ErrOutputEnded is reported when ffmpeg stops emitting packets while
	// frames are still in flight.
	ErrOutputEnded = errors.New("vpxencoder: encoder output ended early")
)
