package timelapse

import "errors"

var (
	// ErrNoSupportedCodec is returned when no candidate codec configuration
	// passes the platform capability probe. Fatal for the whole export.
	ErrNoSupportedCodec = errors.New("timelapse: no supported codec")

	// ErrEmptyMuxer is returned by Finish when finalization yields no data,
	// i.e. zero frames were ever encoded.
	ErrEmptyMuxer = errors.New("timelapse: empty muxer")

	// ErrFinished is returned when the pipeline is used after Finish.
	ErrFinished = errors.New("timelapse: pipeline already finished")
)
