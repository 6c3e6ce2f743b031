package timelapse

import (
	"fmt"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// codecCandidate pairs a codec identifier with the container tag it muxes
// under. Candidates are tried most preferred first.
type codecCandidate struct {
	codec    string
	muxerTag string
}

var codecCandidates = []codecCandidate{
	{codec: "vp09.00.10.08", muxerTag: "vp09"},
	{codec: "vp8", muxerTag: "vp08"},
}

const (
	maxBitrate  = 2_000_000
	baseBitrate = 200_000
)

// targetBitrate computes the heuristic bitrate in bits per second for the
// given output shape: a quarter bit per pixel per frame at 15 fps, scaled
// linearly with the frame rate, plus a floor, capped at 2 Mbps.
func targetBitrate(width, height, fps int) int {
	canvasRate := width * height / 4
	bitrate := canvasRate*fps/15 + baseBitrate
	if bitrate > maxBitrate {
		bitrate = maxBitrate
	}
	return bitrate
}

// negotiateCodec runs the one-time capability probe: each candidate is tried
// in order against the factory and the first supported configuration wins,
// with any refinements reported by the probe merged into the result. Failure
// is fatal for the export and happens before any resource is allocated.
func negotiateCodec(factory ports.VideoEncoderFactory, width, height, fps int) (ports.EncoderConfig, error) {
	bitrate := targetBitrate(width, height, fps)

	for _, cand := range codecCandidates {
		cfg := ports.EncoderConfig{
			Codec:       cand.codec,
			MuxerTag:    cand.muxerTag,
			Width:       width,
			Height:      height,
			Bitrate:     bitrate,
			Framerate:   fps,
			BitrateMode: "variable",
		}

		negotiated, supported, err := factory.IsConfigSupported(cfg)
		if err != nil {
			return ports.EncoderConfig{}, fmt.Errorf("probe %s: %w", cand.codec, err)
		}
		if supported {
			return negotiated, nil
		}
	}

	return ports.EncoderConfig{}, fmt.Errorf("%w for %dx%d@%dfps", ErrNoSupportedCodec, width, height, fps)
}
