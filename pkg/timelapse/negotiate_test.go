package timelapse

import (
	"errors"
	"testing"

	"github.com/clemux/pdx-tools/pkg/mocks"
	"github.com/clemux/pdx-tools/pkg/ports"
)

func TestTargetBitrate(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		fps      int
		expected int
	}{
		{"720p at base rate", 1280, 720, 15, 1280*720/4 + 200_000},
		{"1080p at 30fps", 1920, 1080, 30, 1_236_800},
		{"1440p at 30fps hits the cap", 2560, 1440, 30, 2_000_000},
		{"tiny canvas keeps the floor", 64, 64, 15, 64*64/4 + 200_000},
		{"fps scales linearly", 640, 360, 30, 640*360/4*30/15 + 200_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := targetBitrate(tt.width, tt.height, tt.fps)
			if got != tt.expected {
				t.Errorf("targetBitrate(%d, %d, %d) = %d, expected %d", tt.width, tt.height, tt.fps, got, tt.expected)
			}
		})
	}
}

func TestNegotiateCodec_PrefersVP9(t *testing.T) {
	factory := &mocks.VideoEncoderFactory{}

	cfg, err := negotiateCodec(factory, 1280, 720, 15)
	if err != nil {
		t.Fatalf("negotiateCodec failed: %v", err)
	}
	if cfg.Codec != "vp09.00.10.08" || cfg.MuxerTag != "vp09" {
		t.Errorf("expected vp09.00.10.08/vp09, got %s/%s", cfg.Codec, cfg.MuxerTag)
	}
	if cfg.BitrateMode != "variable" {
		t.Errorf("expected variable bitrate mode, got %s", cfg.BitrateMode)
	}
	if len(factory.ProbeCalls) != 1 {
		t.Errorf("expected a single probe when the first candidate wins, got %d", len(factory.ProbeCalls))
	}
}

func TestNegotiateCodec_FallsBackToVP8(t *testing.T) {
	factory := &mocks.VideoEncoderFactory{
		IsConfigSupportedFunc: func(cfg ports.EncoderConfig) (ports.EncoderConfig, bool, error) {
			if cfg.Codec == "vp8" {
				return cfg, true, nil
			}
			return ports.EncoderConfig{}, false, nil
		},
	}

	cfg, err := negotiateCodec(factory, 1280, 720, 15)
	if err != nil {
		t.Fatalf("negotiateCodec failed: %v", err)
	}
	if cfg.Codec != "vp8" || cfg.MuxerTag != "vp08" {
		t.Errorf("expected vp8/vp08 fallback, got %s/%s", cfg.Codec, cfg.MuxerTag)
	}
	if len(factory.ProbeCalls) != 2 {
		t.Errorf("expected both candidates probed, got %d", len(factory.ProbeCalls))
	}
}

func TestNegotiateCodec_NoSupportedCodec(t *testing.T) {
	factory := &mocks.VideoEncoderFactory{
		IsConfigSupportedFunc: func(cfg ports.EncoderConfig) (ports.EncoderConfig, bool, error) {
			return ports.EncoderConfig{}, false, nil
		},
	}

	_, err := negotiateCodec(factory, 1280, 720, 15)
	if !errors.Is(err, ErrNoSupportedCodec) {
		t.Fatalf("expected ErrNoSupportedCodec, got %v", err)
	}
}

func TestNegotiateCodec_ProbeErrorIsFatal(t *testing.T) {
	boom := errors.New("probe exploded")
	factory := &mocks.VideoEncoderFactory{
		IsConfigSupportedFunc: func(cfg ports.EncoderConfig) (ports.EncoderConfig, bool, error) {
			return ports.EncoderConfig{}, false, boom
		},
	}

	_, err := negotiateCodec(factory, 1280, 720, 15)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped probe error, got %v", err)
	}
	if len(factory.ProbeCalls) != 1 {
		t.Errorf("expected no further candidates after a probe error, got %d probes", len(factory.ProbeCalls))
	}
}

func TestNegotiateCodec_AdoptsProbeRefinements(t *testing.T) {
	factory := &mocks.VideoEncoderFactory{
		IsConfigSupportedFunc: func(cfg ports.EncoderConfig) (ports.EncoderConfig, bool, error) {
			cfg.Width = 1278 // refined to an even constraint
			return cfg, true, nil
		},
	}

	cfg, err := negotiateCodec(factory, 1279, 720, 15)
	if err != nil {
		t.Fatalf("negotiateCodec failed: %v", err)
	}
	if cfg.Width != 1278 {
		t.Errorf("expected refined width 1278, got %d", cfg.Width)
	}
}
