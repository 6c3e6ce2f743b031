package vpxencoder

import (
	"errors"
	"testing"

	"github.com/clemux/pdx-tools/pkg/ports"
)

func TestEncoderName(t *testing.T) {
	tests := []struct {
		codec    string
		expected string
	}{
		{"vp09.00.10.08", "libvpx-vp9"},
		{"vp9", "libvpx-vp9"},
		{"vp8", "libvpx"},
		{"av01.0.04M.08", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := encoderName(tt.codec); got != tt.expected {
			t.Errorf("encoderName(%q) = %q, expected %q", tt.codec, got, tt.expected)
		}
	}
}

func TestIsConfigSupported_UnknownCodec(t *testing.T) {
	f := NewFactory()

	cfg := ports.EncoderConfig{Codec: "av01.0.04M.08", Width: 640, Height: 360, Framerate: 30}
	_, supported, err := f.IsConfigSupported(cfg)
	if err != nil {
		t.Fatalf("expected no error for an unknown codec, got %v", err)
	}
	if supported {
		t.Error("expected unsupported for an unknown codec")
	}
}

func TestIsConfigSupported_InvalidShape(t *testing.T) {
	f := NewFactory()

	for _, cfg := range []ports.EncoderConfig{
		{Codec: "vp9", Width: 0, Height: 360, Framerate: 30},
		{Codec: "vp9", Width: 640, Height: -1, Framerate: 30},
		{Codec: "vp9", Width: 640, Height: 360, Framerate: 0},
	} {
		_, supported, err := f.IsConfigSupported(cfg)
		if err != nil {
			t.Fatalf("expected no error for %+v, got %v", cfg, err)
		}
		if supported {
			t.Errorf("expected unsupported for %+v", cfg)
		}
	}
}

func TestIsConfigSupported_MissingFFmpegIsUnsupportedNotFatal(t *testing.T) {
	f := &Factory{FFmpegPath: "/nonexistent/ffmpeg"}

	cfg := ports.EncoderConfig{Codec: "vp9", Width: 640, Height: 360, Framerate: 30}
	_, supported, err := f.IsConfigSupported(cfg)
	if err != nil {
		t.Fatalf("expected no error without ffmpeg, got %v", err)
	}
	if supported {
		t.Error("expected unsupported without ffmpeg")
	}
}

func TestNewEncoder_MissingFFmpeg(t *testing.T) {
	f := &Factory{FFmpegPath: "/nonexistent/ffmpeg"}

	cfg := ports.EncoderConfig{Codec: "vp9", Width: 640, Height: 360, Framerate: 30, Bitrate: 500_000}
	_, err := f.NewEncoder(cfg, func(ports.EncodedChunk) {}, func(error) {})
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Fatalf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestFindFFmpeg_CustomPathMissing(t *testing.T) {
	_, err := findFFmpeg("/nonexistent/ffmpeg")
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Fatalf("expected ErrFFmpegNotFound, got %v", err)
	}
}
