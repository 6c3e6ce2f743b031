package mp4mux

import (
	"bytes"
	"testing"

	"github.com/clemux/pdx-tools/pkg/ports"
)

func testConfig() ports.EncoderConfig {
	return ports.EncoderConfig{
		Codec:     "vp09.00.10.08",
		MuxerTag:  "vp09",
		Width:     640,
		Height:    360,
		Bitrate:   500_000,
		Framerate: 30,
	}
}

func TestMuxer_EmptyFinalize(t *testing.T) {
	m := New(testConfig())

	data, err := m.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty output for a chunkless muxer, got %d bytes", len(data))
	}
}

func TestMuxer_FinalizeBuildsContainer(t *testing.T) {
	m := New(testConfig())

	m.AddChunk(ports.EncodedChunk{Data: []byte{0x82, 0x49, 0x83, 0x42}, TimestampUs: 0, DurationUs: 33_333, Keyframe: true})
	m.AddChunk(ports.EncodedChunk{Data: []byte{0x86, 0x00}, TimestampUs: 33_333, DurationUs: 33_333})

	data, err := m.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty container")
	}

	// ftyp is the first box, carrying the muxer tag among its brands.
	if string(data[4:8]) != "ftyp" {
		t.Errorf("expected the container to open with ftyp, got %q", data[4:8])
	}
	if !bytes.Contains(data, []byte("vp09")) {
		t.Error("expected the vp09 brand in the container")
	}
	if !bytes.Contains(data, []byte("moov")) {
		t.Error("expected a moov box")
	}
	if !bytes.Contains(data, []byte("moof")) {
		t.Error("expected a movie fragment")
	}
	// Both sample payloads land in mdat.
	if !bytes.Contains(data, []byte{0x82, 0x49, 0x83, 0x42}) {
		t.Error("expected the first sample payload in the output")
	}
}

func TestMuxer_VP8Container(t *testing.T) {
	cfg := testConfig()
	cfg.Codec = "vp8"
	cfg.MuxerTag = "vp08"
	m := New(cfg)

	m.AddChunk(ports.EncodedChunk{Data: []byte{0x00, 0x01}, Keyframe: true})

	data, err := m.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if !bytes.Contains(data, []byte("vp08")) {
		t.Error("expected the vp08 sample entry in the container")
	}
}

func TestVppCFromCodec(t *testing.T) {
	box := vppCFromCodec("vp09.02.10.10")
	if box.Profile != 2 || box.Level != 10 || box.BitDepth != 10 {
		t.Errorf("expected profile 2, level 10, depth 10, got %d/%d/%d", box.Profile, box.Level, box.BitDepth)
	}

	// Codecs without the dotted form keep the defaults.
	box = vppCFromCodec("vp8")
	if box.Profile != 0 || box.Level != 10 || box.BitDepth != 8 {
		t.Errorf("expected default profile/level/depth, got %d/%d/%d", box.Profile, box.Level, box.BitDepth)
	}

	// Malformed segments fall back per field.
	box = vppCFromCodec("vp09.xx.20.08")
	if box.Profile != 0 || box.Level != 20 {
		t.Errorf("expected fallback profile with parsed level, got %d/%d", box.Profile, box.Level)
	}
}

func TestParseDigits(t *testing.T) {
	if got := parseDigits("08", 99); got != 8 {
		t.Errorf("expected 8, got %d", got)
	}
	if got := parseDigits("999", 7); got != 7 {
		t.Errorf("expected fallback for overflow, got %d", got)
	}
	if got := parseDigits("1a", 7); got != 7 {
		t.Errorf("expected fallback for non-digits, got %d", got)
	}
}
