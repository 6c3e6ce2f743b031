// Package mp4mux packages encoded VP9/VP8 chunks into a fragmented MP4
// container using mp4ff.
package mp4mux

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// The track timescale is one tick per microsecond, so chunk timestamps and
// durations map 1:1 onto sample timing.
const timescale = 1_000_000

// Muxer implements ports.Muxer. Chunks are accumulated in arrival order and
// the container is built once at Finalize.
type Muxer struct {
	cfg ports.EncoderConfig

	mu     sync.Mutex
	chunks []ports.EncodedChunk
}

// New creates a muxer for the negotiated configuration.
func New(cfg ports.EncoderConfig) *Muxer {
	return &Muxer{cfg: cfg}
}

// AddChunk appends one encoded sample. Safe for use from the encoder's
// delivery callback.
func (m *Muxer) AddChunk(chunk ports.EncodedChunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunk)
}

// Finalize builds the container. A muxer that received no chunks returns an
// empty buffer and no error.
func (m *Muxer) Finalize() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.chunks) == 0 {
		return nil, nil
	}

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "und")

	trak := init.Moov.Trak
	entry := mp4.CreateVisualSampleEntryBox(m.cfg.MuxerTag, uint16(m.cfg.Width), uint16(m.cfg.Height), vppCFromCodec(m.cfg.Codec))
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(m.cfg.Width << 16)
	trak.Tkhd.Height = mp4.Fixed32(m.cfg.Height << 16)

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	for _, chunk := range m.chunks {
		flags := mp4.NonSyncSampleFlags
		if chunk.Keyframe {
			flags = mp4.SyncSampleFlags
		}

		dur := uint32(chunk.DurationUs)
		if dur == 0 {
			dur = uint32(timescale) / uint32(m.cfg.Framerate)
		}

		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(chunk.Data)),
				Dur:   dur,
			},
			DecodeTime: uint64(chunk.TimestampUs),
			Data:       chunk.Data,
		})
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41", m.cfg.MuxerTag})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}

	return buf.Bytes(), nil
}

// vppCFromCodec builds the vpcC configuration box for a codec identifier
// such as "vp09.00.10.08" (profile.level.bitdepth) or "vp8".
func vppCFromCodec(codec string) *mp4.VppCBox {
	profile, level, bitDepth := byte(0), byte(10), byte(8)
	if parts := strings.Split(codec, "."); len(parts) == 4 {
		profile = parseDigits(parts[1], profile)
		level = parseDigits(parts[2], level)
		bitDepth = parseDigits(parts[3], bitDepth)
	}

	return &mp4.VppCBox{
		Version:                 1,
		Profile:                 profile,
		Level:                   level,
		BitDepth:                bitDepth,
		ChromaSubsampling:       1, // 4:2:0 colocated
		ColourPrimaries:         1, // BT.709
		TransferCharacteristics: 1,
		MatrixCoefficients:      1,
	}
}

func parseDigits(s string, fallback byte) byte {
	var v int
	for _, c := range s {
		if c < '0' || c > '9' {
			return fallback
		}
		v = v*10 + int(c-'0')
	}
	if v > 255 {
		return fallback
	}
	return byte(v)
}

var _ ports.Muxer = (*Muxer)(nil)
