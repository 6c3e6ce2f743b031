package mocks

import "github.com/clemux/pdx-tools/pkg/ports"

// Muxer is a mock implementation of ports.Muxer. Finalize concatenates the
// chunk payloads unless FinalizeFunc overrides it, mirroring the real muxer's
// empty-buffer-for-zero-chunks behavior.
type Muxer struct {
	FinalizeFunc func() ([]byte, error)

	// Recorded calls for verification
	Chunks    []ports.EncodedChunk
	Finalized bool
}

func (m *Muxer) AddChunk(chunk ports.EncodedChunk) {
	m.Chunks = append(m.Chunks, chunk)
}

func (m *Muxer) Finalize() ([]byte, error) {
	m.Finalized = true
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc()
	}
	var out []byte
	for _, c := range m.Chunks {
		out = append(out, c.Data...)
	}
	return out, nil
}

var _ ports.Muxer = (*Muxer)(nil)
