package vpxencoder

import (
	"encoding/binary"
	"fmt"
	"io"
)

// IVF is the simple container libvpx-family encoders emit: a 32-byte file
// header followed by frames, each prefixed with a 12-byte header carrying the
// payload size and presentation index.
const (
	ivfFileHeaderSize  = 32
	ivfFrameHeaderSize = 12
)

// readIVFFileHeader consumes and validates the stream's file header.
func readIVFFileHeader(r io.Reader) error {
	var hdr [ivfFileHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			// Nothing was ever emitted (e.g. ffmpeg died before the first
			// frame); the caller decides whether that is a fault.
			return io.EOF
		}
		return fmt.Errorf("read ivf header: %w", err)
	}
	if string(hdr[0:4]) != "DKIF" {
		return fmt.Errorf("not an ivf stream (signature %q)", hdr[0:4])
	}
	if size := binary.LittleEndian.Uint16(hdr[6:8]); size != ivfFileHeaderSize {
		return fmt.Errorf("unexpected ivf header size %d", size)
	}
	return nil
}

// readIVFFrame reads the next frame payload. io.EOF at a frame boundary
// signals a clean end of stream.
func readIVFFrame(r io.Reader) ([]byte, error) {
	var hdr [ivfFrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read ivf frame header: %w", err)
	}

	size := binary.LittleEndian.Uint32(hdr[0:4])
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read ivf frame payload (%d bytes): %w", size, err)
	}
	return data, nil
}

// vp8Keyframe reports whether a VP8 frame payload is a keyframe: bit 0 of the
// frame tag is the inverted frame type (0 = key frame).
func vp8Keyframe(data []byte) bool {
	return len(data) > 0 && data[0]&0x01 == 0
}

// vp9Keyframe reports whether a VP9 frame payload is a keyframe by walking
// the start of the uncompressed header: frame marker, profile bits, the
// show_existing_frame flag, then the frame type bit (0 = key frame).
func vp9Keyframe(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	b := data[0]
	if b>>6 != 0x2 {
		return false
	}

	profile := (b>>5)&1 | ((b>>4)&1)<<1
	showExistingBit := uint(3)
	if profile == 3 {
		// Profile 3 carries a reserved bit before show_existing_frame.
		showExistingBit = 2
	}
	if (b>>showExistingBit)&1 == 1 {
		return false
	}
	return (b>>(showExistingBit-1))&1 == 0
}
