// Package vpxencoder provides VP9/VP8 video encoding through an ffmpeg pipe:
// raw RGBA frames in on stdin, an IVF stream out on stdout, parsed
// frame-by-frame into encoded chunks.
package vpxencoder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// Factory implements ports.VideoEncoderFactory on top of the ffmpeg binary.
type Factory struct {
	// FFmpegPath overrides ffmpeg discovery. Empty means FFMPEG_PATH, then
	// PATH, then common install locations.
	FFmpegPath string

	// GopSize pins the encoder's keyframe interval in frames. Per-frame
	// keyframe control is not possible over a pipe, so the interval is fixed
	// at configure time; the actual keyframe bit is parsed back out of the
	// bitstream for every chunk. Zero means 150.
	GopSize int

	mu       sync.Mutex
	encoders string // cached `ffmpeg -encoders` output
}

// NewFactory creates a Factory with default ffmpeg discovery.
func NewFactory() *Factory {
	return &Factory{}
}

// IsAvailable reports whether an ffmpeg binary can be located at all.
func IsAvailable() bool {
	_, err := findFFmpeg("")
	return err == nil
}

// findFFmpeg resolves the ffmpeg binary: custom path, FFMPEG_PATH, PATH,
// then common install locations.
func findFFmpeg(custom string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s", ErrFFmpegNotFound, envPath)
	}

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path, nil
	}

	for _, p := range []string{
		"/usr/bin/ffmpeg",
		"/usr/local/bin/ffmpeg",
		"/opt/homebrew/bin/ffmpeg",
		"/snap/bin/ffmpeg",
	} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// encoderName maps a codec identifier to the libvpx encoder that produces it.
func encoderName(codec string) string {
	switch {
	case strings.HasPrefix(codec, "vp09") || strings.HasPrefix(codec, "vp9"):
		return "libvpx-vp9"
	case strings.HasPrefix(codec, "vp8"):
		return "libvpx"
	default:
		return ""
	}
}

// IsConfigSupported probes whether cfg can be encoded. An absent ffmpeg or an
// unknown codec reports unsupported rather than an error. A supported config
// is refined to even dimensions, the constraint 4:2:0 subsampling imposes.
func (f *Factory) IsConfigSupported(cfg ports.EncoderConfig) (ports.EncoderConfig, bool, error) {
	name := encoderName(cfg.Codec)
	if name == "" || cfg.Width <= 0 || cfg.Height <= 0 || cfg.Framerate <= 0 {
		return cfg, false, nil
	}

	path, err := findFFmpeg(f.FFmpegPath)
	if err != nil {
		return cfg, false, nil
	}

	encoders, err := f.listEncoders(path)
	if err != nil {
		return cfg, false, fmt.Errorf("list encoders: %w", err)
	}
	if !strings.Contains(encoders, name) {
		return cfg, false, nil
	}

	refined := cfg
	refined.Width &^= 1
	refined.Height &^= 1
	return refined, true, nil
}

func (f *Factory) listEncoders(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.encoders != "" {
		return f.encoders, nil
	}

	out, err := exec.Command(path, "-hide_banner", "-encoders").Output()
	if err != nil {
		return "", err
	}
	f.encoders = string(out)
	return f.encoders, nil
}

// NewEncoder starts an ffmpeg process for cfg. Chunks are delivered on
// onChunk in submission order, faults on onError.
func (f *Factory) NewEncoder(cfg ports.EncoderConfig, onChunk func(ports.EncodedChunk), onError func(error)) (ports.VideoEncoder, error) {
	path, err := findFFmpeg(f.FFmpegPath)
	if err != nil {
		return nil, err
	}

	gop := f.GopSize
	if gop <= 0 {
		gop = 150
	}

	// -lag-in-frames 0 with the realtime deadline makes libvpx emit one
	// packet per submitted frame, which is what the per-frame flush
	// discipline relies on.
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", fmt.Sprintf("%d", cfg.Framerate),
		"-i", "pipe:0",
		"-c:v", encoderName(cfg.Codec),
		"-b:v", fmt.Sprintf("%d", cfg.Bitrate),
		"-deadline", "realtime",
		"-cpu-used", "5",
		"-lag-in-frames", "0",
		"-g", fmt.Sprintf("%d", gop),
		"-pix_fmt", "yuv420p",
		"-f", "ivf",
		"pipe:1",
	}

	cmd := exec.Command(path, args...)

	e := &encoder{
		cfg:     cfg,
		cmd:     cmd,
		onChunk: onChunk,
		onError: onError,
		vp8:     encoderName(cfg.Codec) == "libvpx",
	}
	e.cond = sync.NewCond(&e.mu)
	cmd.Stderr = &e.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	e.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	go e.readOutput(stdout)

	return e, nil
}

// frameMeta records the timing of a submitted frame until its encoded packet
// comes back out of the pipe.
type frameMeta struct {
	timestampUs int64
	durationUs  int64
}

type encoder struct {
	cfg     ports.EncoderConfig
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	onChunk func(ports.EncodedChunk)
	onError func(error)
	vp8     bool

	mu         sync.Mutex
	cond       *sync.Cond
	pending    []frameMeta
	readerDone bool
	closed     bool
	rgba       *image.RGBA // reusable submission buffer
}

// Encode submits one frame. The raster is copied before the call returns, so
// the caller may reuse its backing buffer immediately. The keyframe tag is
// advisory: the GOP is pinned at configure time and the authoritative flag is
// read back from the bitstream.
func (e *encoder) Encode(frame ports.Frame, keyframe bool) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.rgba == nil {
		e.rgba = image.NewRGBA(image.Rect(0, 0, e.cfg.Width, e.cfg.Height))
	}
	rgba := e.rgba
	e.mu.Unlock()

	draw.Draw(rgba, rgba.Bounds(), frame.Image, frame.Image.Bounds().Min, draw.Src)

	if _, err := e.stdin.Write(rgba.Pix); err != nil {
		return fmt.Errorf("write frame to ffmpeg: %w (stderr: %s)", err, strings.TrimSpace(e.stderr.String()))
	}

	e.mu.Lock()
	e.pending = append(e.pending, frameMeta{timestampUs: frame.TimestampUs, durationUs: frame.DurationUs})
	e.mu.Unlock()
	return nil
}

// Flush blocks until every submitted frame has been emitted as a chunk.
func (e *encoder) Flush(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		e.cond.Broadcast()
	})
	defer stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.pending) > 0 && !e.readerDone && ctx.Err() == nil {
		e.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(e.pending) > 0 {
		return fmt.Errorf("%w (stderr: %s)", ErrOutputEnded, strings.TrimSpace(e.stderr.String()))
	}
	return nil
}

// Close releases the ffmpeg process. Safe to call after a failure.
func (e *encoder) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		e.cmd.Process.Kill()
		<-done
	}
	return nil
}

// readOutput parses the IVF stream, pairing each emitted packet with the
// timing of the oldest in-flight frame.
func (e *encoder) readOutput(stdout io.Reader) {
	defer func() {
		e.mu.Lock()
		e.readerDone = true
		e.cond.Broadcast()
		e.mu.Unlock()
	}()

	r := bufio.NewReader(stdout)
	if err := readIVFFileHeader(r); err != nil {
		if !errors.Is(err, io.EOF) {
			e.onError(err)
		}
		return
	}

	for {
		data, err := readIVFFrame(r)
		if err == io.EOF {
			return
		}
		if err != nil {
			e.onError(err)
			return
		}

		keyframe := vp8Keyframe(data)
		if !e.vp8 {
			keyframe = vp9Keyframe(data)
		}

		e.mu.Lock()
		var meta frameMeta
		if len(e.pending) > 0 {
			meta = e.pending[0]
			e.pending = e.pending[1:]
		}
		e.cond.Broadcast()
		e.mu.Unlock()

		e.onChunk(ports.EncodedChunk{
			Data:        data,
			TimestampUs: meta.timestampUs,
			DurationUs:  meta.durationUs,
			Keyframe:    keyframe,
		})
	}
}

var _ ports.VideoEncoder = (*encoder)(nil)
var _ ports.VideoEncoderFactory = (*Factory)(nil)
