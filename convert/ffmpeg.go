// Package convert re-encodes provider audio to MP3 with an ffmpeg
// subprocess.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/go-audio/wav"

	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
)

const (
	// DefaultBinary is looked up on PATH.
	DefaultBinary = "ffmpeg"

	// DefaultBitrate is the MP3 bitrate passed to libmp3lame.
	DefaultBitrate = "128k"

	formatWAV = "wav"
)

var (
	// ErrUnsupportedFormat is returned for source formats other than WAV.
	ErrUnsupportedFormat = errors.New("unsupported audio format for conversion")

	// ErrInvalidWAV is returned when the input has no usable WAV header.
	ErrInvalidWAV = errors.New("input is not a valid wav stream")

	// ErrEmptyOutput is returned when ffmpeg exits cleanly but writes nothing.
	ErrEmptyOutput = errors.New("ffmpeg produced no output")
)

// Runner executes a command. It exists so tests can stand in for ffmpeg.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// FFmpeg converts WAV input to MP3 by piping it through ffmpeg.
type FFmpeg struct {
	binary  string
	bitrate string
	runner  Runner
}

// Option configures FFmpeg.
type Option func(*FFmpeg)

// WithBinary sets the ffmpeg executable.
func WithBinary(path string) Option {
	return func(f *FFmpeg) {
		if path != "" {
			f.binary = path
		}
	}
}

// WithBitrate sets the output bitrate, e.g. "96k".
func WithBitrate(bitrate string) Option {
	return func(f *FFmpeg) {
		f.bitrate = bitrate
	}
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(f *FFmpeg) {
		f.runner = r
	}
}

// NewFFmpeg creates a converter.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		binary:  DefaultBinary,
		bitrate: DefaultBitrate,
		runner:  execRunner{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ConvertToMP3 reads r to completion, checks the WAV header and returns the
// encoded MP3 bytes.
func (f *FFmpeg) ConvertToMP3(ctx context.Context, r io.Reader, format string) ([]byte, error) {
	if format != formatWAV {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s input: %w", format, err)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if dec.NumChans < 1 || dec.BitDepth < 8 {
		return nil, fmt.Errorf("%w: %d channels at %d bits", ErrInvalidWAV, dec.NumChans, dec.BitDepth)
	}
	logger.DebugContext(ctx, "converting audio",
		"format", format,
		"sample_rate", dec.SampleRate,
		"channels", dec.NumChans,
		"bit_depth", dec.BitDepth,
		"bytes", len(data),
	)

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", formatWAV,
		"-i", "pipe:0",
		"-c:a", "libmp3lame",
		"-b:a", f.bitrate,
		"-f", "mp3",
		"pipe:1",
	}
	var stdout bytes.Buffer
	var stderr strings.Builder
	if err := f.runner.Run(ctx, f.binary, args, bytes.NewReader(data), &stdout, &stderr); err != nil {
		return nil, fmt.Errorf("ffmpeg conversion (%s → mp3) failed: %w\n%s", format, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, ErrEmptyOutput
	}
	return stdout.Bytes(), nil
}
