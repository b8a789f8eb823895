package tts

import (
	"bytes"
	"io"
)

// Container formats.
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"

	// MIMETypeMP3 is the content type of every successful result.
	MIMETypeMP3 = "audio/mpeg"
)

// AudioResult is the outcome of a successful synthesis. Exactly one of
// Stream and Data is set. Format is always FormatMP3 because WAV output is
// converted before it is returned.
type AudioResult struct {
	// Stream is the live provider response body. The caller must close it.
	Stream io.ReadCloser

	// Data holds fully buffered audio produced by the converter.
	Data []byte

	// Format is the container format of the audio.
	Format string
}

// Reader returns the audio as a stream regardless of its shape. The caller
// must close it.
func (r *AudioResult) Reader() io.ReadCloser {
	if r.Stream != nil {
		return r.Stream
	}
	return io.NopCloser(bytes.NewReader(r.Data))
}

// Buffered reports whether the audio is held in memory.
func (r *AudioResult) Buffered() bool {
	return r.Stream == nil
}

// Close releases the underlying stream, if any.
func (r *AudioResult) Close() error {
	if r.Stream != nil {
		return r.Stream.Close()
	}
	return nil
}
