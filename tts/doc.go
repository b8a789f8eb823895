// Package tts dispatches synthesis requests to third-party text-to-speech
// backends and returns MP3-compatible audio through one contract.
//
// # Architecture
//
// The package provides:
//   - Dispatcher, which resolves a voice through the catalog and runs the
//     adapter registered for its provider
//   - Definition, a data-driven description of one provider protocol as an
//     ordered list of HTTP legs
//   - SynthesisError and the Err* kinds every failure maps to
//   - AudioResult, either a live stream or converted bytes
//
// Providers follow one of four shapes (see Pattern). Providers whose native
// output is WAV additionally pass through a Converter.
//
// # Usage
//
//	voices, _ := catalog.Default()
//	d := tts.NewDispatcher(voices, tts.WithLegTimeout(20*time.Second))
//	audio, err := d.ProcessVoice(ctx, "ryan", "hello world")
//	if err != nil {
//	    if errors.Is(err, tts.ErrUnsupportedVoice) {
//	        // caller error
//	    }
//	    return err
//	}
//	defer audio.Close()
//	io.Copy(out, audio.Reader())
package tts
