// Package tts defines the speech synthesis boundary.
package tts

import "context"

// Synthesizer converts a final reply into playable audio. The returned bytes
// are an opaque container chosen by the implementation (WAV for the shipped
// Cartesia client).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
