// Package audio implements the per-session real-time audio pipeline: raw
// PCM ingestion, speaker-event windowing, and fragment extraction.
package audio

import "context"

// Codec converts a raw PCM byte buffer into a container format the
// speech-to-text provider accepts. Implementations are pure functions over
// the input.
type Codec interface {
	Encode(pcm []byte) ([]byte, error)
	ContentType() string
}

// Transcriber converts compressed audio into recognized text. An empty
// string with a nil error means no speech was detected.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Archiver persists consumed audio slices for offline inspection. Calls are
// best effort; implementations log their own failures.
type Archiver interface {
	ArchiveSegment(ctx context.Context, sessionID string, seq int64, data []byte)
}
