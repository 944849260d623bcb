package ai

import (
	"bytes"
	"context"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"
)

// AssemblyAITranscriber transcribes audio slices through the official
// AssemblyAI SDK. It satisfies the same interface as SpeechClient and is
// selected via SPEECH_PROVIDER=assemblyai.
type AssemblyAITranscriber struct {
	client *aai.Client
	logger *zap.Logger
}

// NewAssemblyAITranscriber creates an SDK-backed transcriber
func NewAssemblyAITranscriber(apiKey string, logger *zap.Logger) *AssemblyAITranscriber {
	return &AssemblyAITranscriber{
		client: aai.NewClient(apiKey),
		logger: logger,
	}
}

// Transcribe uploads the audio and waits for the transcript. An empty
// result with nil error means no speech was detected.
func (t *AssemblyAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	transcript, err := t.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(audio), nil)
	if err != nil {
		return "", err
	}
	if transcript.Status == aai.TranscriptStatusError {
		t.logger.Warn("assemblyai transcript errored",
			zap.Stringp("error", transcript.Error),
		)
		return "", nil
	}
	if transcript.Text == nil {
		return "", nil
	}
	return *transcript.Text, nil
}
