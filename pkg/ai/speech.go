package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/pkg/config"
)

// SpeechClient posts compressed audio to an HTTP speech-to-text endpoint
type SpeechClient struct {
	url         string
	apiKey      string
	contentType string
	client      *http.Client
	logger      *zap.Logger
}

// NewSpeechClient creates a speech-to-text client from config. contentType
// must match the codec output fed to Transcribe.
func NewSpeechClient(cfg *config.SpeechConfig, contentType string, logger *zap.Logger) *SpeechClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SpeechClient{
		url:         cfg.URL,
		apiKey:      cfg.APIKey,
		contentType: contentType,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type speechResponse struct {
	Result string `json:"result"`
}

// Transcribe posts the audio bytes and returns the recognized text. An
// empty result with nil error means no speech was detected.
func (c *SpeechClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", c.contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech api returned status %d", resp.StatusCode)
	}

	var sr speechResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", err
	}
	return sr.Result, nil
}
