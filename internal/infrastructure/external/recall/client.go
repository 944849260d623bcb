// Package recall implements the HTTP client for the meeting-bot recording
// provider.
package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/internal/core/session"
	"github.com/archipelago-team/meeting-scribe/pkg/config"
)

// Client talks to the recording provider's bot API
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a provider client from config
func NewClient(cfg *config.ProviderConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type startRecordingRequest struct {
	BotName               string                 `json:"bot_name"`
	MeetingURL            string                 `json:"meeting_url"`
	TranscriptionOptions  map[string]string      `json:"transcription_options"`
	RealTimeTranscription map[string]interface{} `json:"real_time_transcription"`
	RecordingMode         string                 `json:"recording_mode"`
	RealTimeMedia         map[string]string      `json:"real_time_media"`
	Zoom                  map[string]bool        `json:"zoom"`
}

type startRecordingResponse struct {
	ID string `json:"id"`
}

type recordingStateResponse struct {
	StatusChanges []session.StatusChange `json:"status_changes"`
}

// StartRecording asks the provider to join the meeting and start streaming
// to the given webhooks. It returns the provider-assigned bot id.
func (c *Client) StartRecording(ctx context.Context, botName, meetingURL string, hooks session.Webhooks) (string, error) {
	body := startRecordingRequest{
		BotName:    botName,
		MeetingURL: meetingURL,
		TranscriptionOptions: map[string]string{
			"provider": "meeting_captions",
		},
		RealTimeTranscription: map[string]interface{}{
			"destination_url": hooks.TranscriptURL,
			"partial_results": true,
		},
		RecordingMode: "audio_only",
		RealTimeMedia: map[string]string{
			"websocket_audio_destination_url":            hooks.AudioWSURL,
			"websocket_speaker_timeline_destination_url": hooks.SpeakerWSURL,
		},
		Zoom: map[string]bool{
			"request_recording_permission_on_host_join": true,
			"require_recording_permission":              true,
		},
	}

	var resp startRecordingResponse
	if err := c.post(ctx, "/api/v1/bot", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("provider returned no bot id")
	}
	return resp.ID, nil
}

// StopRecording asks the provider bot to leave the call
func (c *Client) StopRecording(ctx context.Context, sessionID string) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/bot/%s/leave_call", sessionID), map[string]string{}, nil)
}

// RecordingState returns the latest status transition for the bot
func (c *Client) RecordingState(ctx context.Context, sessionID string) (session.StatusChange, error) {
	var resp recordingStateResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v1/bot/%s", sessionID), &resp); err != nil {
		return session.StatusChange{}, err
	}
	if len(resp.StatusChanges) == 0 {
		return session.StatusChange{}, fmt.Errorf("provider returned no status changes")
	}
	return resp.StatusChanges[len(resp.StatusChanges)-1], nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider returned status %d for %s", resp.StatusCode, req.URL.Path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
