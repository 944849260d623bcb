package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/internal/core/scheduler"
	"github.com/archipelago-team/meeting-scribe/internal/core/session"
	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
	"github.com/archipelago-team/meeting-scribe/pkg/validator"
)

type stubProvider struct {
	nextID   string
	startErr error
}

func (p *stubProvider) StartRecording(ctx context.Context, botName, meetingURL string, hooks session.Webhooks) (string, error) {
	return p.nextID, p.startErr
}

func (p *stubProvider) StopRecording(ctx context.Context, sessionID string) error { return nil }

func (p *stubProvider) RecordingState(ctx context.Context, sessionID string) (session.StatusChange, error) {
	return session.StatusChange{Code: "in_call_recording"}, nil
}

type stubStore struct {
	record   *entities.SummaryRecord
	getErr   error
	roleText string
	role     string
}

func (s *stubStore) Init(ctx context.Context, sessionID string, platform entities.Platform, detailLevel string) error {
	return nil
}

func (s *stubStore) Get(ctx context.Context, sessionID string) (*entities.SummaryRecord, error) {
	return s.record, s.getErr
}

func (s *stubStore) UpdateText(ctx context.Context, sessionID, text string, platform entities.Platform, detailLevel string) error {
	return nil
}

func (s *stubStore) UpdateRoleText(ctx context.Context, sessionID, text, role string) error {
	s.roleText = text
	s.role = role
	return nil
}

func (s *stubStore) Finish(ctx context.Context, sessionID string) error { return nil }

func (s *stubStore) ListActive(ctx context.Context) ([]entities.SummaryRecord, error) {
	return nil, nil
}

type stubSummarizer struct{}

func (stubSummarizer) Complete(ctx context.Context, input, systemPrompt string, temperature float64) (string, error) {
	return "", nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", nil
}

func newHandlerRegistry(provider session.Provider, store session.Store) *session.Registry {
	return session.NewRegistry(session.Config{
		BotName:            "scribe",
		LagWindowBytes:     19200,
		ExtractionInterval: 5 * time.Second,
		ExtractionPressure: 25 * time.Second,
		SummaryInterval:    time.Minute,
		LivenessInterval:   30 * time.Second,
		MinPromptLen:       10,
		NoiseToken:         "noise",
	}, session.Deps{
		Provider:    provider,
		Store:       store,
		Summarizer:  stubSummarizer{},
		Transcriber: stubTranscriber{},
		Scheduler:   scheduler.New(zap.NewNop()),
		Logger:      zap.NewNop(),
	})
}

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validator.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data
}

func webhookBody(botID string) string {
	return `{"event":"transcript.data","data":{"bot_id":"` + botID + `","transcript":{` +
		`"original_transcript_id":7,"speaker":"Alice","is_final":true,` +
		`"words":[{"text":"hello"},{"text":"there"}]}}}`
}

func TestTranscriptionRestoresSessionAndAccepts(t *testing.T) {
	store := &stubStore{record: &entities.SummaryRecord{
		SessionID: "bot-1",
		Active:    true,
		Platform:  entities.PlatformMeet,
	}}
	registry := newHandlerRegistry(&stubProvider{}, store)
	h := NewWebhook(registry, "", zap.NewNop())

	c, rec := newContext(t, http.MethodPost, "/v1/webhooks/transcription", webhookBody("bot-1"))
	if err := h.Transcription(c); err != nil {
		t.Fatalf("Transcription: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := dataField(t, rec)["status"]; got != "accepted" {
		t.Errorf("status field = %v", got)
	}
	if registry.Len() != 1 {
		t.Errorf("registry size = %d, want 1", registry.Len())
	}
}

func TestTranscriptionIgnoresInactiveSession(t *testing.T) {
	registry := newHandlerRegistry(&stubProvider{}, &stubStore{})
	h := NewWebhook(registry, "", zap.NewNop())

	c, rec := newContext(t, http.MethodPost, "/v1/webhooks/transcription", webhookBody("gone"))
	if err := h.Transcription(c); err != nil {
		t.Fatalf("Transcription: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := dataField(t, rec)["status"]; got != "ignored" {
		t.Errorf("status field = %v", got)
	}
	if registry.Len() != 0 {
		t.Errorf("registry size = %d, want 0", registry.Len())
	}
}

func TestTranscriptionMissingBotID(t *testing.T) {
	registry := newHandlerRegistry(&stubProvider{}, &stubStore{})
	h := NewWebhook(registry, "", zap.NewNop())

	c, rec := newContext(t, http.MethodPost, "/v1/webhooks/transcription", `{"event":"transcript.data","data":{}}`)
	if err := h.Transcription(c); err != nil {
		t.Fatalf("Transcription: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTranscriptionRejectsMissingToken(t *testing.T) {
	registry := newHandlerRegistry(&stubProvider{}, &stubStore{})
	h := NewWebhook(registry, "topsecret", zap.NewNop())

	c, rec := newContext(t, http.MethodPost, "/v1/webhooks/transcription", webhookBody("bot-1"))
	if err := h.Transcription(c); err != nil {
		t.Fatalf("Transcription: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestTranscriptionRejectsBadSignature(t *testing.T) {
	registry := newHandlerRegistry(&stubProvider{}, &stubStore{})
	h := NewWebhook(registry, "topsecret", zap.NewNop())

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{}).SignedString([]byte("wrong"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	c, rec := newContext(t, http.MethodPost, "/v1/webhooks/transcription", webhookBody("bot-1"))
	c.Request().Header.Set("Authorization", "Bearer "+token)
	if err := h.Transcription(c); err != nil {
		t.Fatalf("Transcription: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestTranscriptionAcceptsValidToken(t *testing.T) {
	store := &stubStore{record: &entities.SummaryRecord{SessionID: "bot-1", Active: true}}
	registry := newHandlerRegistry(&stubProvider{}, store)
	h := NewWebhook(registry, "topsecret", zap.NewNop())

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{}).SignedString([]byte("topsecret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	c, rec := newContext(t, http.MethodPost, "/v1/webhooks/transcription", webhookBody("bot-1"))
	c.Request().Header.Set("Authorization", "Bearer "+token)
	if err := h.Transcription(c); err != nil {
		t.Fatalf("Transcription: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
