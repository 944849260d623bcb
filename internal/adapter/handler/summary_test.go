package handler

import (
	"context"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

type styledSummarizer struct {
	reply   string
	prompts []string
}

func (s *styledSummarizer) Complete(ctx context.Context, input, systemPrompt string, temperature float64) (string, error) {
	s.prompts = append(s.prompts, systemPrompt)
	return s.reply, nil
}

func TestSummaryFromStoreRecord(t *testing.T) {
	store := &stubStore{record: &entities.SummaryRecord{SessionID: "s1", Text: "the meeting opened"}}
	registry := newHandlerRegistry(&stubProvider{}, store)
	h := NewSummary(registry, store, &styledSummarizer{}, nil, zap.NewNop())

	c, rec := newContext(t, http.MethodGet, "/v1/summaries/s1", "")
	c.SetParamNames("id")
	c.SetParamValues("s1")
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := dataField(t, rec)
	if data["text"] != "the meeting opened" {
		t.Errorf("text = %v", data["text"])
	}
	if _, ok := data["role"]; ok {
		t.Error("role should be omitted for a plain summary")
	}
}

func TestSummaryNotFound(t *testing.T) {
	registry := newHandlerRegistry(&stubProvider{}, &stubStore{})
	h := NewSummary(registry, &stubStore{}, &styledSummarizer{}, nil, zap.NewNop())

	c, rec := newContext(t, http.MethodGet, "/v1/summaries/ghost", "")
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSummaryStyledRole(t *testing.T) {
	store := &stubStore{record: &entities.SummaryRecord{SessionID: "s1", Text: "the meeting opened"}}
	registry := newHandlerRegistry(&stubProvider{}, store)
	llm := &styledSummarizer{reply: "arr, the meetin' opened"}
	h := NewSummary(registry, store, llm, nil, zap.NewNop())

	c, rec := newContext(t, http.MethodGet, "/v1/summaries/s1?role=pirate", "")
	c.SetParamNames("id")
	c.SetParamValues("s1")
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data := dataField(t, rec)
	if data["text"] != "arr, the meetin' opened" {
		t.Errorf("text = %v", data["text"])
	}
	if data["role"] != "pirate" {
		t.Errorf("role = %v", data["role"])
	}
	if store.roleText != "arr, the meetin' opened" || store.role != "pirate" {
		t.Errorf("persisted (%q, %q)", store.roleText, store.role)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("model calls = %d, want 1", len(llm.prompts))
	}
}

func TestSummaryStyleDeclinedFallsBack(t *testing.T) {
	store := &stubStore{record: &entities.SummaryRecord{SessionID: "s1", Text: "the meeting opened"}}
	registry := newHandlerRegistry(&stubProvider{}, store)
	h := NewSummary(registry, store, &styledSummarizer{reply: ""}, nil, zap.NewNop())

	c, rec := newContext(t, http.MethodGet, "/v1/summaries/s1?role=business", "")
	c.SetParamNames("id")
	c.SetParamValues("s1")
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := dataField(t, rec)
	if data["text"] != "the meeting opened" {
		t.Errorf("text = %v", data["text"])
	}
	if store.roleText != "" {
		t.Errorf("declined style pass should not persist, got %q", store.roleText)
	}
}

func TestSummaryRejectsUnknownRole(t *testing.T) {
	registry := newHandlerRegistry(&stubProvider{}, &stubStore{})
	h := NewSummary(registry, &stubStore{}, &styledSummarizer{}, nil, zap.NewNop())

	c, rec := newContext(t, http.MethodGet, "/v1/summaries/s1?role=haiku", "")
	c.SetParamNames("id")
	c.SetParamValues("s1")
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
