// Package session owns the lifecycle of live recording sessions and the
// registry that keys them by the provider-assigned bot identifier.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/internal/core/audio"
	"github.com/archipelago-team/meeting-scribe/internal/core/transcript"
	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
	"github.com/archipelago-team/meeting-scribe/pkg/ai"
)

// State is the lifecycle state of a session
type State int32

const (
	StateRecording State = iota
	StateEnding
	StateTerminated
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateEnding:
		return "ending"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// StatusChange is the last provider-reported status transition
type StatusChange struct {
	Code    string `json:"code"`
	SubCode string `json:"sub_code"`
	Message string `json:"message"`
}

// Webhooks are the callback endpoints handed to the provider on join
type Webhooks struct {
	TranscriptURL string
	AudioWSURL    string
	SpeakerWSURL  string
}

// Provider is the recording provider consumed by the session engine
type Provider interface {
	StartRecording(ctx context.Context, botName, meetingURL string, hooks Webhooks) (string, error)
	StopRecording(ctx context.Context, sessionID string) error
	RecordingState(ctx context.Context, sessionID string) (StatusChange, error)
}

// Store is the external summary store reached over HTTP
type Store interface {
	Init(ctx context.Context, sessionID string, platform entities.Platform, detailLevel string) error
	Get(ctx context.Context, sessionID string) (*entities.SummaryRecord, error)
	UpdateText(ctx context.Context, sessionID, text string, platform entities.Platform, detailLevel string) error
	UpdateRoleText(ctx context.Context, sessionID, text, role string) error
	Finish(ctx context.Context, sessionID string) error
	ListActive(ctx context.Context) ([]entities.SummaryRecord, error)
}

// Summarizer produces summarized or styled text. An empty result with a nil
// error means the provider declined the request.
type Summarizer interface {
	Complete(ctx context.Context, input, systemPrompt string, temperature float64) (string, error)
}

// AuditLogger records summarization round trips. Implementations are best
// effort and log their own failures.
type AuditLogger interface {
	Record(ctx context.Context, sessionID, prompt, response string, metadata map[string]interface{})
}

// Observer is notified of session lifecycle transitions. The registry
// implements it so registration bookkeeping does not live in closures.
type Observer interface {
	OnSessionEnded(s *Session)
}

// StyleCache drops cached styled summary variants once a new rolling
// summary makes them stale.
type StyleCache interface {
	Invalidate(ctx context.Context, sessionID string, roles []string) error
}

// Terminal provider status codes after which no recording activity is
// expected.
var terminalCodes = map[string]struct{}{
	"call_ended":                  {},
	"fatal":                       {},
	"recording_permission_denied": {},
	"recording_done":              {},
	"done":                        {},
}

// Session is one active or restorable meeting recording
type Session struct {
	ID          string
	Platform    entities.Platform
	DetailLevel string
	MeetingURL  string

	state atomic.Int32

	// trMu serializes all transcript accumulator access: webhook delivery,
	// event-driven extraction results, and scheduled summary cycles.
	trMu       sync.Mutex
	transcript *transcript.Accumulator
	pipeline   *audio.Pipeline

	provider   Provider
	store      Store
	llm        Summarizer
	audit      AuditLogger
	styleCache StyleCache
	observer   Observer
	logger     *zap.Logger

	teardown sync.Once
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Pipeline returns the session's real-time audio pipeline
func (s *Session) Pipeline() *audio.Pipeline {
	return s.pipeline
}

// AddFragment inserts a transcript fragment delivered by the provider
// webhook or produced by the pipeline
func (s *Session) AddFragment(f entities.TranscriptFragment) {
	s.trMu.Lock()
	s.transcript.Add(f)
	s.trMu.Unlock()
}

// RollingSummary returns the current rolling summary text, empty if none
func (s *Session) RollingSummary() string {
	s.trMu.Lock()
	defer s.trMu.Unlock()
	return s.transcript.Summary()
}

// HandleAudio appends raw audio bytes from the audio stream
func (s *Session) HandleAudio(b []byte) {
	s.pipeline.AppendAudio(b)
}

// HandleSpeakerEvent feeds a speaker-change event into the pipeline and
// collects the fragment an event-driven extraction may have produced
func (s *Session) HandleSpeakerEvent(ctx context.Context, speaker string, unmuteTS float64) {
	if frag, ok := s.pipeline.OnSpeakerEvent(ctx, speaker, unmuteTS); ok {
		s.AddFragment(frag)
	}
}

// ExtractPending runs a scheduled extraction and collects the resulting
// fragment, if any
func (s *Session) ExtractPending(ctx context.Context) {
	if frag, ok := s.pipeline.Extract(ctx); ok {
		s.AddFragment(frag)
	}
}

// Leave asks the provider to stop recording and tears the session down.
// Teardown does not depend on the provider call succeeding: the meeting may
// already be ending on the provider side.
func (s *Session) Leave(ctx context.Context) {
	s.setState(StateEnding)
	if err := s.provider.StopRecording(ctx, s.ID); err != nil {
		s.logger.Warn("stop recording call failed, proceeding with teardown",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
	}
	s.Terminate(ctx)
}

// PollState queries the provider for the latest status transition. It
// returns a human-readable terminal reason and true if the recording has
// reached a terminal state, or "" and false while still recording.
func (s *Session) PollState(ctx context.Context) (string, bool) {
	status, err := s.provider.RecordingState(ctx, s.ID)
	if err != nil {
		// Transient provider failure reads as "still recording"; the next
		// liveness tick retries.
		s.logger.Warn("recording state poll failed",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		return "", false
	}
	if _, terminal := terminalCodes[status.Code]; !terminal {
		return "", false
	}
	return status.SubCode + ": " + status.Message, true
}

// RunSummaryCycle renders the accumulated transcript and folds it into the
// rolling summary via the external summarizer. Prompts shorter than
// minPromptLen are skipped: too little new material to justify a model call.
// On any failure the fragments are retained for the next cycle.
func (s *Session) RunSummaryCycle(ctx context.Context, minPromptLen int) {
	s.trMu.Lock()
	defer s.trMu.Unlock()

	prompt, ok := s.transcript.Render(true)
	if !ok {
		return
	}
	if len(prompt) < minPromptLen {
		s.logger.Debug("prompt below minimum length, skipping summary",
			zap.String("session_id", s.ID),
			zap.Int("prompt_len", len(prompt)),
			zap.Int("min_prompt_len", minPromptLen),
		)
		return
	}

	summary, err := s.llm.Complete(ctx, prompt, ai.SummarizeSystemPrompt(s.DetailLevel), 0)
	if err != nil {
		s.logger.Warn("summarization call failed, retaining fragments",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		return
	}
	if summary == "" {
		s.logger.Info("summarizer declined, retaining fragments",
			zap.String("session_id", s.ID),
		)
		return
	}

	cleaned, err := s.llm.Complete(ctx, summary, ai.CleanSystemPrompt, 0)
	if err != nil || cleaned == "" {
		s.logger.Warn("summary cleanup pass failed, retaining fragments",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		return
	}

	s.transcript.RollUp(cleaned)

	if s.styleCache != nil {
		if err := s.styleCache.Invalidate(ctx, s.ID, entities.StyledRoles()); err != nil {
			s.logger.Warn("failed to invalidate styled summary cache",
				zap.String("session_id", s.ID),
				zap.Error(err),
			)
		}
	}

	if err := s.store.UpdateText(ctx, s.ID, cleaned, s.Platform, s.DetailLevel); err != nil {
		// The in-memory rolling summary is already updated; persistence
		// catches up on the next successful cycle.
		s.logger.Warn("summary store update failed",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
	}

	if s.audit != nil {
		s.audit.Record(ctx, s.ID, prompt, cleaned, map[string]interface{}{
			"platform":     string(s.Platform),
			"detail_level": s.DetailLevel,
		})
	}

	s.logger.Info("summary cycle completed",
		zap.String("session_id", s.ID),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("summary_len", len(cleaned)),
	)
}

// Terminate runs the teardown sequence exactly once: mark the external
// record finished (best effort), then let the registry remove the session
// and cancel its jobs.
func (s *Session) Terminate(ctx context.Context) {
	s.teardown.Do(func() {
		// Readers observe Ending for the whole teardown window, whichever
		// path got here.
		s.setState(StateEnding)
		if err := s.store.Finish(ctx, s.ID); err != nil {
			s.logger.Warn("failed to mark summary record finished",
				zap.String("session_id", s.ID),
				zap.Error(err),
			)
		}
		s.setState(StateTerminated)
		s.observer.OnSessionEnded(s)
		s.logger.Info("session terminated", zap.String("session_id", s.ID))
	})
}
