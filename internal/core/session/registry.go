package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/errors"
	"github.com/archipelago-team/meeting-scribe/internal/core/audio"
	"github.com/archipelago-team/meeting-scribe/internal/core/scheduler"
	"github.com/archipelago-team/meeting-scribe/internal/core/transcript"
	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

// Config holds the engine tuning knobs shared by all sessions
type Config struct {
	BotName  string
	Webhooks Webhooks

	SampleRate     int
	LagWindowBytes int

	ExtractionInterval time.Duration
	ExtractionPressure time.Duration
	SummaryInterval    time.Duration
	LivenessInterval   time.Duration

	MinPromptLen int
	NoiseToken   string
}

// Deps bundles the external collaborators a session needs
type Deps struct {
	Provider    Provider
	Store       Store
	Summarizer  Summarizer
	Transcriber audio.Transcriber
	Archiver    audio.Archiver // optional
	Audit       AuditLogger    // optional
	StyleCache  StyleCache     // optional
	Scheduler   *scheduler.Scheduler
	Logger      *zap.Logger
}

// Registry is the set of active sessions keyed by the provider-assigned bot
// identifier. One mutex guards both the session map and the per-session job
// handles so a lookup can never observe a session without scheduled jobs.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	jobs     map[string][]*scheduler.Job

	cfg    Config
	deps   Deps
	logger *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(cfg Config, deps Deps) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		jobs:     make(map[string][]*scheduler.Job),
		cfg:      cfg,
		deps:     deps,
		logger:   deps.Logger,
	}
}

// Get looks up a live session by id
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) newSession(sessionID, meetingURL, detailLevel string) *Session {
	s := &Session{
		ID:          sessionID,
		Platform:    entities.PlatformFromURL(meetingURL),
		DetailLevel: entities.NormalizeDetailLevel(detailLevel),
		MeetingURL:  meetingURL,
		transcript:  transcript.NewAccumulator(r.cfg.NoiseToken),
		provider:    r.deps.Provider,
		store:       r.deps.Store,
		llm:         r.deps.Summarizer,
		audit:       r.deps.Audit,
		styleCache:  r.deps.StyleCache,
		observer:    r,
		logger:      r.logger,
	}
	codec := audio.NewWAVCodec(r.cfg.SampleRate)
	s.pipeline = audio.NewPipeline(sessionID, r.cfg.LagWindowBytes, codec, r.deps.Transcriber, r.logger)
	if r.deps.Archiver != nil {
		s.pipeline.WithArchiver(r.deps.Archiver)
	}
	return s
}

// Join starts a recording for the given meeting URL, registers the session,
// and schedules its jobs. A provider id that is already registered rejects
// the join with an "already active" error.
func (r *Registry) Join(ctx context.Context, meetingURL, detailLevel string) (*Session, error) {
	sessionID, err := r.deps.Provider.StartRecording(ctx, r.cfg.BotName, meetingURL, r.cfg.Webhooks)
	if err != nil {
		return nil, errors.ErrProviderFailed("start recording", err)
	}

	s := r.newSession(sessionID, meetingURL, detailLevel)

	if err := r.deps.Store.Init(ctx, sessionID, s.Platform, s.DetailLevel); err != nil {
		r.logger.Warn("summary store init failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	registered, fresh := r.register(s)
	if !fresh {
		return nil, errors.ErrSessionAlreadyActive(sessionID)
	}

	r.logger.Info("session joined",
		zap.String("session_id", sessionID),
		zap.String("platform", string(s.Platform)),
		zap.String("detail_level", s.DetailLevel),
	)
	return registered, nil
}

// Restore rebuilds a session from the external summary store, preloading the
// stored text as the rolling summary. It returns nil without error when the
// record is missing or no longer active: late webhook traffic for a finished
// meeting must not resurrect it.
func (r *Registry) Restore(ctx context.Context, sessionID string) (*Session, error) {
	if s, ok := r.Get(sessionID); ok {
		return s, nil
	}

	record, err := r.deps.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.Active {
		return nil, nil
	}

	s := r.newSession(sessionID, "", record.DetailLevel)
	// Stored platform strings come from an external service; only a value
	// that parses cleanly overrides the default.
	if p, err := entities.ParsePlatform(string(record.Platform)); err == nil {
		s.Platform = p
	}
	if record.Text != "" {
		s.transcript.RollUp(record.Text)
	}

	registered, fresh := r.register(s)
	if fresh {
		r.logger.Info("session restored",
			zap.String("session_id", sessionID),
			zap.Int("summary_len", len(record.Text)),
		)
	}
	// A concurrent restore may have won the race; either way the caller
	// gets the one registered session.
	return registered, nil
}

// register adds the session and schedules its jobs atomically under the
// registry mutex. It returns the registered session and whether it is the
// caller's: an id that is already present keeps its existing session.
func (r *Registry) register(s *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[s.ID]; ok {
		return existing, false
	}
	r.sessions[s.ID] = s
	r.jobs[s.ID] = r.scheduleJobs(s)
	return s, true
}

// scheduleJobs registers the three recurring jobs for a session. Callers
// hold the registry mutex; the job closures themselves run later on the
// scheduler goroutine and never touch it.
func (r *Registry) scheduleJobs(s *Session) []*scheduler.Job {
	extraction := r.deps.Scheduler.Every(r.cfg.ExtractionInterval, s.ID+":extract", func() {
		if s.Pipeline().AddPressure(r.cfg.ExtractionInterval) >= r.cfg.ExtractionPressure {
			s.ExtractPending(context.Background())
		}
	})

	summary := r.deps.Scheduler.Every(r.cfg.SummaryInterval, s.ID+":summary", func() {
		s.RunSummaryCycle(context.Background(), r.cfg.MinPromptLen)
	})

	liveness := r.deps.Scheduler.Every(r.cfg.LivenessInterval, s.ID+":liveness", func() {
		reason, terminal := s.PollState(context.Background())
		if terminal {
			r.logger.Info("recording reached terminal state",
				zap.String("session_id", s.ID),
				zap.String("reason", reason),
			)
			s.Terminate(context.Background())
		}
	})

	return []*scheduler.Job{extraction, summary, liveness}
}

// OnSessionEnded implements Observer: it removes the session from the map
// and then cancels its job handles, in that order.
func (r *Registry) OnSessionEnded(s *Session) {
	r.mu.Lock()
	delete(r.sessions, s.ID)
	handles := r.jobs[s.ID]
	delete(r.jobs, s.ID)
	r.mu.Unlock()

	r.deps.Scheduler.Cancel(handles...)
}

// Reconcile sweeps the store's active records at process start and finishes
// the stale ones whose provider-side recording has actually ended. Sessions
// that are still recording are left for the webhook restore path.
func (r *Registry) Reconcile(ctx context.Context) {
	records, err := r.deps.Store.ListActive(ctx)
	if err != nil {
		r.logger.Warn("active record listing failed, skipping reconciliation", zap.Error(err))
		return
	}

	for _, record := range records {
		status, err := r.deps.Provider.RecordingState(ctx, record.SessionID)
		if err != nil {
			r.logger.Warn("reconcile state poll failed",
				zap.String("session_id", record.SessionID),
				zap.Error(err),
			)
			continue
		}
		if _, terminal := terminalCodes[status.Code]; !terminal {
			continue
		}
		if err := r.deps.Store.Finish(ctx, record.SessionID); err != nil {
			r.logger.Warn("failed to finish stale record",
				zap.String("session_id", record.SessionID),
				zap.Error(err),
			)
			continue
		}
		r.logger.Info("finished stale summary record",
			zap.String("session_id", record.SessionID),
			zap.String("status", status.Code),
		)
	}
}

// Shutdown terminates all live sessions
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	for _, s := range live {
		s.Terminate(ctx)
	}
}
