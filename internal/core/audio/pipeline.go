package audio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

// Pipeline multiplexes one session's raw audio stream and speaker-event
// stream into attributed transcript fragments.
//
// Audio bytes and speaker-change events arrive on independent sockets with
// independent network jitter, so no ordering holds between the two streams.
// Two mechanisms absorb the skew: attribution is deferred by one event (an
// event is closed by the arrival of the next one, not by its own arrival),
// and every extraction leaves a trailing lag window of audio unconsumed so a
// new speaker's first syllables are not clipped.
type Pipeline struct {
	mu sync.Mutex

	sessionID string
	buf       []byte
	events    []entities.SpeakerEvent
	elapsed   time.Duration
	nextID    int64
	nextSeq   int64

	lagWindow int

	codec    Codec
	stt      Transcriber
	archiver Archiver
	logger   *zap.Logger
}

// NewPipeline creates a pipeline for one session
func NewPipeline(sessionID string, lagWindow int, codec Codec, stt Transcriber, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		sessionID: sessionID,
		lagWindow: lagWindow,
		codec:     codec,
		stt:       stt,
		logger:    logger,
	}
}

// WithArchiver attaches a best-effort archiver for consumed audio slices
func (p *Pipeline) WithArchiver(a Archiver) *Pipeline {
	p.archiver = a
	return p
}

// AppendAudio appends raw PCM bytes in arrival order. It has no extraction
// side effect: the audio socket and the speaker socket are independent
// connections and neither may assume the other has caught up.
func (p *Pipeline) AppendAudio(b []byte) {
	if len(b) == 0 {
		return
	}
	p.mu.Lock()
	p.buf = append(p.buf, b...)
	p.mu.Unlock()
}

// OnSpeakerEvent enqueues a speaker-change event and immediately attempts an
// extraction, which keeps latency low when speaker turns are frequent. The
// returned fragment, if any, belongs to the caller.
func (p *Pipeline) OnSpeakerEvent(ctx context.Context, speaker string, unmuteTS float64) (entities.TranscriptFragment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, entities.SpeakerEvent{Speaker: speaker, UnmuteTS: unmuteTS})
	return p.extractLocked(ctx)
}

// AddPressure advances the elapsed-time counter by d and returns the new
// value. Sessions with no queued speaker event do not accumulate pressure.
func (p *Pipeline) AddPressure(d time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.events) == 0 {
		return p.elapsed
	}
	p.elapsed += d
	return p.elapsed
}

// BufferedLen returns the current audio buffer length in bytes
func (p *Pipeline) BufferedLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// PendingEvents returns the current speaker-event queue length
func (p *Pipeline) PendingEvents() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// Extract consumes the buffered audio up to the lag window, attributes it to
// the current speaker, and runs it through the codec and transcriber. The
// whole cycle is one critical section.
func (p *Pipeline) Extract(ctx context.Context) (entities.TranscriptFragment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extractLocked(ctx)
}

func (p *Pipeline) extractLocked(ctx context.Context) (entities.TranscriptFragment, bool) {
	// No queued event means no speaker to attribute to; leave the buffer
	// untouched and let a later cycle pick it up.
	if len(p.events) == 0 {
		return entities.TranscriptFragment{}, false
	}

	// Consume all but the trailing lag window.
	var consumed []byte
	if len(p.buf) > p.lagWindow {
		cut := len(p.buf) - p.lagWindow
		consumed = p.buf[:cut:cut]
		p.buf = append([]byte(nil), p.buf[cut:]...)
	} else {
		consumed = p.buf
		p.buf = nil
	}

	// A queue longer than one means the oldest event has been closed by a
	// newer one: the speaker transition is observed, pop it. A single event
	// is still open, so peek and keep it for the next cycle.
	var current entities.SpeakerEvent
	if len(p.events) > 1 {
		current = p.events[0]
		p.events = p.events[1:]
	} else {
		current = p.events[0]
	}

	p.elapsed = 0

	if len(consumed) == 0 {
		return entities.TranscriptFragment{}, false
	}

	if p.archiver != nil {
		seq := p.nextSeq
		p.nextSeq++
		data := append([]byte(nil), consumed...)
		go p.archiver.ArchiveSegment(context.WithoutCancel(ctx), p.sessionID, seq, data)
	}

	encoded, err := p.codec.Encode(consumed)
	if err != nil {
		p.logger.Error("audio encode failed, dropping slice",
			zap.String("session_id", p.sessionID),
			zap.Int("bytes", len(consumed)),
			zap.Error(err),
		)
		return entities.TranscriptFragment{}, false
	}

	text, err := p.stt.Transcribe(ctx, encoded)
	if err != nil {
		// The consumed slice is dropped rather than retried; this bounds
		// memory growth at the cost of losing this cycle's content.
		p.logger.Error("transcription failed, dropping slice",
			zap.String("session_id", p.sessionID),
			zap.Int("bytes", len(consumed)),
			zap.Error(err),
		)
		return entities.TranscriptFragment{}, false
	}
	if text == "" {
		return entities.TranscriptFragment{}, false
	}

	frag := entities.TranscriptFragment{
		ID:      p.nextID,
		Speaker: current.Speaker,
		Text:    text,
		IsFinal: true,
	}
	p.nextID++

	p.logger.Debug("extracted fragment",
		zap.String("session_id", p.sessionID),
		zap.Int64("fragment_id", frag.ID),
		zap.String("speaker", frag.Speaker),
	)
	return frag, true
}
