package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// rawCodec passes PCM through unchanged so tests can inspect consumed bytes
type rawCodec struct{}

func (rawCodec) Encode(pcm []byte) ([]byte, error) { return pcm, nil }
func (rawCodec) ContentType() string               { return "application/octet-stream" }

type fakeTranscriber struct {
	mu    sync.Mutex
	calls [][]byte
	text  string
	err   error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, audio)
	return f.text, f.err
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestPipeline(lagWindow int, stt Transcriber) *Pipeline {
	return NewPipeline("bot-1", lagWindow, rawCodec{}, stt, zap.NewNop())
}

func TestExtractLeavesLagWindow(t *testing.T) {
	stt := &fakeTranscriber{text: "hello"}
	p := newTestPipeline(19200, stt)

	p.AppendAudio(make([]byte, 30000))
	frag, ok := p.OnSpeakerEvent(context.Background(), "Alice", 1.0)
	if !ok {
		t.Fatal("expected a fragment")
	}
	if frag.Speaker != "Alice" {
		t.Errorf("speaker = %q, want Alice", frag.Speaker)
	}

	if got := p.BufferedLen(); got != 19200 {
		t.Fatalf("buffered after extraction = %d, want 19200", got)
	}
	if stt.callCount() != 1 {
		t.Fatalf("transcriber calls = %d, want 1", stt.callCount())
	}
	if got := len(stt.calls[0]); got != 10800 {
		t.Errorf("consumed slice = %d bytes, want 10800", got)
	}
}

func TestExtractProducesAttributedFragment(t *testing.T) {
	stt := &fakeTranscriber{text: "hello there"}
	p := newTestPipeline(100, stt)

	p.AppendAudio(make([]byte, 1000))
	frag, ok := p.OnSpeakerEvent(context.Background(), "Alice", 1.0)
	if !ok {
		t.Fatal("expected a fragment")
	}
	if frag.Speaker != "Alice" {
		t.Errorf("speaker = %q, want Alice", frag.Speaker)
	}
	if frag.Text != "hello there" {
		t.Errorf("text = %q", frag.Text)
	}
	if !frag.IsFinal {
		t.Error("pipeline fragments must be final")
	}
}

func TestExtractSkipsWithoutEvents(t *testing.T) {
	stt := &fakeTranscriber{text: "x"}
	p := newTestPipeline(100, stt)

	p.AppendAudio(make([]byte, 1000))
	if _, ok := p.Extract(context.Background()); ok {
		t.Fatal("extraction without events must not produce a fragment")
	}
	// A skip must not consume any audio.
	if got := p.BufferedLen(); got != 1000 {
		t.Errorf("buffered = %d after skip, want 1000", got)
	}
	if stt.callCount() != 0 {
		t.Errorf("transcriber calls = %d, want 0", stt.callCount())
	}
}

func TestSpeakerAttributionDefersByOneEvent(t *testing.T) {
	stt := &fakeTranscriber{text: "words"}
	p := newTestPipeline(0, stt)

	// Two queued events: the oldest is closed, so it is popped.
	p.AppendAudio([]byte{1, 2, 3, 4})
	p.OnSpeakerEvent(context.Background(), "Alice", 1.0)
	p.AppendAudio([]byte{5, 6, 7, 8})
	frag, ok := p.OnSpeakerEvent(context.Background(), "Bob", 2.0)
	if !ok {
		t.Fatal("expected a fragment")
	}
	if frag.Speaker != "Alice" {
		t.Errorf("speaker = %q, want Alice (oldest closed event)", frag.Speaker)
	}
	if p.PendingEvents() != 1 {
		t.Fatalf("pending events = %d, want 1", p.PendingEvents())
	}

	// The single remaining event stays open: extraction peeks and keeps it.
	p.AppendAudio([]byte{9, 10})
	frag, ok = p.Extract(context.Background())
	if !ok {
		t.Fatal("expected a fragment")
	}
	if frag.Speaker != "Bob" {
		t.Errorf("speaker = %q, want Bob", frag.Speaker)
	}
	if p.PendingEvents() != 1 {
		t.Errorf("pending events = %d after peek, want 1", p.PendingEvents())
	}
}

func TestFragmentIDsIncrement(t *testing.T) {
	stt := &fakeTranscriber{text: "words"}
	p := newTestPipeline(0, stt)

	p.AppendAudio([]byte{1})
	first, _ := p.OnSpeakerEvent(context.Background(), "Alice", 1.0)
	p.AppendAudio([]byte{2})
	second, _ := p.Extract(context.Background())

	if first.ID != 0 || second.ID != 1 {
		t.Errorf("fragment ids = %d, %d; want 0, 1", first.ID, second.ID)
	}
}

func TestTranscriberFailureDropsSlice(t *testing.T) {
	stt := &fakeTranscriber{err: errors.New("stt down")}
	p := newTestPipeline(0, stt)

	p.AppendAudio(make([]byte, 500))
	if _, ok := p.OnSpeakerEvent(context.Background(), "Alice", 1.0); ok {
		t.Fatal("failed transcription must not produce a fragment")
	}
	// The slice is gone: failure drops it instead of retrying.
	if got := p.BufferedLen(); got != 0 {
		t.Errorf("buffered = %d after failed extraction, want 0", got)
	}

	// Recovery produces a fragment with the next id still at 0.
	stt.err = nil
	stt.text = "back"
	p.AppendAudio(make([]byte, 500))
	frag, ok := p.Extract(context.Background())
	if !ok {
		t.Fatal("expected a fragment after recovery")
	}
	if frag.ID != 0 {
		t.Errorf("fragment id = %d, want 0 (failures do not consume ids)", frag.ID)
	}
}

func TestEmptyTranscriptionProducesNoFragment(t *testing.T) {
	stt := &fakeTranscriber{text: ""}
	p := newTestPipeline(0, stt)

	p.AppendAudio(make([]byte, 100))
	if _, ok := p.OnSpeakerEvent(context.Background(), "Alice", 1.0); ok {
		t.Fatal("silent audio must not produce a fragment")
	}
}

func TestAddPressureRequiresQueuedEvents(t *testing.T) {
	p := newTestPipeline(0, &fakeTranscriber{})

	if got := p.AddPressure(5 * time.Second); got != 0 {
		t.Errorf("pressure = %v with no events, want 0", got)
	}

	p.OnSpeakerEvent(context.Background(), "Alice", 1.0)
	if got := p.AddPressure(5 * time.Second); got != 5*time.Second {
		t.Errorf("pressure = %v, want 5s", got)
	}
	if got := p.AddPressure(5 * time.Second); got != 10*time.Second {
		t.Errorf("pressure = %v, want 10s", got)
	}
}

func TestExtractResetsPressure(t *testing.T) {
	stt := &fakeTranscriber{text: "words"}
	p := newTestPipeline(0, stt)

	p.OnSpeakerEvent(context.Background(), "Alice", 1.0)
	p.AddPressure(20 * time.Second)
	p.AppendAudio([]byte{1, 2})
	p.Extract(context.Background())

	if got := p.AddPressure(5 * time.Second); got != 5*time.Second {
		t.Errorf("pressure = %v after extraction, want 5s", got)
	}
}
