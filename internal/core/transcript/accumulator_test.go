package transcript

import (
	"strings"
	"testing"

	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

func frag(id int64, speaker, text string, final bool) entities.TranscriptFragment {
	return entities.TranscriptFragment{ID: id, Speaker: speaker, Text: text, IsFinal: final}
}

func TestRenderOrdersByID(t *testing.T) {
	a := NewAccumulator("")
	a.Add(frag(2, "Bob", "second", true))
	a.Add(frag(1, "Alice", "first", true))
	a.Add(frag(3, "Carol", "third", true))

	got, ok := a.Render(true)
	if !ok {
		t.Fatal("expected rendered output")
	}
	want := "Alice: first\nBob: second\nCarol: third\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderStripsNoiseToken(t *testing.T) {
	a := NewAccumulator("noise")
	a.Add(frag(1, "Alice", "hi", true))
	a.Add(frag(2, "Bob", "noise there", true))

	got, ok := a.Render(true)
	if !ok {
		t.Fatal("expected rendered output")
	}
	want := "Alice: hi\nBob:  there\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderNoiseTokenCaseInsensitive(t *testing.T) {
	a := NewAccumulator("noise")
	a.Add(frag(1, "Alice", "NOISE Noise noise", true))

	got, _ := a.Render(true)
	if strings.Contains(strings.ToLower(got), "noise") {
		t.Errorf("noise token survived rendering: %q", got)
	}
}

func TestRenderSkipsNonFinal(t *testing.T) {
	a := NewAccumulator("")
	a.Add(frag(1, "Alice", "final", true))
	a.Add(frag(2, "Bob", "partial", false))

	got, ok := a.Render(true)
	if !ok {
		t.Fatal("expected rendered output")
	}
	if strings.Contains(got, "partial") {
		t.Errorf("non-final fragment rendered: %q", got)
	}

	got, _ = a.Render(false)
	if !strings.Contains(got, "partial") {
		t.Errorf("partial fragment missing with onlyFinal=false: %q", got)
	}
}

func TestRenderEmptyAfterFiltering(t *testing.T) {
	a := NewAccumulator("")
	a.Add(frag(1, "Bob", "partial", false))

	if _, ok := a.Render(true); ok {
		t.Error("expected no output when every fragment is filtered")
	}
	if _, ok := NewAccumulator("").Render(true); ok {
		t.Error("expected no output for an empty accumulator")
	}
}

func TestAddReplacesByID(t *testing.T) {
	a := NewAccumulator("")
	a.Add(frag(1, "Alice", "partial text", false))
	a.Add(frag(1, "Alice", "final text", true))

	if a.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", a.Len())
	}
	got, _ := a.Render(true)
	if got != "Alice: final text\n" {
		t.Errorf("got %q", got)
	}
}

func TestRenderWrapsRollingSummary(t *testing.T) {
	a := NewAccumulator("")
	a.Add(frag(1, "Alice", "old line", true))
	a.RollUp("the meeting opened")
	a.Add(frag(2, "Bob", "new line", true))

	got, ok := a.Render(true)
	if !ok {
		t.Fatal("expected rendered output")
	}
	want := "Start of the dialogue: the meeting opened, continuation: Bob: new line\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRollUpClearsFragments(t *testing.T) {
	a := NewAccumulator("")
	a.Add(frag(1, "Alice", "line", true))
	a.RollUp("summary one")

	if a.Len() != 0 {
		t.Errorf("Len() = %d after rollup, want 0", a.Len())
	}
	if a.Summary() != "summary one" {
		t.Errorf("Summary() = %q", a.Summary())
	}

	// No new fragments means nothing to render even with a summary present.
	if _, ok := a.Render(true); ok {
		t.Error("expected no output with only a rolling summary")
	}

	a.RollUp("summary two")
	if a.Summary() != "summary two" {
		t.Errorf("Summary() = %q after second rollup", a.Summary())
	}
}
