// Package transcript accumulates attributed transcript fragments for one
// recording session and renders them into summarization prompts.
package transcript

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

// Accumulator holds the fragments of one session plus the rolling summary
// they get folded into. It is not safe for concurrent use; the owning
// session serializes access.
type Accumulator struct {
	fragments      map[int64]entities.TranscriptFragment
	rollingSummary string
	noise          *regexp.Regexp
}

// NewAccumulator creates an accumulator that strips the given noise token
// from fragment text during rendering. An empty token disables stripping.
func NewAccumulator(noiseToken string) *Accumulator {
	a := &Accumulator{
		fragments: make(map[int64]entities.TranscriptFragment),
	}
	if noiseToken != "" {
		a.noise = regexp.MustCompile("(?i)" + regexp.QuoteMeta(noiseToken))
	}
	return a
}

// Add inserts a fragment by id. A fragment with a known id replaces the
// previous one, which lets the provider upgrade partial results to final.
func (a *Accumulator) Add(f entities.TranscriptFragment) {
	a.fragments[f.ID] = f
}

// Len returns the number of held fragments
func (a *Accumulator) Len() int {
	return len(a.fragments)
}

// Summary returns the current rolling summary, empty if none
func (a *Accumulator) Summary() string {
	return a.rollingSummary
}

// Render joins fragments in ascending id order as "speaker: text" lines.
// Non-final fragments are skipped when onlyFinal is set. When a rolling
// summary exists the rendered dialogue is wrapped after it as continuation
// context. Returns false when no fragment survived filtering.
func (a *Accumulator) Render(onlyFinal bool) (string, bool) {
	ids := make([]int64, 0, len(a.fragments))
	for id := range a.fragments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var rendered string
	for _, id := range ids {
		f := a.fragments[id]
		if onlyFinal && !f.IsFinal {
			continue
		}
		text := f.Text
		if a.noise != nil {
			text = a.noise.ReplaceAllString(text, "")
		}
		rendered += fmt.Sprintf("%s: %s\n", f.Speaker, text)
	}

	if rendered == "" {
		return "", false
	}
	if a.rollingSummary == "" {
		return rendered, true
	}
	return fmt.Sprintf("Start of the dialogue: %s, continuation: %s", a.rollingSummary, rendered), true
}

// RollUp folds the current fragments into the given summary text. Fragments
// are discarded; call only after a summarization round trip succeeded so a
// transient failure never loses dialogue.
func (a *Accumulator) RollUp(summary string) {
	a.rollingSummary = summary
	a.fragments = make(map[int64]entities.TranscriptFragment)
}
