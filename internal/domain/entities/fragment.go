package entities

import "strings"

// TranscriptFragment is one attributed unit of recognized speech. Fragments
// are immutable once created; ownership transfers to the accumulator on
// insertion.
type TranscriptFragment struct {
	ID      int64  `json:"id"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// ProviderWord is one word entry in the provider's transcript payload
type ProviderWord struct {
	Text string `json:"text"`
}

// ProviderTranscript is the fragment shape delivered by the recording
// provider's transcription webhook
type ProviderTranscript struct {
	OriginalTranscriptID int64          `json:"original_transcript_id"`
	Speaker              string         `json:"speaker"`
	IsFinal              bool           `json:"is_final"`
	Words                []ProviderWord `json:"words"`
}

// FragmentFromProvider converts a provider transcript payload into a
// TranscriptFragment, joining the word list into one message.
func FragmentFromProvider(pt ProviderTranscript) TranscriptFragment {
	parts := make([]string, 0, len(pt.Words))
	for _, w := range pt.Words {
		parts = append(parts, w.Text)
	}
	return TranscriptFragment{
		ID:      pt.OriginalTranscriptID,
		Speaker: pt.Speaker,
		Text:    strings.Join(parts, "\n"),
		IsFinal: pt.IsFinal,
	}
}
