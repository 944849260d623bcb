package entities

// SpeakerEvent marks a speaker unmuting on the provider's speaker timeline.
// Events are FIFO per session; an event stays "open" until a newer event
// bounds its audio window.
type SpeakerEvent struct {
	Speaker  string  `json:"speaker"`
	UnmuteTS float64 `json:"timestamp"`
}
