// Package dto defines the HTTP request and response shapes
package dto

// StartRecordingRequest asks the engine to send a bot into a meeting
type StartRecordingRequest struct {
	MeetingURL  string `json:"meeting_url" validate:"required,url"`
	DetailLevel string `json:"detalization" validate:"omitempty,oneof=low medium high"`
}

// StyledSummaryRequest selects the role variant of a session summary
type StyledSummaryRequest struct {
	Role string `query:"role" validate:"omitempty,oneof=default business casual pirate"`
}

// TranscriptWord is one recognized word inside a webhook fragment
type TranscriptWord struct {
	Text string `json:"text"`
}

// WebhookTranscript is the fragment body inside a transcription webhook
type WebhookTranscript struct {
	OriginalTranscriptID int64            `json:"original_transcript_id"`
	Speaker              string           `json:"speaker"`
	IsFinal              bool             `json:"is_final"`
	Words                []TranscriptWord `json:"words"`
}

// WebhookData carries the session binding and the fragment
type WebhookData struct {
	BotID      string            `json:"bot_id"`
	Transcript WebhookTranscript `json:"transcript"`
}

// TranscriptionWebhookRequest is the provider's transcript delivery payload
type TranscriptionWebhookRequest struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data" validate:"required"`
}
