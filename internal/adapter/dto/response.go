package dto

// StartRecordingResponse returns the provider-assigned session id
type StartRecordingResponse struct {
	SessionID   string `json:"session_id"`
	Platform    string `json:"platform"`
	DetailLevel string `json:"detalization"`
}

// SessionStateResponse reports the lifecycle state of a session
type SessionStateResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Platform  string `json:"platform"`
}

// SummaryResponse carries a summary text, optionally styled by role
type SummaryResponse struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role,omitempty"`
	Text      string `json:"text"`
	Cached    bool   `json:"cached,omitempty"`
}
