package entities

import "time"

// SummaryRecord is the externally persisted state of one session's rolling
// summary. The summary store owns this record; the engine reads it back to
// restore sessions after a restart.
type SummaryRecord struct {
	SessionID    string    `json:"summ_id"`
	Text         string    `json:"text"`
	TextWithRole string    `json:"text_with_role"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	Platform     Platform  `json:"platform"`
	DetailLevel  string    `json:"detalization"`
	StartedAt    time.Time `json:"started_at"`
}

// Summary roles a stored summary can be re-styled into.
const (
	RoleDefault  = "default"
	RoleBusiness = "business"
	RoleCasual   = "casual"
	RolePirate   = "pirate"
)

var allowedRoles = map[string]struct{}{
	RoleDefault:  {},
	RoleBusiness: {},
	RoleCasual:   {},
	RolePirate:   {},
}

// ValidRole reports whether role is in the allow-list
func ValidRole(role string) bool {
	_, ok := allowedRoles[role]
	return ok
}

// StyledRoles returns the roles whose summaries are restyled and cached,
// which excludes the default role.
func StyledRoles() []string {
	return []string{RoleBusiness, RoleCasual, RolePirate}
}

// Summary detail levels.
const (
	DetailLow    = "low"
	DetailMedium = "medium"
	DetailHigh   = "high"
)

// NormalizeDetailLevel maps arbitrary input to a supported detail level,
// defaulting to medium.
func NormalizeDetailLevel(s string) string {
	switch s {
	case DetailLow, DetailMedium, DetailHigh:
		return s
	}
	return DetailMedium
}
