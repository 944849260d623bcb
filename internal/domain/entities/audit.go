package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SummaryAudit records one summarization round trip for offline inspection
type SummaryAudit struct {
	ID        uuid.UUID                                  `json:"id" gorm:"type:uuid;primary_key"`
	SessionID string                                     `json:"session_id" gorm:"type:varchar(255);not null;index"`
	Prompt    string                                     `json:"prompt" gorm:"type:text"`
	Response  string                                     `json:"response" gorm:"type:text"`
	Metadata  datatypes.JSONType[map[string]interface{}] `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time                                  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (SummaryAudit) TableName() string {
	return "summary_audits"
}

// NewSummaryAudit creates a new audit record
func NewSummaryAudit(sessionID, prompt, response string, metadata map[string]interface{}) *SummaryAudit {
	return &SummaryAudit{
		ID:        uuid.New(),
		SessionID: sessionID,
		Prompt:    prompt,
		Response:  response,
		Metadata:  datatypes.NewJSONType(metadata),
		CreatedAt: time.Now(),
	}
}
