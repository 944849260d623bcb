package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

// AuditRepository persists summarization round trips for offline inspection
type AuditRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository backed by GORM
func NewAuditRepository(db *gorm.DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

// Record inserts one audit row. Failures are logged, never propagated: the
// summarization loop must not stall on the audit database.
func (r *AuditRepository) Record(ctx context.Context, sessionID, prompt, response string, metadata map[string]interface{}) {
	if r == nil || r.db == nil {
		return
	}
	audit := entities.NewSummaryAudit(sessionID, prompt, response, metadata)
	if err := r.db.WithContext(ctx).Create(audit).Error; err != nil {
		r.logger.Warn("failed to record summarization audit",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

// ListBySession returns the audit trail for one session, oldest first
func (r *AuditRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]entities.SummaryAudit, error) {
	if limit <= 0 {
		limit = 100
	}
	var audits []entities.SummaryAudit
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Find(&audits).Error
	if err != nil {
		return nil, err
	}
	return audits, nil
}
