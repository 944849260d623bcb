package handler

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/errors"
	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

// AuditLister reads back the persisted summarization trail
type AuditLister interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]entities.SummaryAudit, error)
}

// SegmentLister reads back the archived audio slice names
type SegmentLister interface {
	ListSegments(ctx context.Context, sessionID string) ([]string, error)
}

// Inspect exposes the offline artifacts of a session: the summarization
// audit trail and the archived audio segments. Both backends are optional;
// routes are only mounted when the backing store is configured.
type Inspect struct {
	audit    AuditLister
	segments SegmentLister
	logger   *zap.Logger
}

// NewInspect creates a new inspection handler
func NewInspect(audit AuditLister, segments SegmentLister, logger *zap.Logger) *Inspect {
	return &Inspect{audit: audit, segments: segments, logger: logger}
}

// AuditTrail returns the summarization round trips stored for a session
// GET /v1/recordings/:id/audit
func (h *Inspect) AuditTrail(c echo.Context) error {
	sessionID := c.Param("id")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	audits, err := h.audit.ListBySession(c.Request().Context(), sessionID, limit)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, audits)
}

// Segments returns the archived audio slice names for a session
// GET /v1/recordings/:id/segments
func (h *Inspect) Segments(c echo.Context) error {
	sessionID := c.Param("id")

	names, err := h.segments.ListSegments(c.Request().Context(), sessionID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{
		"session_id": sessionID,
		"segments":   names,
	})
}
