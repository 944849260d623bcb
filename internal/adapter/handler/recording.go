package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/errors"
	"github.com/archipelago-team/meeting-scribe/internal/adapter/dto"
	"github.com/archipelago-team/meeting-scribe/internal/core/session"
)

// Recording handles session lifecycle endpoints
type Recording struct {
	registry *session.Registry
	logger   *zap.Logger
}

// NewRecording creates a new recording handler
func NewRecording(registry *session.Registry, logger *zap.Logger) *Recording {
	return &Recording{registry: registry, logger: logger}
}

// Start sends a bot into a meeting and begins recording
// POST /v1/recordings
func (h *Recording) Start(c echo.Context) error {
	var req dto.StartRecordingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	s, err := h.registry.Join(c.Request().Context(), req.MeetingURL, req.DetailLevel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, dto.StartRecordingResponse{
		SessionID:   s.ID,
		Platform:    string(s.Platform),
		DetailLevel: s.DetailLevel,
	})
}

// Stop makes the bot leave the call and tears the session down
// POST /v1/recordings/:id/stop
func (h *Recording) Stop(c echo.Context) error {
	sessionID := c.Param("id")
	s, ok := h.registry.Get(sessionID)
	if !ok {
		return HandleError(h.logger, c, errors.ErrSessionNotFound(sessionID))
	}

	s.Leave(c.Request().Context())

	return HandleSuccess(h.logger, c, dto.SessionStateResponse{
		SessionID: sessionID,
		State:     s.State().String(),
		Platform:  string(s.Platform),
	})
}

// State reports the lifecycle state of a live session
// GET /v1/recordings/:id
func (h *Recording) State(c echo.Context) error {
	sessionID := c.Param("id")
	s, ok := h.registry.Get(sessionID)
	if !ok {
		return HandleError(h.logger, c, errors.ErrSessionNotFound(sessionID))
	}

	return HandleSuccess(h.logger, c, dto.SessionStateResponse{
		SessionID: sessionID,
		State:     s.State().String(),
		Platform:  string(s.Platform),
	})
}
