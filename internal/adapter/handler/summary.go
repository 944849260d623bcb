package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/errors"
	"github.com/archipelago-team/meeting-scribe/internal/adapter/dto"
	"github.com/archipelago-team/meeting-scribe/internal/core/session"
	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
	"github.com/archipelago-team/meeting-scribe/internal/infrastructure/cache"
	"github.com/archipelago-team/meeting-scribe/pkg/ai"
)

const styleTemperature = 0.3

// Summary handles summary retrieval endpoints, including role styling
type Summary struct {
	registry *session.Registry
	store    session.Store
	llm      session.Summarizer
	cache    *cache.SummaryCache // optional
	logger   *zap.Logger
}

// NewSummary creates a new summary handler
func NewSummary(registry *session.Registry, store session.Store, llm session.Summarizer, styleCache *cache.SummaryCache, logger *zap.Logger) *Summary {
	return &Summary{
		registry: registry,
		store:    store,
		llm:      llm,
		cache:    styleCache,
		logger:   logger,
	}
}

// Get returns the current summary for a session, restyled when a role is
// requested
// GET /v1/summaries/:id
func (h *Summary) Get(c echo.Context) error {
	sessionID := c.Param("id")

	var req dto.StyledSummaryRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	ctx := c.Request().Context()

	text, err := h.baseText(ctx, sessionID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	role := req.Role
	if role == "" || role == entities.RoleDefault {
		return HandleSuccess(h.logger, c, dto.SummaryResponse{
			SessionID: sessionID,
			Text:      text,
		})
	}

	if cached, ok, cacheErr := h.cache.Get(ctx, sessionID, role); cacheErr == nil && ok {
		return HandleSuccess(h.logger, c, dto.SummaryResponse{
			SessionID: sessionID,
			Role:      role,
			Text:      cached,
			Cached:    true,
		})
	}

	styled, err := h.llm.Complete(ctx, text, ai.StyleSystemPrompt(role), styleTemperature)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrSummarizationFailed(err))
	}
	if styled == "" {
		// The model declined the restyle; the plain summary still answers
		// the request.
		h.logger.Info("style pass declined, returning plain summary",
			zap.String("session_id", sessionID),
			zap.String("role", role),
		)
		return HandleSuccess(h.logger, c, dto.SummaryResponse{
			SessionID: sessionID,
			Text:      text,
		})
	}

	if err := h.store.UpdateRoleText(ctx, sessionID, styled, role); err != nil {
		h.logger.Warn("failed to persist styled summary",
			zap.String("session_id", sessionID),
			zap.String("role", role),
			zap.Error(err),
		)
	}
	if err := h.cache.Set(ctx, sessionID, role, styled); err != nil {
		h.logger.Warn("failed to cache styled summary",
			zap.String("session_id", sessionID),
			zap.String("role", role),
			zap.Error(err),
		)
	}

	return HandleSuccess(h.logger, c, dto.SummaryResponse{
		SessionID: sessionID,
		Role:      role,
		Text:      styled,
	})
}

// baseText resolves the current summary text, preferring the live session's
// in-memory rolling summary over the persisted record.
func (h *Summary) baseText(ctx context.Context, sessionID string) (string, error) {
	if s, ok := h.registry.Get(sessionID); ok {
		if text := s.RollingSummary(); text != "" {
			return text, nil
		}
	}

	record, err := h.store.Get(ctx, sessionID)
	if err != nil {
		return "", errors.ErrInternal(err)
	}
	if record == nil || record.Text == "" {
		return "", errors.ErrSummaryNotFound(sessionID)
	}
	return record.Text, nil
}
