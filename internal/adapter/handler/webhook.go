package handler

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/errors"
	"github.com/archipelago-team/meeting-scribe/internal/adapter/dto"
	"github.com/archipelago-team/meeting-scribe/internal/core/session"
	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

// Webhook receives transcript fragments pushed by the recording provider
type Webhook struct {
	registry *session.Registry
	secret   string
	logger   *zap.Logger
}

// NewWebhook creates a new webhook handler. An empty secret disables
// signature verification, for local development.
func NewWebhook(registry *session.Registry, secret string, logger *zap.Logger) *Webhook {
	return &Webhook{registry: registry, secret: secret, logger: logger}
}

// Transcription ingests one transcript fragment
// POST /v1/webhooks/transcription
func (h *Webhook) Transcription(c echo.Context) error {
	if err := h.verify(c); err != nil {
		return HandleError(h.logger, c, err)
	}

	var req dto.TranscriptionWebhookRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if req.Data.BotID == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("bot_id is required"))
	}

	ctx := c.Request().Context()

	// A fragment may arrive before the session exists here, after a restart.
	// Restore rebuilds it from the summary store; a missing or finished
	// record means the traffic is for a dead meeting and is dropped.
	s, err := h.registry.Restore(ctx, req.Data.BotID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}
	if s == nil {
		h.logger.Debug("dropping transcript for inactive session",
			zap.String("session_id", req.Data.BotID),
		)
		return HandleSuccess(h.logger, c, map[string]string{"status": "ignored"})
	}

	fragment := entities.FragmentFromProvider(entities.ProviderTranscript{
		OriginalTranscriptID: req.Data.Transcript.OriginalTranscriptID,
		Speaker:              req.Data.Transcript.Speaker,
		IsFinal:              req.Data.Transcript.IsFinal,
		Words:                toProviderWords(req.Data.Transcript.Words),
	})
	s.AddFragment(fragment)

	return HandleSuccess(h.logger, c, map[string]string{"status": "accepted"})
}

func toProviderWords(words []dto.TranscriptWord) []entities.ProviderWord {
	out := make([]entities.ProviderWord, 0, len(words))
	for _, w := range words {
		out = append(out, entities.ProviderWord{Text: w.Text})
	}
	return out
}

// verify checks the bearer token the provider signs webhook deliveries with
func (h *Webhook) verify(c echo.Context) error {
	if h.secret == "" {
		return nil
	}

	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return errors.ErrPermissionDenied("missing webhook token")
	}

	_, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(h.secret), nil
	})
	if err != nil {
		return errors.ErrPermissionDenied("invalid webhook token")
	}
	return nil
}
