package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/archipelago-team/meeting-scribe/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg       *config.Config
	recording *Recording
	summary   *Summary
	webhook   *Webhook
	inspect   *Inspect
}

// NewRouter creates a new router with all handlers. The inspect handler may
// be nil when neither the database nor object storage is configured.
func NewRouter(cfg *config.Config, recording *Recording, summary *Summary, webhook *Webhook, inspect *Inspect) *Router {
	return &Router{
		cfg:       cfg,
		recording: recording,
		summary:   summary,
		webhook:   webhook,
		inspect:   inspect,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")

	v1.POST("/recordings", rt.recording.Start)
	v1.GET("/recordings/:id", rt.recording.State)
	v1.POST("/recordings/:id/stop", rt.recording.Stop)

	v1.GET("/summaries/:id", rt.summary.Get)

	v1.POST("/webhooks/transcription", rt.webhook.Transcription)

	if rt.inspect != nil {
		if rt.inspect.audit != nil {
			v1.GET("/recordings/:id/audit", rt.inspect.AuditTrail)
		}
		if rt.inspect.segments != nil {
			v1.GET("/recordings/:id/segments", rt.inspect.Segments)
		}
	}
}

// healthCheck reports service liveness
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
