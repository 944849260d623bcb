// Package stream runs the websocket listeners the meeting provider pushes
// real-time media to: one port for raw PCM audio frames and one for
// speaker-timeline events.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/internal/core/session"
	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
)

const (
	handshakeTimeout = 10 * time.Second
	maxFrameBytes    = 1 << 20
)

// streamHello is the first text frame on every provider connection. It
// binds the connection to a session.
type streamHello struct {
	BotID string `json:"bot_id"`
}

// Router owns the two media listeners and dispatches frames to sessions
type Router struct {
	registry *session.Registry
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewRouter creates a media router over the given session registry
func NewRouter(registry *session.Registry, logger *zap.Logger) *Router {
	return &Router{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// The provider connects from its own infrastructure, not a browser.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ListenAudio serves the raw-audio websocket endpoint until ctx is done
func (r *Router) ListenAudio(ctx context.Context, port int) error {
	return r.listen(ctx, port, "audio", r.serveAudio)
}

// ListenSpeakers serves the speaker-timeline websocket endpoint until ctx is done
func (r *Router) ListenSpeakers(ctx context.Context, port int) error {
	return r.listen(ctx, port, "speakers", r.serveSpeakers)
}

func (r *Router) listen(ctx context.Context, port int, name string, handler func(*websocket.Conn, *session.Session)) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", r.endpoint(name, handler))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: handshakeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// endpoint upgrades one inbound connection, runs the hello handshake, and
// hands the bound connection to the frame handler.
func (r *Router) endpoint(name string, handler func(*websocket.Conn, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		conn, err := r.upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.logger.Warn("websocket upgrade failed",
				zap.String("listener", name),
				zap.Error(err),
			)
			return
		}
		defer conn.Close()

		sess, ok := r.handshake(conn)
		if !ok {
			return
		}
		r.logger.Info("media stream connected",
			zap.String("listener", name),
			zap.String("session_id", sess.ID),
		)
		handler(conn, sess)
	}
}

// handshake reads the hello frame and resolves the session. A connection
// for an unknown session is closed immediately: the provider reconnects on
// its own and a session that is gone will never come back under that id.
func (r *Router) handshake(conn *websocket.Conn) (*session.Session, bool) {
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}
	var hello streamHello
	if err := json.Unmarshal(data, &hello); err != nil || hello.BotID == "" {
		r.logger.Warn("malformed stream hello", zap.Error(err))
		return nil, false
	}

	sess, ok := r.registry.Get(hello.BotID)
	if !ok {
		r.logger.Warn("stream for unknown session", zap.String("session_id", hello.BotID))
		return nil, false
	}

	_ = conn.SetReadDeadline(time.Time{})
	return sess, true
}

func (r *Router) serveAudio(conn *websocket.Conn, sess *session.Session) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Warn("audio stream closed unexpectedly",
					zap.String("session_id", sess.ID),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		sess.HandleAudio(data)
	}
}

func (r *Router) serveSpeakers(conn *websocket.Conn, sess *session.Session) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Warn("speaker stream closed unexpectedly",
					zap.String("session_id", sess.ID),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var ev entities.SpeakerEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			r.logger.Warn("malformed speaker event",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			continue
		}
		if ev.Speaker == "" {
			continue
		}
		sess.HandleSpeakerEvent(context.Background(), ev.Speaker, ev.UnmuteTS)
	}
}
