package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quickshareqr/server-go/internal/errors"
	"github.com/quickshareqr/server-go/internal/service"
	"github.com/quickshareqr/server-go/internal/sse"
)

// EventsHandler is the join endpoint of the real-time channel. Opening the
// stream joins the session's room; the first filesAdded event replays the
// session's current file list so a late joiner starts with full history.
type EventsHandler struct {
	broker   *sse.Broker
	sessions *service.SessionService
}

func NewEventsHandler(broker *sse.Broker, sessions *service.SessionService) *EventsHandler {
	return &EventsHandler{
		broker:   broker,
		sessions: sessions,
	}
}

// GET /api/session/{sessionID}/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		// A join failure is delivered to this connection only.
		msg := "Session not found or expired"
		if !apperrors.IsNotFound(err) {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to join session")
			msg = "Error joining session"
		}
		h.sendRawEvent(w, flusher, sse.SessionError(msg))
		return
	}

	client := h.broker.Subscribe(sessionID)
	defer h.broker.Unsubscribe(client)

	snapshot, err := sse.FilesAdded(sessionID, session.Files)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to build join snapshot")
		return
	}
	if err := h.sendRawEvent(w, flusher, snapshot); err != nil {
		return
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("sessionId", sessionID).
				Msg("event stream closed by client")
			return

		case <-client.Done:
			log.Info().
				Str("sessionId", sessionID).
				Msg("event stream closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().
					Str("sessionId", sessionID).
					Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
