package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/roleplay-engine/internal/logger"
	"github.com/jwebster45206/roleplay-engine/internal/services/events"
)

const (
	keepaliveInterval = 30 * time.Second
	wsWriteWait       = 10 * time.Second
)

// EventsHandler streams game events to a client, over a WebSocket when the
// request asks for an upgrade and as Server-Sent Events otherwise.
type EventsHandler struct {
	subscriber events.Subscriber
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(subscriber events.Subscriber, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP handles event stream requests
// GET /v1/events/gamestate/{gameStateID}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, log, r, http.MethodGet)
		return
	}

	parts, err := pathSegments(r, "/v1/events/gamestate")
	if err != nil || len(parts) != 1 {
		writeError(w, log, http.StatusBadRequest, "Invalid path. Expected /v1/events/gamestate/{gameStateID}")
		return
	}
	gameStateID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "Invalid game state ID format.")
		return
	}

	stream, cancel, err := h.subscriber.Subscribe(r.Context(), gameStateID)
	if err != nil {
		log.Error("Failed to subscribe to game events", "error", err, "game_state_id", gameStateID.String())
		writeError(w, log, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer cancel()

	if websocket.IsWebSocketUpgrade(r) {
		h.serveWebSocket(w, r, log, gameStateID, stream)
		return
	}
	h.serveSSE(w, r, log, gameStateID, stream)
}

func (h *EventsHandler) serveSSE(w http.ResponseWriter, r *http.Request, log *slog.Logger, gameStateID uuid.UUID, stream <-chan events.Event) {
	log.Info("SSE connection established",
		"game_state_id", gameStateID.String(),
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	keepaliveTicker := time.NewTicker(keepaliveInterval)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, log, "connected", map[string]any{
		"game_id": gameStateID.String(),
		"message": "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			log.Info("SSE client disconnected", "game_state_id", gameStateID.String())
			return

		case event, ok := <-stream:
			if !ok {
				return
			}
			h.sendSSE(w, log, string(event.Type), event)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				log.Error("Failed to write keepalive", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *EventsHandler) sendSSE(w http.ResponseWriter, log *slog.Logger, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		log.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		log.Error("Failed to write event", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (h *EventsHandler) serveWebSocket(w http.ResponseWriter, r *http.Request, log *slog.Logger, gameStateID uuid.UUID, stream <-chan events.Event) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	log.Info("WebSocket connection established",
		"game_state_id", gameStateID.String(),
		"remote_addr", r.RemoteAddr)

	// The stream is one-way; reading only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	keepaliveTicker := time.NewTicker(keepaliveInterval)
	defer keepaliveTicker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-closed:
			log.Info("WebSocket client disconnected", "game_state_id", gameStateID.String())
			return

		case event, ok := <-stream:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Warn("Failed to write WebSocket event", "error", err)
				return
			}

		case <-keepaliveTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
