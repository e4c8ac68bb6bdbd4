package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/roleplay-engine/internal/engine"
	"github.com/jwebster45206/roleplay-engine/internal/logger"
)

// AssistHandler serves the setup assistant, which needs no game.
// Routes:
// POST /v1/suggestions       - Suggest setup values of one kind
// POST /v1/entities/extract  - Extract encyclopedia entries from text
type AssistHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewAssistHandler(e *engine.Engine, logger *slog.Logger) *AssistHandler {
	return &AssistHandler{
		engine: e,
		logger: logger,
	}
}

func (h *AssistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, log, r, http.MethodPost)
		return
	}

	switch r.URL.Path {
	case "/v1/suggestions":
		var req engine.SuggestRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, log, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		s, err := h.engine.Suggest(r.Context(), req)
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, s)

	case "/v1/entities/extract":
		var req engine.ExtractEntitiesRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, log, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		entities, err := h.engine.ExtractEntities(r.Context(), req)
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, entities)

	default:
		writeError(w, log, http.StatusNotFound, "Not found")
	}
}
