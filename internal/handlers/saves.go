package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/internal/engine"
	"github.com/jwebster45206/roleplay-engine/internal/logger"
)

// WriteSaveRequest copies a live game into a slot.
type WriteSaveRequest struct {
	Slot        string    `json:"slot"`
	GameStateID uuid.UUID `json:"game_state_id"`
}

type SavesHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSavesHandler(e *engine.Engine, logger *slog.Logger) *SavesHandler {
	return &SavesHandler{
		engine: e,
		logger: logger,
	}
}

// ServeHTTP handles save slot operations
// Routes:
// GET    /v1/saves             - List save slots, newest first
// POST   /v1/saves             - Write a live game into a slot
// GET    /v1/saves/{slot}      - Read a slot's document
// DELETE /v1/saves/{slot}      - Delete a slot
// POST   /v1/saves/{slot}/load - Restore a slot as the live session
func (h *SavesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	ctx := r.Context()

	parts, err := pathSegments(r, "/v1/saves")
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "Invalid path")
		return
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		saves, err := h.engine.ListSaves(ctx)
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, saves)

	case len(parts) == 0 && r.Method == http.MethodPost:
		var req WriteSaveRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, log, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		if req.GameStateID == uuid.Nil {
			writeError(w, log, http.StatusBadRequest, "game_state_id is required")
			return
		}
		sum, err := h.engine.WriteSave(ctx, req.Slot, req.GameStateID)
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		log.Info("Game saved", "slot", sum.Slot, "game_state_id", sum.GameID.String())
		writeJSON(w, log, http.StatusCreated, sum)

	case len(parts) == 0:
		methodNotAllowed(w, log, r, http.MethodGet, http.MethodPost)

	case len(parts) == 1 && r.Method == http.MethodGet:
		gs, err := h.engine.ReadSave(ctx, parts[0])
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, gs)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := h.engine.DeleteSave(ctx, parts[0]); err != nil {
			writeEngineError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 1:
		methodNotAllowed(w, log, r, http.MethodGet, http.MethodDelete)

	case len(parts) == 2 && parts[1] == "load":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, log, r, http.MethodPost)
			return
		}
		gs, err := h.engine.LoadSave(ctx, parts[0])
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		view, err := h.engine.Get(ctx, gs.ID)
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, view)

	default:
		writeError(w, log, http.StatusNotFound, "Not found")
	}
}
