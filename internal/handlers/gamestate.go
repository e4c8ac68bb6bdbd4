package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/internal/engine"
	"github.com/jwebster45206/roleplay-engine/internal/logger"
	"github.com/jwebster45206/roleplay-engine/pkg/chat"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

type GameStateHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewGameStateHandler(e *engine.Engine, logger *slog.Logger) *GameStateHandler {
	return &GameStateHandler{
		engine: e,
		logger: logger,
	}
}

// SummaryResponse carries a generated plot summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// ServeHTTP handles HTTP requests for game state operations
// Routes:
// POST   /v1/gamestate                              - Start a new story
// POST   /v1/gamestate/import                       - Import a save document
// GET    /v1/gamestate/{id}                         - Read game state with effective stats
// DELETE /v1/gamestate/{id}                         - Delete game state
// GET    /v1/gamestate/{id}/export                  - Download the save document
// GET    /v1/gamestate/{id}/summary                 - Summarize the story so far
// POST   /v1/gamestate/{id}/{op}                    - action, undo, reroll, roleplay, cultivate, advance, world-event
// POST   /v1/gamestate/{id}/items/{itemID}/use      - Use an item
// POST   /v1/gamestate/{id}/items/{itemID}/equip    - Equip an item (?narrate=true to tell the story)
// POST   /v1/gamestate/{id}/slots/{slot}/unequip    - Clear a slot (?narrate=true to tell the story)
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	parts, err := pathSegments(r, "/v1/gamestate")
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "Invalid path")
		return
	}

	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, log, r, http.MethodPost)
			return
		}
		h.handleCreate(w, r, log)
		return
	}
	if len(parts) == 1 && parts[0] == "import" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, log, r, http.MethodPost)
			return
		}
		h.handleImport(w, r, log)
		return
	}

	gameStateID, err := uuid.Parse(parts[0])
	if err != nil {
		log.Warn("Invalid game state ID", "id", parts[0], "error", err)
		writeError(w, log, http.StatusBadRequest, "Invalid game state ID format")
		return
	}
	log = log.With("game_state_id", gameStateID.String())

	switch len(parts) {
	case 1:
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, log, gameStateID)
		case http.MethodDelete:
			h.handleDelete(w, r, log, gameStateID)
		default:
			methodNotAllowed(w, log, r, http.MethodGet, http.MethodDelete)
		}
	case 2:
		h.handleOperation(w, r, log, gameStateID, parts[1])
	case 4:
		if r.Method != http.MethodPost {
			methodNotAllowed(w, log, r, http.MethodPost)
			return
		}
		h.handleInventory(w, r, log, gameStateID, parts[1], parts[2], parts[3])
	default:
		writeError(w, log, http.StatusNotFound, "Not found")
	}
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	var req engine.NewStoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		log.Warn("Invalid JSON in request body", "error", err)
		writeError(w, log, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	res, err := h.engine.NewStory(r.Context(), req)
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	log.Debug("Game state created", "game_state_id", res.GameState.ID.String())
	writeJSON(w, log, http.StatusCreated, res)
}

func (h *GameStateHandler) handleImport(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "Failed to read request body")
		return
	}
	gs, err := h.engine.Import(r.Context(), data)
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	h.writeView(w, r, log, http.StatusCreated, gs.ID)
}

func (h *GameStateHandler) handleRead(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	h.writeView(w, r, log, http.StatusOK, id)
}

func (h *GameStateHandler) writeView(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, id uuid.UUID) {
	view, err := h.engine.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	writeJSON(w, log, status, view)
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	if err := h.engine.Delete(r.Context(), id); err != nil {
		writeEngineError(w, log, err)
		return
	}
	log.Debug("Game state deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameStateHandler) handleOperation(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID, op string) {
	ctx := r.Context()

	switch op {
	case "export":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, log, r, http.MethodGet)
			return
		}
		doc, err := h.engine.Export(ctx, id)
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, id))
		if _, err := w.Write(doc); err != nil {
			log.Error("Failed to write export", "error", err)
		}
		return

	case "summary":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, log, r, http.MethodGet)
			return
		}
		summary, err := h.engine.Summarize(ctx, id)
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, SummaryResponse{Summary: summary})
		return
	}

	if r.Method != http.MethodPost {
		methodNotAllowed(w, log, r, http.MethodPost)
		return
	}

	var run func(context.Context) (*engine.Result, error)
	switch op {
	case "action":
		var req chat.ActionRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, log, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.Action(ctx, id, req.Action) }
	case "undo":
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.Undo(ctx, id) }
	case "reroll":
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.Reroll(ctx, id) }
	case "roleplay":
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.ToggleRoleplay(ctx, id) }
	case "cultivate":
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.Cultivate(ctx, id) }
	case "advance":
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.Advance(ctx, id) }
	case "world-event":
		var req engine.WorldEventRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, log, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.CreateWorldEvent(ctx, id, req) }
	default:
		writeError(w, log, http.StatusNotFound, "Unknown operation: "+op)
		return
	}
	h.writeResult(w, r, log, run)
}

func (h *GameStateHandler) handleInventory(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID, kind, target, op string) {
	narrate, _ := strconv.ParseBool(r.URL.Query().Get("narrate"))

	var run func(context.Context) (*engine.Result, error)
	switch {
	case kind == "items" && op == "use":
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.UseItem(ctx, id, target) }
	case kind == "items" && op == "equip":
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.Equip(ctx, id, target, narrate) }
	case kind == "slots" && op == "unequip":
		slot := state.EquipmentSlot(target)
		run = func(ctx context.Context) (*engine.Result, error) { return h.engine.Unequip(ctx, id, slot, narrate) }
	default:
		writeError(w, log, http.StatusNotFound, "Not found")
		return
	}
	h.writeResult(w, r, log, run)
}

func (h *GameStateHandler) writeResult(w http.ResponseWriter, r *http.Request, log *slog.Logger, run func(context.Context) (*engine.Result, error)) {
	res, err := run(r.Context())
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, res)
}
