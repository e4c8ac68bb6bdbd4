package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/jwebster45206/roleplay-engine/internal/engine"
	"github.com/jwebster45206/roleplay-engine/internal/logger"
)

// SetupListing names one stored story preset.
type SetupListing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SetupsHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSetupsHandler(e *engine.Engine, logger *slog.Logger) *SetupsHandler {
	return &SetupsHandler{
		engine: e,
		logger: logger,
	}
}

// ServeHTTP lists presets at /v1/setups and returns one at /v1/setups/{id}.
func (h *SetupsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, log, r, http.MethodGet)
		return
	}

	parts, err := pathSegments(r, "/v1/setups")
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "Invalid path")
		return
	}

	switch len(parts) {
	case 0:
		setups, err := h.engine.ListSetups(r.Context())
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		list := make([]SetupListing, 0, len(setups))
		for name, id := range setups {
			list = append(list, SetupListing{ID: id, Name: name})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		writeJSON(w, log, http.StatusOK, list)

	case 1:
		setup, err := h.engine.GetSetup(r.Context(), parts[0])
		if err != nil {
			writeEngineError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, setup)

	default:
		writeError(w, log, http.StatusNotFound, "Not found")
	}
}
