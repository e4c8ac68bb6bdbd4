package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jwebster45206/roleplay-engine/internal/engine"
	"github.com/jwebster45206/roleplay-engine/internal/services"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
	"github.com/jwebster45206/roleplay-engine/pkg/storage"
)

// maxBodyBytes bounds request bodies, imported saves included.
const maxBodyBytes = 8 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// decodeBody reads a JSON request body into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// errorStatus maps an engine error onto an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidRequest),
		errors.Is(err, state.ErrInvalidSlot):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrGameNotFound),
		errors.Is(err, storage.ErrSaveNotFound),
		errors.Is(err, storage.ErrSetupNotFound),
		errors.Is(err, state.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRequestInFlight),
		errors.Is(err, state.ErrNothingToUndo),
		errors.Is(err, state.ErrRerollNotAllowed):
		return http.StatusConflict
	case errors.Is(err, state.ErrInvalidSave),
		errors.Is(err, state.ErrCharacterDead),
		errors.Is(err, state.ErrItemNotUsable),
		errors.Is(err, state.ErrItemNotEquippable),
		errors.Is(err, state.ErrNotEnoughQi):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrOracle):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError logs err and answers with its mapped status. Internal
// errors are not echoed to the client.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := errorStatus(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("Request failed", "error", err)
		msg = "Internal server error"
	case status == http.StatusBadGateway:
		logger.Error("Oracle request failed", "error", err)
		msg = "AI không phản hồi. Vui lòng thử lại."
	default:
		logger.Warn("Request rejected", "status", status, "error", err)
	}
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// pathSegments splits the path after prefix into unescaped segments.
func pathSegments(r *http.Request, prefix string) ([]string, error) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.EscapedPath(), prefix), "/")
	if rest == "" {
		return nil, nil
	}
	parts := strings.Split(rest, "/")
	for i, p := range parts {
		s, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return parts, nil
}

func methodNotAllowed(w http.ResponseWriter, logger *slog.Logger, r *http.Request, allowed ...string) {
	logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: "+strings.Join(allowed, ", "))
}
