package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	"github.com/denkain-drill/backend/internal/service"
	"github.com/denkain-drill/backend/internal/source"
	"github.com/denkain-drill/backend/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler holds all dependencies needed by HTTP handlers.
// Instead of relying on package-level globals, every handler method
// receives its dependencies through this struct.
type Handler struct {
	registry *service.Registry
	files    source.Fetcher
	logger   *slog.Logger
}

// NewHandler builds the handler. files serves /files/ and may be nil.
func NewHandler(registry *service.Registry, files source.Fetcher, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		files:    files,
		logger:   logger,
	}
}

// respondJSON writes a JSON response with the given status code. The body is
// encoded before the header goes out so an encoding failure still yields 500.
func respondJSON(w http.ResponseWriter, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(raw, '\n'))
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads the request body into v. It writes a 400 and returns
// false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleError maps domain errors to HTTP responses. Returns true if an error
// was handled (caller should return).
func (h *Handler) handleError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, catalog.ErrUnknownDataset):
		respondError(w, http.StatusNotFound, "dataset not found")
	case errors.Is(err, service.ErrNoDataset):
		respondError(w, http.StatusConflict, "no dataset loaded")
	case errors.Is(err, service.ErrSuperseded):
		respondError(w, http.StatusConflict, "a newer dataset selection is in progress")
	case errors.Is(err, source.ErrUnavailable), errors.Is(err, source.ErrMalformed):
		h.logger.Warn("data source error", "error", err, "entity", entity)
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("request failed", "error", err, "entity", entity)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}

// trainer resolves the {sessionID} path value, writing a 404 when unknown.
func (h *Handler) trainer(w http.ResponseWriter, r *http.Request) (*service.Trainer, bool) {
	t, err := h.registry.Get(r.PathValue("sessionID"))
	if h.handleError(w, err, "session") {
		return nil, false
	}
	return t, true
}
