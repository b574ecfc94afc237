package api

import (
	"net/http"
)

// RegisterRoutes mounts every API endpoint on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /health", h.health)

	// Catalog
	mux.HandleFunc("GET /catalog", h.getCatalog)

	// Sessions
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("GET /sessions/{sessionID}", h.getSession)
	mux.HandleFunc("DELETE /sessions/{sessionID}", h.deleteSession)
	mux.HandleFunc("PUT /sessions/{sessionID}/dataset", h.selectDataset)
	mux.HandleFunc("PUT /sessions/{sessionID}/mode", h.setMode)
	mux.HandleFunc("POST /sessions/{sessionID}/mode/next", h.nextMode)
	mux.HandleFunc("POST /sessions/{sessionID}/restart", h.restartSession)

	// Quiz progression
	mux.HandleFunc("POST /sessions/{sessionID}/select", h.selectChoice)
	mux.HandleFunc("POST /sessions/{sessionID}/check", h.checkAnswer)
	mux.HandleFunc("POST /sessions/{sessionID}/next", h.nextQuestion)

	// Stats
	mux.HandleFunc("GET /sessions/{sessionID}/stats", h.getSessionStats)

	// Data files (images, datasets), served offline from the cache
	mux.HandleFunc("GET "+filesPrefix+"{path...}", h.getFile)
}

// health reports liveness.
// @Summary      Health check
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
