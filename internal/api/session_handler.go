package api

import (
	"errors"
	"net/http"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	practicesession "github.com/denkain-drill/backend/internal/domain/practice_session"
	"github.com/denkain-drill/backend/internal/service"
)

// createSession starts a drill on a dataset.
// @Summary      Start a session
// @Description  Loads the dataset and starts a session in the given mode. An empty dataset selects the first one of the catalog.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        body  body      CreateSessionRequest  true  "Dataset and mode"
// @Success      201   {object}  SessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string  "dataset not found"
// @Failure      502   {object}  SessionResponse    "dataset could not be loaded"
// @Router       /sessions [post]
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var mode practicesession.Mode
	if req.Mode != "" {
		m, err := practicesession.ParseMode(req.Mode)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}

	t := h.registry.Create(mode)

	ref := catalog.DatasetRef{Year: req.Year, Term: req.Term, Subject: req.Subject}
	if ref.IsZero() {
		c, err := t.Catalog(ctx)
		if err != nil {
			h.registry.Delete(t.ID)
			h.handleError(w, err, "catalog")
			return
		}
		first, ok := c.First()
		if !ok {
			h.registry.Delete(t.ID)
			respondError(w, http.StatusNotFound, "catalog has no datasets")
			return
		}
		ref = first
	}

	if err := t.SelectDataset(ctx, ref); err != nil {
		if errors.Is(err, catalog.ErrUnknownDataset) {
			h.registry.Delete(t.ID)
			h.handleError(w, err, "dataset")
			return
		}
		h.logger.Warn("session created without dataset", "session_id", t.ID, "dataset", ref.Key(), "error", err)
		respondJSON(w, http.StatusBadGateway, toSessionResponse(t.Snapshot()))
		return
	}

	h.logger.Info("session created", "session_id", t.ID, "dataset", ref.Key())
	respondJSON(w, http.StatusCreated, toSessionResponse(t.Snapshot()))
}

// getSession returns the current state of a session.
// @Summary      Get a session
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  SessionResponse
// @Failure      404        {object}  map[string]string
// @Router       /sessions/{sessionID} [get]
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(t.Snapshot()))
}

// deleteSession drops a session. Its statistics stay stored.
// @Summary      Delete a session
// @Tags         Sessions
// @Param        sessionID  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /sessions/{sessionID} [delete]
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	err := h.registry.Delete(r.PathValue("sessionID"))
	if h.handleError(w, err, "session") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selectDataset switches a session to another dataset.
// @Summary      Select a dataset
// @Description  Loads the dataset and restarts the session on it in the current mode. When a newer selection wins, answers 409.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string                true  "Session ID"
// @Param        body       body      SelectDatasetRequest  true  "Dataset"
// @Success      200        {object}  SessionResponse
// @Failure      404        {object}  map[string]string
// @Failure      409        {object}  map[string]string
// @Failure      502        {object}  SessionResponse  "dataset could not be loaded"
// @Router       /sessions/{sessionID}/dataset [put]
func (h *Handler) selectDataset(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}
	var req SelectDatasetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ref := catalog.DatasetRef{Year: req.Year, Term: req.Term, Subject: req.Subject}
	err := t.SelectDataset(r.Context(), ref)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, toSessionResponse(t.Snapshot()))
	case errors.Is(err, catalog.ErrUnknownDataset), errors.Is(err, service.ErrSuperseded):
		h.handleError(w, err, "dataset")
	default:
		respondJSON(w, http.StatusBadGateway, toSessionResponse(t.Snapshot()))
	}
}

// setMode switches the ordering policy and restarts the session.
// @Summary      Set the mode
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string          true  "Session ID"
// @Param        body       body      SetModeRequest  true  "Mode"
// @Success      200        {object}  SessionResponse
// @Failure      400        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /sessions/{sessionID}/mode [put]
func (h *Handler) setMode(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}
	var req SetModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	mode, err := practicesession.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := t.SetMode(r.Context(), mode); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(t.Snapshot()))
}

// nextMode steps to the next mode: order, random, wrong, weak, order.
// @Summary      Cycle the mode
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  SessionResponse
// @Failure      404        {object}  map[string]string
// @Router       /sessions/{sessionID}/mode/next [post]
func (h *Handler) nextMode(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}
	t.ToggleMode(r.Context())
	respondJSON(w, http.StatusOK, toSessionResponse(t.Snapshot()))
}

// restartSession rebuilds the order from the latest statistics.
// @Summary      Restart the session
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  SessionResponse
// @Failure      404        {object}  map[string]string
// @Failure      409        {object}  map[string]string  "no dataset loaded"
// @Router       /sessions/{sessionID}/restart [post]
func (h *Handler) restartSession(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}
	if h.handleError(w, t.Restart(r.Context()), "session") {
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(t.Snapshot()))
}

// selectChoice marks a choice of the current question.
// @Summary      Select a choice
// @Tags         Quiz
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string               true  "Session ID"
// @Param        body       body      SelectChoiceRequest  true  "Choice"
// @Success      200        {object}  ActionResponse
// @Failure      404        {object}  map[string]string
// @Router       /sessions/{sessionID}/select [post]
func (h *Handler) selectChoice(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}
	var req SelectChoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	applied := t.Select(req.ChoiceID)
	respondJSON(w, http.StatusOK, ActionResponse{Applied: applied, Session: toSessionResponse(t.Snapshot())})
}

// checkAnswer scores the selected choice and records the statistics.
// @Summary      Check the answer
// @Description  Not applied without a selection or when already checked. A statistics write failure is reported as a warning.
// @Tags         Quiz
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  ActionResponse
// @Failure      404        {object}  map[string]string
// @Router       /sessions/{sessionID}/check [post]
func (h *Handler) checkAnswer(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}

	_, applied, err := t.Check(r.Context())
	resp := ActionResponse{Applied: applied, Session: toSessionResponse(t.Snapshot())}
	if err != nil {
		resp.Warning = "statistics could not be saved"
	}
	respondJSON(w, http.StatusOK, resp)
}

// nextQuestion advances past a checked question.
// @Summary      Next question
// @Tags         Quiz
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  ActionResponse
// @Failure      404        {object}  map[string]string
// @Router       /sessions/{sessionID}/next [post]
func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}
	applied := t.Advance()
	respondJSON(w, http.StatusOK, ActionResponse{Applied: applied, Session: toSessionResponse(t.Snapshot())})
}

// getSessionStats reports stored statistics for the session's dataset.
// @Summary      Dataset statistics
// @Description  Per-question counters and weakness scores, in dataset order.
// @Tags         Stats
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  DatasetStatsResponse
// @Failure      404        {object}  map[string]string
// @Failure      409        {object}  map[string]string  "no dataset loaded"
// @Router       /sessions/{sessionID}/stats [get]
func (h *Handler) getSessionStats(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trainer(w, r)
	if !ok {
		return
	}
	report, err := t.DatasetStats(r.Context())
	if h.handleError(w, err, "stats") {
		return
	}
	respondJSON(w, http.StatusOK, toDatasetStatsResponse(report))
}
