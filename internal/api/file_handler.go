package api

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"

	"github.com/denkain-drill/backend/internal/source"
)

// filesPrefix is where data-root files (datasets, question images) are served.
const filesPrefix = "/files/"

// fileURL maps a data-root path, as written in a dataset, to its URL on this
// server. Invalid paths yield "".
func fileURL(p string) string {
	if p == "" {
		return ""
	}
	name, err := source.CleanPath(p)
	if err != nil {
		return ""
	}
	return filesPrefix + name
}

// getFile serves a file from the data root through the same fetcher the
// datasets are loaded with, so precached files stay reachable offline.
// @Summary      Get a data file
// @Description  Serves catalog, dataset and image files relative to the data root.
// @Tags         Files
// @Produce      octet-stream
// @Param        path  path      string  true  "Path below the data root"
// @Success      200   {file}    file
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /files/{path} [get]
func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}

	name, err := source.CleanPath(r.PathValue("path"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid path")
		return
	}

	data, err := h.files.Fetch(r.Context(), name)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		respondError(w, http.StatusNotFound, "file not found")
		return
	case errors.Is(err, source.ErrInvalidPath):
		respondError(w, http.StatusBadRequest, "invalid path")
		return
	default:
		h.logger.Warn("file fetch failed", "path", name, "error", err)
		respondError(w, http.StatusBadGateway, "file unavailable")
		return
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
