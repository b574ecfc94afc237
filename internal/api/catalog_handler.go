package api

import (
	"net/http"

	"github.com/denkain-drill/backend/internal/domain/catalog"
)

// getCatalog lists the selectable datasets.
// @Summary      Get the catalog
// @Description  Years, terms and subjects with the default selection and the available modes.
// @Tags         Catalog
// @Produce      json
// @Success      200  {object}  CatalogResponse
// @Failure      502  {object}  map[string]string  "catalog could not be loaded"
// @Router       /catalog [get]
func (h *Handler) getCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Catalog(r.Context())
	if h.handleError(w, err, "catalog") {
		return
	}

	resp := CatalogResponse{Years: c.Years, Modes: modeResponses()}
	if first, ok := c.First(); ok {
		resp.Default = &first
	}
	if resp.Years == nil {
		resp.Years = []catalog.Year{}
	}
	respondJSON(w, http.StatusOK, resp)
}
