package api

import (
	"errors"
	"net/http"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

// getCostSummary handles GET /api/costs/summary
func (h *Handler) getCostSummary(w http.ResponseWriter, r *http.Request) {
	costStorage, ok := h.storage.(storage.CostStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "cost tracking is not supported by this storage backend")
		return
	}

	summaries, err := costStorage.CostSummaries()
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

// getEnvironmentCosts handles GET /api/environments/{id}/costs
func (h *Handler) getEnvironmentCosts(w http.ResponseWriter, r *http.Request) {
	costStorage, ok := h.storage.(storage.CostStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "cost tracking is not supported by this storage backend")
		return
	}

	env, err := h.requireEnvironment(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrEnvironmentNotFound) {
			h.writeError(w, http.StatusNotFound, "environment not found")
			return
		}
		h.internalError(w, err)
		return
	}

	records, err := costStorage.ListCostRecords(env.ID)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, records)
}
