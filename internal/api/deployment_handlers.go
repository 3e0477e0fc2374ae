package api

import (
	"errors"
	"net/http"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

// listDeployments handles GET /api/deployments
func (h *Handler) listDeployments(w http.ResponseWriter, r *http.Request) {
	depStorage, ok := h.storage.(storage.DeploymentStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "deployments are not supported by this storage backend")
		return
	}

	q := r.URL.Query()
	filter := &model.DeploymentFilter{
		EnvironmentID: q.Get("environment_id"),
		Status:        q.Get("status"),
	}

	deployments, err := depStorage.ListDeployments(filter)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, deployments)
}

// getDeployment handles GET /api/deployments/{id}
func (h *Handler) getDeployment(w http.ResponseWriter, r *http.Request) {
	depStorage, ok := h.storage.(storage.DeploymentStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "deployments are not supported by this storage backend")
		return
	}

	id := r.PathValue("id")
	deployment, err := depStorage.GetDeployment(id)
	if err != nil {
		if errors.Is(err, storage.ErrDeploymentNotFound) {
			h.writeError(w, http.StatusNotFound, "deployment not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, deployment)
}

// cancelDeployment handles POST /api/deployments/{id}/cancel
func (h *Handler) cancelDeployment(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		h.writeError(w, http.StatusNotImplemented, "no provisioning engine configured")
		return
	}

	id := r.PathValue("id")
	if err := h.engine.Cancel(id); err != nil {
		if errors.Is(err, storage.ErrDeploymentNotFound) {
			h.writeError(w, http.StatusNotFound, "deployment not found")
			return
		}
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	depStorage, ok := h.storage.(storage.DeploymentStorage)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	deployment, err := depStorage.GetDeployment(id)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, deployment)
}
