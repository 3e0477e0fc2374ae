package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

type decisionRequest struct {
	DecidedBy string `json:"decided_by"`
	Reason    string `json:"reason,omitempty"`
}

type decisionResponse struct {
	Approval    *model.Approval    `json:"approval"`
	Environment *model.Environment `json:"environment,omitempty"`
	Deployment  *model.Deployment  `json:"deployment,omitempty"`
}

// listApprovals handles GET /api/approvals. Without an explicit status the
// console wants the work queue, so pending is the default.
func (h *Handler) listApprovals(w http.ResponseWriter, r *http.Request) {
	approvalStorage, ok := h.storage.(storage.ApprovalStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "approvals are not supported by this storage backend")
		return
	}

	q := r.URL.Query()
	status := q.Get("status")
	if status == "" {
		status = model.ApprovalPending
	}
	if status == "all" {
		status = ""
	}

	approvals, err := approvalStorage.ListApprovals(&model.ApprovalFilter{
		Status:        status,
		EnvironmentID: q.Get("environment_id"),
	})
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, approvals)
}

// getApproval handles GET /api/approvals/{id}
func (h *Handler) getApproval(w http.ResponseWriter, r *http.Request) {
	approvalStorage, ok := h.storage.(storage.ApprovalStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "approvals are not supported by this storage backend")
		return
	}

	approval, err := approvalStorage.GetApproval(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrApprovalNotFound) {
			h.writeError(w, http.StatusNotFound, "approval not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, approval)
}

// approveApproval handles POST /api/approvals/{id}/approve. The environment
// moves to provisioning and a deployment is queued with the engine.
func (h *Handler) approveApproval(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, model.ApprovalApproved)
}

// rejectApproval handles POST /api/approvals/{id}/reject
func (h *Handler) rejectApproval(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, model.ApprovalRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision string) {
	approvalStorage, ok := h.storage.(storage.ApprovalStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "approvals are not supported by this storage backend")
		return
	}
	envStorage, ok := h.storage.(storage.EnvironmentStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "environments are not supported by this storage backend")
		return
	}

	var req decisionRequest
	if r.Body != nil {
		// Body is optional for approve
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if decision == model.ApprovalRejected && req.Reason == "" {
		h.writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	approval, err := approvalStorage.GetApproval(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrApprovalNotFound) {
			h.writeError(w, http.StatusNotFound, "approval not found")
			return
		}
		h.internalError(w, err)
		return
	}

	if approval.Status != model.ApprovalPending {
		h.writeError(w, http.StatusConflict, "approval already "+approval.Status)
		return
	}
	if time.Now().After(approval.ExpiresAt) {
		h.writeError(w, http.StatusConflict, "approval has expired")
		return
	}

	now := time.Now()
	approval.Status = decision
	approval.DecidedBy = req.DecidedBy
	approval.Reason = req.Reason
	approval.DecidedAt = &now
	if err := approvalStorage.UpdateApproval(approval); err != nil {
		h.internalError(w, err)
		return
	}

	resp := decisionResponse{Approval: approval}

	envStatus := model.EnvRejected
	if decision == model.ApprovalApproved {
		envStatus = model.EnvProvisioning
	}
	if err := envStorage.SetEnvironmentStatus(approval.EnvironmentID, envStatus); err != nil {
		h.internalError(w, err)
		return
	}

	if decision == model.ApprovalApproved && h.engine != nil {
		deployment, err := h.engine.Enqueue(approval.EnvironmentID)
		if err != nil {
			h.internalError(w, err)
			return
		}
		resp.Deployment = deployment
	}

	if env, err := envStorage.GetEnvironment(approval.EnvironmentID); err == nil {
		resp.Environment = env
	}

	h.writeJSON(w, http.StatusOK, resp)
}
