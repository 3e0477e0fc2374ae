package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/netcalc"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

type createEnvironmentRequest struct {
	Name       string                `json:"name"`
	TemplateID string                `json:"template_id"`
	Region     string                `json:"region"`
	Owner      string                `json:"owner"`
	Network    *model.NetworkProfile `json:"network,omitempty"`
}

type createEnvironmentResponse struct {
	Environment *model.Environment `json:"environment"`
	Approval    *model.Approval    `json:"approval,omitempty"`
	Deployment  *model.Deployment  `json:"deployment,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// listEnvironments handles GET /api/environments
func (h *Handler) listEnvironments(w http.ResponseWriter, r *http.Request) {
	envStorage, ok := h.storage.(storage.EnvironmentStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "environments are not supported by this storage backend")
		return
	}

	q := r.URL.Query()
	filter := &model.EnvironmentFilter{
		Status:     q.Get("status"),
		TemplateID: q.Get("template_id"),
		Owner:      q.Get("owner"),
	}

	envs, err := envStorage.ListEnvironments(filter)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envs)
}

// getEnvironment handles GET /api/environments/{id}
func (h *Handler) getEnvironment(w http.ResponseWriter, r *http.Request) {
	envStorage, ok := h.storage.(storage.EnvironmentStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "environments are not supported by this storage backend")
		return
	}

	id := r.PathValue("id")
	env, err := envStorage.GetEnvironment(id)
	if err != nil {
		if errors.Is(err, storage.ErrEnvironmentNotFound) {
			h.writeError(w, http.StatusNotFound, "environment not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, env)
}

// createEnvironment handles POST /api/environments. The network profile is
// validated before anything is persisted; templates that require approval
// create the environment as pending_approval with an open approval request,
// everything else goes straight to the provisioning queue.
func (h *Handler) createEnvironment(w http.ResponseWriter, r *http.Request) {
	envStorage, ok := h.storage.(storage.EnvironmentStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "environments are not supported by this storage backend")
		return
	}

	var req createEnvironmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.TemplateID == "" {
		h.writeError(w, http.StatusBadRequest, "template_id is required")
		return
	}

	template, err := h.storage.GetTemplate(req.TemplateID)
	if err != nil {
		if errors.Is(err, storage.ErrTemplateNotFound) {
			h.writeError(w, http.StatusBadRequest, "template not found: "+req.TemplateID)
			return
		}
		h.internalError(w, err)
		return
	}

	// Request-level network overrides the template's profile
	network := req.Network
	if network == nil {
		network = template.Parameters.Network()
	}

	var warnings []string
	if network != nil {
		findings, warns := checkNetworkProfile(network)
		if len(findings) > 0 {
			h.writeValidationError(w, findings)
			return
		}
		warnings = warns
	}

	env := &model.Environment{
		ID:         generateID(),
		Name:       req.Name,
		TemplateID: template.ID,
		Region:     req.Region,
		Owner:      req.Owner,
		Network:    network,
	}

	resp := createEnvironmentResponse{Environment: env, Warnings: warnings}

	if template.RequiresApproval {
		approvalStorage, ok := h.storage.(storage.ApprovalStorage)
		if !ok {
			h.writeError(w, http.StatusNotImplemented, "approvals are not supported by this storage backend")
			return
		}

		env.Status = model.EnvPendingApproval
		if err := envStorage.CreateEnvironment(env); err != nil {
			if isUniqueViolation(err) {
				h.writeError(w, http.StatusConflict, "environment already exists")
				return
			}
			h.internalError(w, err)
			return
		}

		approval := &model.Approval{
			ID:            generateID(),
			EnvironmentID: env.ID,
			RequestedBy:   req.Owner,
			Status:        model.ApprovalPending,
			ExpiresAt:     time.Now().Add(h.approvalTTL),
		}
		if err := approvalStorage.CreateApproval(approval); err != nil {
			h.internalError(w, err)
			return
		}
		resp.Approval = approval
	} else {
		// Without an engine the environment would sit in provisioning with
		// nothing to advance it, so refuse up front.
		if h.engine == nil {
			h.writeError(w, http.StatusNotImplemented, "no provisioning engine configured")
			return
		}

		env.Status = model.EnvProvisioning
		if err := envStorage.CreateEnvironment(env); err != nil {
			if isUniqueViolation(err) {
				h.writeError(w, http.StatusConflict, "environment already exists")
				return
			}
			h.internalError(w, err)
			return
		}

		deployment, err := h.engine.Enqueue(env.ID)
		if err != nil {
			h.internalError(w, err)
			return
		}
		resp.Deployment = deployment
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// deleteEnvironment handles DELETE /api/environments/{id}. The environment is
// marked deleting; the background sweep finalizes it.
func (h *Handler) deleteEnvironment(w http.ResponseWriter, r *http.Request) {
	envStorage, ok := h.storage.(storage.EnvironmentStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "environments are not supported by this storage backend")
		return
	}

	id := r.PathValue("id")
	env, err := envStorage.GetEnvironment(id)
	if err != nil {
		if errors.Is(err, storage.ErrEnvironmentNotFound) {
			h.writeError(w, http.StatusNotFound, "environment not found")
			return
		}
		h.internalError(w, err)
		return
	}

	if env.Status == model.EnvDeleting || env.Status == model.EnvDeleted {
		h.writeJSON(w, http.StatusOK, env)
		return
	}

	if err := envStorage.SetEnvironmentStatus(env.ID, model.EnvDeleting); err != nil {
		h.internalError(w, err)
		return
	}
	env.Status = model.EnvDeleting

	h.writeJSON(w, http.StatusAccepted, env)
}

// getEnvironmentDeployments handles GET /api/environments/{id}/deployments
func (h *Handler) getEnvironmentDeployments(w http.ResponseWriter, r *http.Request) {
	depStorage, ok := h.storage.(storage.DeploymentStorage)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "deployments are not supported by this storage backend")
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

	deployments, err := depStorage.ListDeployments(&model.DeploymentFilter{EnvironmentID: env.ID})
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, deployments)
}

// requireEnvironment resolves an environment by ID or name.
func (h *Handler) requireEnvironment(id string) (*model.Environment, error) {
	envStorage, ok := h.storage.(storage.EnvironmentStorage)
	if !ok {
		return nil, storage.ErrEnvironmentNotFound
	}
	return envStorage.GetEnvironment(id)
}

// checkNetworkProfile runs the CIDR validator over a network profile. Errors
// block creation; undersized subnets only warn.
func checkNetworkProfile(n *model.NetworkProfile) (findings, warnings []string) {
	if n.VNetName != "" && !netcalc.IsValidVNetName(n.VNetName) {
		findings = append(findings, "invalid virtual network name: "+n.VNetName)
	}

	subnets := make([]netcalc.Subnet, len(n.Subnets))
	for i, s := range n.Subnets {
		subnets[i] = netcalc.Subnet{Name: s.Name, AddressPrefix: s.AddressPrefix, Purpose: s.Purpose}
	}

	result := netcalc.ValidateSubnets(subnets, n.AddressSpace)
	findings = append(findings, result.Errors...)

	for _, s := range n.Subnets {
		if s.Purpose == "" {
			continue
		}
		if !netcalc.IsSubnetSizeSufficient(s.AddressPrefix, s.Purpose) {
			warnings = append(warnings, "subnet "+s.Name+" may be too small for "+s.Purpose+": "+netcalc.SizeRecommendation(s.Purpose))
		}
	}

	return findings, warnings
}
