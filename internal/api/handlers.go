package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/log"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/manifest"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

// Engine starts and cancels deployment runs. The provisioner implements it;
// tests substitute a stub.
type Engine interface {
	Enqueue(environmentID string) (*model.Deployment, error)
	Cancel(deploymentID string) error
}

// Handler handles HTTP requests
type Handler struct {
	storage     storage.Storage
	engine      Engine
	approvalTTL time.Duration
}

// NewHandler creates a new API handler
func NewHandler(s storage.Storage, engine Engine, approvalTTL time.Duration) *Handler {
	if approvalTTL <= 0 {
		approvalTTL = 72 * time.Hour
	}
	return &Handler{storage: s, engine: engine, approvalTTL: approvalTTL}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Template CRUD
	mux.HandleFunc("GET /api/templates", h.listTemplates)
	mux.HandleFunc("POST /api/templates", h.createTemplate)
	mux.HandleFunc("GET /api/templates/{id}", h.getTemplate)
	mux.HandleFunc("PUT /api/templates/{id}", h.updateTemplate)
	mux.HandleFunc("DELETE /api/templates/{id}", h.deleteTemplate)
	mux.HandleFunc("GET /api/templates/{id}/manifest", h.exportTemplate)
	mux.HandleFunc("POST /api/templates/import", h.importTemplate)

	// Environments
	mux.HandleFunc("GET /api/environments", h.listEnvironments)
	mux.HandleFunc("POST /api/environments", h.createEnvironment)
	mux.HandleFunc("GET /api/environments/{id}", h.getEnvironment)
	mux.HandleFunc("DELETE /api/environments/{id}", h.deleteEnvironment)
	mux.HandleFunc("GET /api/environments/{id}/deployments", h.getEnvironmentDeployments)
	mux.HandleFunc("GET /api/environments/{id}/costs", h.getEnvironmentCosts)

	// Deployments
	mux.HandleFunc("GET /api/deployments", h.listDeployments)
	mux.HandleFunc("GET /api/deployments/{id}", h.getDeployment)
	mux.HandleFunc("POST /api/deployments/{id}/cancel", h.cancelDeployment)

	// Approvals
	mux.HandleFunc("GET /api/approvals", h.listApprovals)
	mux.HandleFunc("GET /api/approvals/{id}", h.getApproval)
	mux.HandleFunc("POST /api/approvals/{id}/approve", h.approveApproval)
	mux.HandleFunc("POST /api/approvals/{id}/reject", h.rejectApproval)

	// Costs
	mux.HandleFunc("GET /api/costs/summary", h.getCostSummary)

	// Search
	mux.HandleFunc("GET /api/search", h.search)

	// Network form support
	mux.HandleFunc("POST /api/network/validate", h.validateNetwork)
	mux.HandleFunc("POST /api/network/next-subnet", h.nextSubnet)
	mux.HandleFunc("GET /api/network/recommendations", h.getSizeRecommendation)
}

// listTemplates handles GET /api/templates
func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &model.TemplateFilter{
		Provider: q.Get("provider"),
		Platform: q.Get("platform"),
		Format:   q.Get("format"),
		Tag:      q.Get("tag"),
	}

	templates, err := h.storage.ListTemplates(filter)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, templates)
}

// getTemplate handles GET /api/templates/{id}
func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "template ID required")
		return
	}

	template, err := h.storage.GetTemplate(id)
	if err != nil {
		if errors.Is(err, storage.ErrTemplateNotFound) {
			h.writeError(w, http.StatusNotFound, "template not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, template)
}

// createTemplate handles POST /api/templates
func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var template model.Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if msg := validateTemplate(&template); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if template.ID == "" {
		template.ID = generateID()
	}

	if err := h.storage.CreateTemplate(&template); err != nil {
		if errors.Is(err, storage.ErrInvalidID) {
			h.writeError(w, http.StatusBadRequest, "invalid template ID")
			return
		}
		if isUniqueViolation(err) {
			h.writeError(w, http.StatusConflict, "template already exists")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, template)
}

// updateTemplate handles PUT /api/templates/{id}
func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "template ID required")
		return
	}

	var template model.Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if msg := validateTemplate(&template); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	// Ensure ID matches URL
	template.ID = id

	if err := h.storage.UpdateTemplate(&template); err != nil {
		if errors.Is(err, storage.ErrTemplateNotFound) {
			h.writeError(w, http.StatusNotFound, "template not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, template)
}

// deleteTemplate handles DELETE /api/templates/{id}
func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "template ID required")
		return
	}

	if err := h.storage.DeleteTemplate(id); err != nil {
		if errors.Is(err, storage.ErrTemplateNotFound) {
			h.writeError(w, http.StatusNotFound, "template not found")
			return
		}
		h.internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// exportTemplate handles GET /api/templates/{id}/manifest
func (h *Handler) exportTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	template, err := h.storage.GetTemplate(id)
	if err != nil {
		if errors.Is(err, storage.ErrTemplateNotFound) {
			h.writeError(w, http.StatusNotFound, "template not found")
			return
		}
		h.internalError(w, err)
		return
	}

	m, err := manifest.FromTemplate(template)
	if err != nil {
		h.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if err := m.Encode(w); err != nil {
		log.Error("writing manifest", "template", id, "error", err)
	}
}

// importTemplate handles POST /api/templates/import
func (h *Handler) importTemplate(w http.ResponseWriter, r *http.Request) {
	m, err := manifest.Decode(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	template, err := m.Template()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	template.ID = generateID()

	if err := h.storage.CreateTemplate(template); err != nil {
		if isUniqueViolation(err) {
			h.writeError(w, http.StatusConflict, "template already exists")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, template)
}

// search handles GET /api/search?q=
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "search query required")
		return
	}

	results, err := h.storage.Search(query)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, results)
}

func validateTemplate(t *model.Template) string {
	if t.Name == "" {
		return "name is required"
	}
	if !model.ValidProvider(t.Provider) {
		return "unsupported provider: " + t.Provider
	}
	if !model.ValidPlatform(t.Platform) {
		return "unsupported platform: " + t.Platform
	}
	if !model.ValidFormat(t.Format) {
		return "unsupported format: " + t.Format
	}
	if t.Parameters.Platform != "" && t.Parameters.Platform != t.Platform {
		return "parameters platform does not match template platform"
	}
	return ""
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeValidationError writes a 400 carrying every finding. The first one
// doubles as the short error message for clients that show a single line.
func (h *Handler) writeValidationError(w http.ResponseWriter, findings []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  findings[0],
		"errors": findings,
	})
}

// internalError logs the error and writes a generic 500 response
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("internal server error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

// generateID generates a UUIDv7
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
