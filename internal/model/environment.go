package model

import "time"

// Environment statuses.
const (
	EnvPendingApproval = "pending_approval"
	EnvRejected        = "rejected"
	EnvProvisioning    = "provisioning"
	EnvRunning         = "running"
	EnvFailed          = "failed"
	EnvDeleting        = "deleting"
	EnvDeleted         = "deleted"
)

// Environment is a provisioned (or provisioning) instance of a template.
type Environment struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	TemplateID string          `json:"template_id"`
	Region     string          `json:"region"`
	Owner      string          `json:"owner,omitempty"`
	Status     string          `json:"status"`
	Network    *NetworkProfile `json:"network,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// EnvironmentFilter holds filter criteria for listing environments.
type EnvironmentFilter struct {
	Status     string
	TemplateID string
	Owner      string
}
