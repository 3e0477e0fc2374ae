package model

import "time"

// Deployment statuses. Queued, validating, deploying and configuring are
// transient; the rest are terminal.
const (
	DeployQueued      = "queued"
	DeployValidating  = "validating"
	DeployDeploying   = "deploying"
	DeployConfiguring = "configuring"
	DeploySucceeded   = "succeeded"
	DeployFailed      = "failed"
	DeployCanceled    = "canceled"
)

// Deployment tracks one provisioning run for an environment. The console
// polls deployments for status and progress.
type Deployment struct {
	ID            string     `json:"id"`
	EnvironmentID string     `json:"environment_id"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"` // 0..100
	Phase         string     `json:"phase,omitempty"`
	Message       string     `json:"message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// DeploymentFilter holds filter criteria for listing deployments.
type DeploymentFilter struct {
	EnvironmentID string
	Status        string
}

// Terminal reports whether the deployment has reached a final state.
func (d *Deployment) Terminal() bool {
	switch d.Status {
	case DeploySucceeded, DeployFailed, DeployCanceled:
		return true
	}
	return false
}
