package model

import "time"

// Approval statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
	ApprovalExpired  = "expired"
)

// Approval is a pending decision gating an environment's provisioning.
type Approval struct {
	ID            string     `json:"id"`
	EnvironmentID string     `json:"environment_id"`
	RequestedBy   string     `json:"requested_by,omitempty"`
	DecidedBy     string     `json:"decided_by,omitempty"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	RequestedAt   time.Time  `json:"requested_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
}

// ApprovalFilter holds filter criteria for listing approvals.
type ApprovalFilter struct {
	Status        string
	EnvironmentID string
}
