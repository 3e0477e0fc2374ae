package model

import "time"

// Operator roles.
const (
	RoleAdmin    = "admin"
	RoleApprover = "approver"
	RoleViewer   = "viewer"
)

// Operator is a human user of the admin console. The token hash is a bcrypt
// digest of the operator's access token and never leaves the server.
type Operator struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidRole reports whether r is a known operator role.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleApprover || r == RoleViewer
}
