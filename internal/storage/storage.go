package storage

import (
	"errors"
	"time"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
)

var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrEnvironmentNotFound = errors.New("environment not found")
	ErrDeploymentNotFound  = errors.New("deployment not found")
	ErrApprovalNotFound    = errors.New("approval not found")
	ErrOperatorNotFound    = errors.New("operator not found")
	ErrInvalidID           = errors.New("invalid ID")
)

// Storage defines the interface for template storage, the service's primary
// entity. Additional capabilities are expressed as separate interfaces so
// handlers can probe for them.
type Storage interface {
	ListTemplates(filter *model.TemplateFilter) ([]model.Template, error)
	GetTemplate(id string) (*model.Template, error)
	CreateTemplate(t *model.Template) error
	UpdateTemplate(t *model.Template) error
	DeleteTemplate(id string) error
	Search(query string) (*model.SearchResults, error)
}

// EnvironmentStorage stores environments and their lifecycle state.
type EnvironmentStorage interface {
	ListEnvironments(filter *model.EnvironmentFilter) ([]model.Environment, error)
	GetEnvironment(id string) (*model.Environment, error)
	CreateEnvironment(e *model.Environment) error
	UpdateEnvironment(e *model.Environment) error
	SetEnvironmentStatus(id, status string) error
	DeleteEnvironment(id string) error
}

// DeploymentStorage stores deployment runs and their progress.
type DeploymentStorage interface {
	ListDeployments(filter *model.DeploymentFilter) ([]model.Deployment, error)
	GetDeployment(id string) (*model.Deployment, error)
	CreateDeployment(d *model.Deployment) error
	UpdateDeployment(d *model.Deployment) error
}

// ApprovalStorage stores approval requests.
type ApprovalStorage interface {
	ListApprovals(filter *model.ApprovalFilter) ([]model.Approval, error)
	GetApproval(id string) (*model.Approval, error)
	CreateApproval(a *model.Approval) error
	UpdateApproval(a *model.Approval) error
	ExpireApprovalsBefore(cutoff time.Time) (int, error)
}

// CostStorage stores accrued cost records.
type CostStorage interface {
	AddCostRecord(c *model.CostRecord) error
	ListCostRecords(environmentID string) ([]model.CostRecord, error)
	CostSummaries() ([]model.CostSummary, error)
}

// OperatorStorage stores console operators.
type OperatorStorage interface {
	GetOperatorByName(name string) (*model.Operator, error)
	CreateOperator(o *model.Operator) error
	ListOperators() ([]model.Operator, error)
}
