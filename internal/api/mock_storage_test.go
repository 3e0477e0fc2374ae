package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

// mockStorage is a simple in-memory storage for testing
type mockStorage struct {
	templates    map[string]*model.Template
	environments map[string]*model.Environment
	deployments  map[string]*model.Deployment
	approvals    map[string]*model.Approval
	costs        []model.CostRecord
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		templates:    make(map[string]*model.Template),
		environments: make(map[string]*model.Environment),
		deployments:  make(map[string]*model.Deployment),
		approvals:    make(map[string]*model.Approval),
	}
}

// Template storage

func (m *mockStorage) ListTemplates(filter *model.TemplateFilter) ([]model.Template, error) {
	result := make([]model.Template, 0, len(m.templates))
	for _, t := range m.templates {
		if filter != nil {
			if filter.Provider != "" && t.Provider != filter.Provider {
				continue
			}
			if filter.Platform != "" && t.Platform != filter.Platform {
				continue
			}
			if filter.Format != "" && t.Format != filter.Format {
				continue
			}
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockStorage) GetTemplate(id string) (*model.Template, error) {
	if t, ok := m.templates[id]; ok {
		clone := *t
		return &clone, nil
	}
	for _, t := range m.templates {
		if strings.EqualFold(t.Name, id) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, storage.ErrTemplateNotFound
}

func (m *mockStorage) CreateTemplate(t *model.Template) error {
	for _, existing := range m.templates {
		if existing.Name == t.Name {
			return fmt.Errorf("UNIQUE constraint failed: templates.name")
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.UpdatedAt = time.Now()
	clone := *t
	m.templates[t.ID] = &clone
	return nil
}

func (m *mockStorage) UpdateTemplate(t *model.Template) error {
	if _, ok := m.templates[t.ID]; !ok {
		return storage.ErrTemplateNotFound
	}
	t.UpdatedAt = time.Now()
	clone := *t
	m.templates[t.ID] = &clone
	return nil
}

func (m *mockStorage) DeleteTemplate(id string) error {
	if _, ok := m.templates[id]; !ok {
		return storage.ErrTemplateNotFound
	}
	delete(m.templates, id)
	return nil
}

func (m *mockStorage) Search(query string) (*model.SearchResults, error) {
	results := &model.SearchResults{
		Templates:    []model.Template{},
		Environments: []model.Environment{},
		Deployments:  []model.Deployment{},
	}
	q := strings.ToLower(query)
	for _, t := range m.templates {
		if strings.Contains(strings.ToLower(t.Name), q) {
			results.Templates = append(results.Templates, *t)
		}
	}
	for _, e := range m.environments {
		if strings.Contains(strings.ToLower(e.Name), q) {
			results.Environments = append(results.Environments, *e)
		}
	}
	return results, nil
}

// Environment storage

func (m *mockStorage) ListEnvironments(filter *model.EnvironmentFilter) ([]model.Environment, error) {
	result := make([]model.Environment, 0, len(m.environments))
	for _, e := range m.environments {
		if filter != nil && filter.Status != "" && e.Status != filter.Status {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockStorage) GetEnvironment(id string) (*model.Environment, error) {
	if e, ok := m.environments[id]; ok {
		clone := *e
		return &clone, nil
	}
	for _, e := range m.environments {
		if strings.EqualFold(e.Name, id) {
			clone := *e
			return &clone, nil
		}
	}
	return nil, storage.ErrEnvironmentNotFound
}

func (m *mockStorage) CreateEnvironment(e *model.Environment) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.UpdatedAt = time.Now()
	clone := *e
	m.environments[e.ID] = &clone
	return nil
}

func (m *mockStorage) UpdateEnvironment(e *model.Environment) error {
	if _, ok := m.environments[e.ID]; !ok {
		return storage.ErrEnvironmentNotFound
	}
	clone := *e
	m.environments[e.ID] = &clone
	return nil
}

func (m *mockStorage) SetEnvironmentStatus(id, status string) error {
	e, ok := m.environments[id]
	if !ok {
		return storage.ErrEnvironmentNotFound
	}
	e.Status = status
	return nil
}

func (m *mockStorage) DeleteEnvironment(id string) error {
	if _, ok := m.environments[id]; !ok {
		return storage.ErrEnvironmentNotFound
	}
	delete(m.environments, id)
	return nil
}

// Deployment storage

func (m *mockStorage) ListDeployments(filter *model.DeploymentFilter) ([]model.Deployment, error) {
	result := make([]model.Deployment, 0, len(m.deployments))
	for _, d := range m.deployments {
		if filter != nil && filter.EnvironmentID != "" && d.EnvironmentID != filter.EnvironmentID {
			continue
		}
		if filter != nil && filter.Status != "" && d.Status != filter.Status {
			continue
		}
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockStorage) GetDeployment(id string) (*model.Deployment, error) {
	if d, ok := m.deployments[id]; ok {
		clone := *d
		return &clone, nil
	}
	return nil, storage.ErrDeploymentNotFound
}

func (m *mockStorage) CreateDeployment(d *model.Deployment) error {
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}
	clone := *d
	m.deployments[d.ID] = &clone
	return nil
}

func (m *mockStorage) UpdateDeployment(d *model.Deployment) error {
	if _, ok := m.deployments[d.ID]; !ok {
		return storage.ErrDeploymentNotFound
	}
	clone := *d
	m.deployments[d.ID] = &clone
	return nil
}

// Approval storage

func (m *mockStorage) ListApprovals(filter *model.ApprovalFilter) ([]model.Approval, error) {
	result := make([]model.Approval, 0, len(m.approvals))
	for _, a := range m.approvals {
		if filter != nil && filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter != nil && filter.EnvironmentID != "" && a.EnvironmentID != filter.EnvironmentID {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockStorage) GetApproval(id string) (*model.Approval, error) {
	if a, ok := m.approvals[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, storage.ErrApprovalNotFound
}

func (m *mockStorage) CreateApproval(a *model.Approval) error {
	if a.RequestedAt.IsZero() {
		a.RequestedAt = time.Now()
	}
	clone := *a
	m.approvals[a.ID] = &clone
	return nil
}

func (m *mockStorage) UpdateApproval(a *model.Approval) error {
	if _, ok := m.approvals[a.ID]; !ok {
		return storage.ErrApprovalNotFound
	}
	clone := *a
	m.approvals[a.ID] = &clone
	return nil
}

func (m *mockStorage) ExpireApprovalsBefore(cutoff time.Time) (int, error) {
	n := 0
	for _, a := range m.approvals {
		if a.Status == model.ApprovalPending && a.ExpiresAt.Before(cutoff) {
			a.Status = model.ApprovalExpired
			n++
		}
	}
	return n, nil
}

// Cost storage

func (m *mockStorage) AddCostRecord(c *model.CostRecord) error {
	m.costs = append(m.costs, *c)
	return nil
}

func (m *mockStorage) ListCostRecords(environmentID string) ([]model.CostRecord, error) {
	result := make([]model.CostRecord, 0)
	for _, c := range m.costs {
		if c.EnvironmentID == environmentID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockStorage) CostSummaries() ([]model.CostSummary, error) {
	byEnv := make(map[string]*model.CostSummary)
	for _, c := range m.costs {
		s, ok := byEnv[c.EnvironmentID]
		if !ok {
			s = &model.CostSummary{EnvironmentID: c.EnvironmentID, Currency: c.Currency}
			if e, ok := m.environments[c.EnvironmentID]; ok {
				s.EnvironmentName = e.Name
			}
			byEnv[c.EnvironmentID] = s
		}
		s.Total += c.Amount
		s.Records++
	}
	result := make([]model.CostSummary, 0, len(byEnv))
	for _, s := range byEnv {
		result = append(result, *s)
	}
	return result, nil
}

// mockEngine records enqueued environments and canceled deployments.
type mockEngine struct {
	enqueued []string
	canceled []string
	store    *mockStorage
}

func (e *mockEngine) Enqueue(environmentID string) (*model.Deployment, error) {
	e.enqueued = append(e.enqueued, environmentID)
	d := &model.Deployment{
		ID:            fmt.Sprintf("dep-%d", len(e.enqueued)),
		EnvironmentID: environmentID,
		Status:        model.DeployQueued,
		StartedAt:     time.Now(),
	}
	if e.store != nil {
		e.store.CreateDeployment(d)
	}
	return d, nil
}

func (e *mockEngine) Cancel(deploymentID string) error {
	if e.store != nil {
		d, err := e.store.GetDeployment(deploymentID)
		if err != nil {
			return err
		}
		if d.Terminal() {
			return fmt.Errorf("deployment %s is already %s", d.ID, d.Status)
		}
		d.Status = model.DeployCanceled
		e.store.UpdateDeployment(d)
	}
	e.canceled = append(e.canceled, deploymentID)
	return nil
}
