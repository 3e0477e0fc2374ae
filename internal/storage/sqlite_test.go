package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	ss, err := NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { ss.Close() })
	return ss
}

func sampleTemplate(id, name string) *model.Template {
	return &model.Template{
		ID:       id,
		Name:     name,
		Provider: model.ProviderAzure,
		Platform: model.PlatformAKS,
		Format:   model.FormatBicep,
		Parameters: model.PlatformParameters{
			Platform: model.PlatformAKS,
			AKS: &model.AKSParameters{
				KubernetesVersion: "1.30",
				NodeCount:         3,
				NodeSize:          "Standard_D4s_v5",
				Network: &model.NetworkProfile{
					VNetName:     "vnet-prod",
					AddressSpace: "10.0.0.0/16",
					Subnets: []model.SubnetConfig{
						{Name: "snet-app", AddressPrefix: "10.0.1.0/24", Purpose: "Application"},
					},
				},
			},
		},
		RequiresApproval: true,
		Tags:             []string{"kubernetes", "production"},
	}
}

func TestTemplateLifecycle(t *testing.T) {
	ss := newTestStorage(t)

	tmpl := sampleTemplate("tmpl-1", "aks-standard")
	if err := ss.CreateTemplate(tmpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	got, err := ss.GetTemplate("tmpl-1")
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.Name != "aks-standard" {
		t.Errorf("name = %q, want aks-standard", got.Name)
	}
	if got.Parameters.AKS == nil {
		t.Fatal("AKS parameters not round-tripped")
	}
	if got.Parameters.AKS.NodeCount != 3 {
		t.Errorf("node count = %d, want 3", got.Parameters.AKS.NodeCount)
	}
	if net := got.Parameters.Network(); net == nil || net.AddressSpace != "10.0.0.0/16" {
		t.Errorf("network profile not round-tripped: %+v", net)
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", got.Tags)
	}

	// Lookup by name, case-insensitive
	byName, err := ss.GetTemplate("AKS-Standard")
	if err != nil {
		t.Fatalf("GetTemplate by name: %v", err)
	}
	if byName.ID != "tmpl-1" {
		t.Errorf("by-name lookup returned %s", byName.ID)
	}

	got.Description = "updated"
	got.Tags = []string{"kubernetes"}
	if err := ss.UpdateTemplate(got); err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}
	got, _ = ss.GetTemplate("tmpl-1")
	if got.Description != "updated" {
		t.Errorf("description = %q", got.Description)
	}
	if len(got.Tags) != 1 {
		t.Errorf("tags after update = %v", got.Tags)
	}

	if err := ss.DeleteTemplate("tmpl-1"); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if _, err := ss.GetTemplate("tmpl-1"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
	if err := ss.DeleteTemplate("tmpl-1"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("double delete: expected ErrTemplateNotFound, got %v", err)
	}
}

func TestTemplateWithoutParameters(t *testing.T) {
	ss := newTestStorage(t)

	tmpl := &model.Template{
		ID:       "tmpl-bare",
		Name:     "bare",
		Provider: model.ProviderAzure,
		Platform: model.PlatformAKS,
		Format:   model.FormatBicep,
	}
	if err := ss.CreateTemplate(tmpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	got, err := ss.GetTemplate("tmpl-bare")
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.Parameters.Platform != "" {
		t.Errorf("parameters platform = %q, want empty", got.Parameters.Platform)
	}

	// The bare template must not poison the list either
	templates, err := ss.ListTemplates(nil)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 1 {
		t.Errorf("expected 1 template, got %d", len(templates))
	}
}

func TestListTemplatesFilter(t *testing.T) {
	ss := newTestStorage(t)

	a := sampleTemplate("tmpl-a", "aks-standard")
	b := sampleTemplate("tmpl-b", "lambda-api")
	b.Provider = model.ProviderAWS
	b.Platform = model.PlatformLambda
	b.Format = model.FormatTerraform
	b.Parameters = model.PlatformParameters{
		Platform: model.PlatformLambda,
		Lambda:   &model.LambdaParameters{Runtime: "go1.x", MemoryMB: 256},
	}
	b.Tags = []string{"serverless"}

	for _, tmpl := range []*model.Template{a, b} {
		if err := ss.CreateTemplate(tmpl); err != nil {
			t.Fatalf("CreateTemplate(%s): %v", tmpl.ID, err)
		}
	}

	all, err := ss.ListTemplates(nil)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d templates, want 2", len(all))
	}

	aws, err := ss.ListTemplates(&model.TemplateFilter{Provider: model.ProviderAWS})
	if err != nil {
		t.Fatalf("ListTemplates(aws): %v", err)
	}
	if len(aws) != 1 || aws[0].ID != "tmpl-b" {
		t.Errorf("provider filter returned %+v", aws)
	}

	tagged, err := ss.ListTemplates(&model.TemplateFilter{Tag: "production"})
	if err != nil {
		t.Fatalf("ListTemplates(tag): %v", err)
	}
	if len(tagged) != 1 || tagged[0].ID != "tmpl-a" {
		t.Errorf("tag filter returned %+v", tagged)
	}
}

func TestEnvironmentLifecycle(t *testing.T) {
	ss := newTestStorage(t)

	tmpl := sampleTemplate("tmpl-1", "aks-standard")
	if err := ss.CreateTemplate(tmpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	env := &model.Environment{
		ID:         "env-1",
		Name:       "payments-dev",
		TemplateID: "tmpl-1",
		Region:     "westeurope",
		Owner:      "alice",
		Status:     model.EnvPendingApproval,
		Network: &model.NetworkProfile{
			VNetName:     "vnet-payments",
			AddressSpace: "10.1.0.0/16",
		},
	}
	if err := ss.CreateEnvironment(env); err != nil {
		t.Fatalf("CreateEnvironment: %v", err)
	}

	got, err := ss.GetEnvironment("payments-dev")
	if err != nil {
		t.Fatalf("GetEnvironment by name: %v", err)
	}
	if got.Network == nil || got.Network.VNetName != "vnet-payments" {
		t.Errorf("network not round-tripped: %+v", got.Network)
	}

	if err := ss.SetEnvironmentStatus("env-1", model.EnvProvisioning); err != nil {
		t.Fatalf("SetEnvironmentStatus: %v", err)
	}
	got, _ = ss.GetEnvironment("env-1")
	if got.Status != model.EnvProvisioning {
		t.Errorf("status = %q", got.Status)
	}

	byStatus, err := ss.ListEnvironments(&model.EnvironmentFilter{Status: model.EnvProvisioning})
	if err != nil {
		t.Fatalf("ListEnvironments: %v", err)
	}
	if len(byStatus) != 1 {
		t.Errorf("status filter returned %d environments", len(byStatus))
	}

	if err := ss.SetEnvironmentStatus("missing", model.EnvRunning); !errors.Is(err, ErrEnvironmentNotFound) {
		t.Errorf("expected ErrEnvironmentNotFound, got %v", err)
	}

	if err := ss.DeleteEnvironment("env-1"); err != nil {
		t.Fatalf("DeleteEnvironment: %v", err)
	}
	if _, err := ss.GetEnvironment("env-1"); !errors.Is(err, ErrEnvironmentNotFound) {
		t.Errorf("expected ErrEnvironmentNotFound, got %v", err)
	}
}

func TestDeploymentLifecycle(t *testing.T) {
	ss := newTestStorage(t)
	seedEnvironment(t, ss, "env-1")

	d := &model.Deployment{
		ID:            "dep-1",
		EnvironmentID: "env-1",
		Status:        model.DeployQueued,
	}
	if err := ss.CreateDeployment(d); err != nil {
		t.Fatalf("CreateDeployment: %v", err)
	}
	if d.StartedAt.IsZero() {
		t.Error("StartedAt not defaulted")
	}

	now := time.Now()
	d.Status = model.DeploySucceeded
	d.Progress = 100
	d.Phase = "configuring"
	d.FinishedAt = &now
	if err := ss.UpdateDeployment(d); err != nil {
		t.Fatalf("UpdateDeployment: %v", err)
	}

	got, err := ss.GetDeployment("dep-1")
	if err != nil {
		t.Fatalf("GetDeployment: %v", err)
	}
	if got.Status != model.DeploySucceeded || got.Progress != 100 {
		t.Errorf("got %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt not persisted")
	}

	list, err := ss.ListDeployments(&model.DeploymentFilter{EnvironmentID: "env-1"})
	if err != nil {
		t.Fatalf("ListDeployments: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d deployments", len(list))
	}
}

func TestApprovalExpiry(t *testing.T) {
	ss := newTestStorage(t)
	seedEnvironment(t, ss, "env-1")

	stale := &model.Approval{
		ID:            "apr-1",
		EnvironmentID: "env-1",
		RequestedBy:   "alice",
		Status:        model.ApprovalPending,
		ExpiresAt:     time.Now().Add(-time.Hour),
	}
	fresh := &model.Approval{
		ID:            "apr-2",
		EnvironmentID: "env-1",
		RequestedBy:   "bob",
		Status:        model.ApprovalPending,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	for _, a := range []*model.Approval{stale, fresh} {
		if err := ss.CreateApproval(a); err != nil {
			t.Fatalf("CreateApproval(%s): %v", a.ID, err)
		}
	}

	n, err := ss.ExpireApprovalsBefore(time.Now())
	if err != nil {
		t.Fatalf("ExpireApprovalsBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("expired %d approvals, want 1", n)
	}

	got, err := ss.GetApproval("apr-1")
	if err != nil {
		t.Fatalf("GetApproval: %v", err)
	}
	if got.Status != model.ApprovalExpired {
		t.Errorf("stale approval status = %q", got.Status)
	}
	if got.DecidedAt == nil {
		t.Error("expired approval missing decided_at")
	}

	got, _ = ss.GetApproval("apr-2")
	if got.Status != model.ApprovalPending {
		t.Errorf("fresh approval status = %q", got.Status)
	}

	pending, err := ss.ListApprovals(&model.ApprovalFilter{Status: model.ApprovalPending})
	if err != nil {
		t.Fatalf("ListApprovals: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "apr-2" {
		t.Errorf("pending approvals = %+v", pending)
	}
}

func TestApprovalDecision(t *testing.T) {
	ss := newTestStorage(t)
	seedEnvironment(t, ss, "env-1")

	a := &model.Approval{
		ID:            "apr-1",
		EnvironmentID: "env-1",
		RequestedBy:   "alice",
		Status:        model.ApprovalPending,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	if err := ss.CreateApproval(a); err != nil {
		t.Fatalf("CreateApproval: %v", err)
	}

	now := time.Now()
	a.Status = model.ApprovalApproved
	a.DecidedBy = "carol"
	a.DecidedAt = &now
	if err := ss.UpdateApproval(a); err != nil {
		t.Fatalf("UpdateApproval: %v", err)
	}

	got, err := ss.GetApproval("apr-1")
	if err != nil {
		t.Fatalf("GetApproval: %v", err)
	}
	if got.Status != model.ApprovalApproved || got.DecidedBy != "carol" {
		t.Errorf("got %+v", got)
	}
}

func TestCostRecordsAndSummaries(t *testing.T) {
	ss := newTestStorage(t)
	seedEnvironment(t, ss, "env-1")

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []*model.CostRecord{
		{ID: "cost-1", EnvironmentID: "env-1", Service: "compute", Amount: 120.50, Currency: "USD", PeriodStart: start, PeriodEnd: start.AddDate(0, 0, 1)},
		{ID: "cost-2", EnvironmentID: "env-1", Service: "storage", Amount: 9.25, Currency: "USD", PeriodStart: start, PeriodEnd: start.AddDate(0, 0, 1)},
	}
	for _, c := range records {
		if err := ss.AddCostRecord(c); err != nil {
			t.Fatalf("AddCostRecord(%s): %v", c.ID, err)
		}
	}

	list, err := ss.ListCostRecords("env-1")
	if err != nil {
		t.Fatalf("ListCostRecords: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d records, want 2", len(list))
	}

	summaries, err := ss.CostSummaries()
	if err != nil {
		t.Fatalf("CostSummaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.Total != 129.75 {
		t.Errorf("total = %v, want 129.75", s.Total)
	}
	if s.Records != 2 {
		t.Errorf("records = %d, want 2", s.Records)
	}
}

func TestOperatorStorage(t *testing.T) {
	ss := newTestStorage(t)

	op := &model.Operator{
		ID:        "op-1",
		Name:      "alice",
		Role:      model.RoleAdmin,
		TokenHash: "$2a$10$notarealhash",
	}
	if err := ss.CreateOperator(op); err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}

	got, err := ss.GetOperatorByName("Alice")
	if err != nil {
		t.Fatalf("GetOperatorByName: %v", err)
	}
	if got.Role != model.RoleAdmin || got.TokenHash != op.TokenHash {
		t.Errorf("got %+v", got)
	}

	if _, err := ss.GetOperatorByName("mallory"); !errors.Is(err, ErrOperatorNotFound) {
		t.Errorf("expected ErrOperatorNotFound, got %v", err)
	}

	ops, err := ss.ListOperators()
	if err != nil {
		t.Fatalf("ListOperators: %v", err)
	}
	if len(ops) != 1 {
		t.Errorf("got %d operators", len(ops))
	}
}

func TestSearch(t *testing.T) {
	ss := newTestStorage(t)

	tmpl := sampleTemplate("tmpl-1", "aks-standard")
	if err := ss.CreateTemplate(tmpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	env := &model.Environment{
		ID:         "env-1",
		Name:       "payments-dev",
		TemplateID: "tmpl-1",
		Region:     "westeurope",
		Status:     model.EnvRunning,
	}
	if err := ss.CreateEnvironment(env); err != nil {
		t.Fatalf("CreateEnvironment: %v", err)
	}
	dep := &model.Deployment{ID: "dep-1", EnvironmentID: "env-1", Status: model.DeploySucceeded}
	if err := ss.CreateDeployment(dep); err != nil {
		t.Fatalf("CreateDeployment: %v", err)
	}

	results, err := ss.Search("payments")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results.Environments) != 1 {
		t.Errorf("environment hits = %d, want 1", len(results.Environments))
	}
	if len(results.Deployments) != 1 {
		t.Errorf("deployment hits = %d, want 1 (matched via environment name)", len(results.Deployments))
	}
	if len(results.Templates) != 0 {
		t.Errorf("template hits = %d, want 0", len(results.Templates))
	}

	results, err = ss.Search("aks")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results.Templates) != 1 {
		t.Errorf("template hits = %d, want 1", len(results.Templates))
	}
	if results.Total() != 1 {
		t.Errorf("total = %d, want 1", results.Total())
	}
}

func seedEnvironment(t *testing.T, ss *SQLiteStorage, id string) {
	t.Helper()
	tmpl := sampleTemplate("tmpl-"+id, "tmpl-for-"+id)
	if err := ss.CreateTemplate(tmpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	env := &model.Environment{
		ID:         id,
		Name:       "env-" + id,
		TemplateID: tmpl.ID,
		Region:     "westeurope",
		Status:     model.EnvRunning,
	}
	if err := ss.CreateEnvironment(env); err != nil {
		t.Fatalf("seed environment: %v", err)
	}
}
