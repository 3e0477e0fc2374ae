package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paularlott/mcp"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/log"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/netcalc"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

// Template tool handlers

func (s *Server) handleTemplateList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	filter := &model.TemplateFilter{
		Provider: req.StringOr("provider", ""),
		Platform: req.StringOr("platform", ""),
		Format:   req.StringOr("format", ""),
		Tag:      req.StringOr("tag", ""),
	}

	templates, err := s.storage.ListTemplates(filter)
	if err != nil {
		log.Error("MCP template list failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to list templates: " + err.Error())
	}

	if len(templates) == 0 {
		return mcp.NewToolResponseText("No templates found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d template(s):\n", len(templates))
	for _, t := range templates {
		sb.WriteString(s.formatTemplateSummary(&t))
	}
	return mcp.NewToolResponseText(sb.String()), nil
}

func (s *Server) handleTemplateGet(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	t, err := s.storage.GetTemplate(id)
	if err != nil {
		if errors.Is(err, storage.ErrTemplateNotFound) {
			return mcp.NewToolResponseText("Template not found: " + id), nil
		}
		return nil, mcp.NewToolErrorInternal("failed to get template: " + err.Error())
	}

	return mcp.NewToolResponseText(s.formatTemplateSummary(t)), nil
}

func (s *Server) handleTemplateSave(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	name, err := req.String("name")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("name is required: " + err.Error())
	}
	provider, err := req.String("provider")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("provider is required: " + err.Error())
	}
	platform, err := req.String("platform")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("platform is required: " + err.Error())
	}
	format, err := req.String("format")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("format is required: " + err.Error())
	}

	if !model.ValidProvider(provider) {
		return nil, mcp.NewToolErrorInvalidParams("unsupported provider: " + provider)
	}
	if !model.ValidPlatform(platform) {
		return nil, mcp.NewToolErrorInvalidParams("unsupported platform: " + platform)
	}
	if !model.ValidFormat(format) {
		return nil, mcp.NewToolErrorInvalidParams("unsupported format: " + format)
	}

	requiresApproval := true
	if v := req.StringOr("requires_approval", ""); v != "" {
		requiresApproval = v == "true"
	}

	// Update when an existing template matches the given id
	if id := req.StringOr("id", ""); id != "" {
		if existing, err := s.storage.GetTemplate(id); err == nil {
			existing.Name = name
			existing.Provider = provider
			existing.Platform = platform
			existing.Format = format
			if d := req.StringOr("description", ""); d != "" {
				existing.Description = d
			}
			if b := req.StringOr("body", ""); b != "" {
				existing.Body = b
			}
			if tags, _ := req.StringSlice("tags"); tags != nil {
				existing.Tags = tags
			}
			existing.RequiresApproval = requiresApproval

			if err := s.storage.UpdateTemplate(existing); err != nil {
				log.Error("MCP template update failed", "id", existing.ID, "error", err)
				return nil, mcp.NewToolErrorInternal("failed to update template: " + err.Error())
			}
			log.Info("MCP template updated", "id", existing.ID, "name", existing.Name)
			return mcp.NewToolResponseText(fmt.Sprintf("Template updated: %s (ID: %s)", existing.Name, existing.ID)), nil
		}
	}

	tags, _ := req.StringSlice("tags")
	t := &model.Template{
		ID:               newID(),
		Name:             name,
		Description:      req.StringOr("description", ""),
		Provider:         provider,
		Platform:         platform,
		Format:           format,
		Body:             req.StringOr("body", ""),
		Parameters:       model.PlatformParameters{Platform: platform},
		RequiresApproval: requiresApproval,
		Tags:             tags,
	}

	if err := s.storage.CreateTemplate(t); err != nil {
		log.Error("MCP template create failed", "name", name, "error", err)
		return nil, mcp.NewToolErrorInternal("failed to create template: " + err.Error())
	}

	log.Info("MCP template created", "id", t.ID, "name", t.Name)
	return mcp.NewToolResponseText(fmt.Sprintf("Template created: %s (ID: %s)", t.Name, t.ID)), nil
}

func (s *Server) handleTemplateDelete(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	// Resolve names to IDs before deleting
	t, err := s.storage.GetTemplate(id)
	if err != nil {
		if errors.Is(err, storage.ErrTemplateNotFound) {
			return mcp.NewToolResponseText("Template not found: " + id), nil
		}
		return nil, mcp.NewToolErrorInternal("failed to get template: " + err.Error())
	}

	if err := s.storage.DeleteTemplate(t.ID); err != nil {
		return nil, mcp.NewToolErrorInternal("failed to delete template: " + err.Error())
	}

	log.Info("MCP template deleted", "id", t.ID, "name", t.Name)
	return mcp.NewToolResponseText(fmt.Sprintf("Template deleted: %s (ID: %s)", t.Name, t.ID)), nil
}

// Environment tool handlers

func (s *Server) handleEnvironmentList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	envStorage, ok := s.storage.(storage.EnvironmentStorage)
	if !ok {
		return nil, mcp.NewToolErrorInternal("environments are not supported by this storage backend")
	}

	envs, err := envStorage.ListEnvironments(&model.EnvironmentFilter{
		Status: req.StringOr("status", ""),
		Owner:  req.StringOr("owner", ""),
	})
	if err != nil {
		return nil, mcp.NewToolErrorInternal("failed to list environments: " + err.Error())
	}

	if len(envs) == 0 {
		return mcp.NewToolResponseText("No environments found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d environment(s):\n", len(envs))
	for _, e := range envs {
		sb.WriteString(s.formatEnvironmentSummary(&e))
	}
	return mcp.NewToolResponseText(sb.String()), nil
}

func (s *Server) handleEnvironmentGet(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	envStorage, ok := s.storage.(storage.EnvironmentStorage)
	if !ok {
		return nil, mcp.NewToolErrorInternal("environments are not supported by this storage backend")
	}

	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	env, err := envStorage.GetEnvironment(id)
	if err != nil {
		if errors.Is(err, storage.ErrEnvironmentNotFound) {
			return mcp.NewToolResponseText("Environment not found: " + id), nil
		}
		return nil, mcp.NewToolErrorInternal("failed to get environment: " + err.Error())
	}

	return mcp.NewToolResponseText(s.formatEnvironmentSummary(env)), nil
}

func (s *Server) handleEnvironmentProvision(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	envStorage, ok := s.storage.(storage.EnvironmentStorage)
	if !ok {
		return nil, mcp.NewToolErrorInternal("environments are not supported by this storage backend")
	}

	name, err := req.String("name")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("name is required: " + err.Error())
	}
	templateID, err := req.String("template_id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("template_id is required: " + err.Error())
	}

	template, err := s.storage.GetTemplate(templateID)
	if err != nil {
		if errors.Is(err, storage.ErrTemplateNotFound) {
			return nil, mcp.NewToolErrorInvalidParams("template not found: " + templateID)
		}
		return nil, mcp.NewToolErrorInternal("failed to get template: " + err.Error())
	}

	network := template.Parameters.Network()
	if network != nil {
		subnets := make([]netcalc.Subnet, len(network.Subnets))
		for i, sn := range network.Subnets {
			subnets[i] = netcalc.Subnet{Name: sn.Name, AddressPrefix: sn.AddressPrefix, Purpose: sn.Purpose}
		}
		result := netcalc.ValidateSubnets(subnets, network.AddressSpace)
		if !result.Valid {
			return nil, mcp.NewToolErrorInvalidParams("template network is invalid: " + strings.Join(result.Errors, "; "))
		}
	}

	owner := req.StringOr("owner", "")
	env := &model.Environment{
		ID:         newID(),
		Name:       name,
		TemplateID: template.ID,
		Region:     req.StringOr("region", ""),
		Owner:      owner,
		Network:    network,
	}

	if template.RequiresApproval {
		approvalStorage, ok := s.storage.(storage.ApprovalStorage)
		if !ok {
			return nil, mcp.NewToolErrorInternal("approvals are not supported by this storage backend")
		}

		env.Status = model.EnvPendingApproval
		if err := envStorage.CreateEnvironment(env); err != nil {
			return nil, mcp.NewToolErrorInternal("failed to create environment: " + err.Error())
		}

		approval := &model.Approval{
			ID:            newID(),
			EnvironmentID: env.ID,
			RequestedBy:   owner,
			Status:        model.ApprovalPending,
			ExpiresAt:     time.Now().Add(s.approvalTTL),
		}
		if err := approvalStorage.CreateApproval(approval); err != nil {
			return nil, mcp.NewToolErrorInternal("failed to create approval: " + err.Error())
		}

		log.Info("MCP environment pending approval", "environment", env.ID, "approval", approval.ID)
		return mcp.NewToolResponseText(fmt.Sprintf(
			"Environment %s created and awaiting approval (approval ID: %s, expires %s)",
			env.Name, approval.ID, approval.ExpiresAt.Format(time.RFC3339))), nil
	}

	env.Status = model.EnvProvisioning
	if err := envStorage.CreateEnvironment(env); err != nil {
		return nil, mcp.NewToolErrorInternal("failed to create environment: " + err.Error())
	}

	if s.engine == nil {
		return mcp.NewToolResponseText(fmt.Sprintf("Environment %s created (ID: %s); no provisioning engine configured", env.Name, env.ID)), nil
	}

	deployment, err := s.engine.Enqueue(env.ID)
	if err != nil {
		return nil, mcp.NewToolErrorInternal("failed to queue deployment: " + err.Error())
	}

	log.Info("MCP environment provisioning", "environment", env.ID, "deployment", deployment.ID)
	return mcp.NewToolResponseText(fmt.Sprintf(
		"Environment %s provisioning started (ID: %s, deployment: %s)", env.Name, env.ID, deployment.ID)), nil
}

// Deployment tool handlers

func (s *Server) handleDeploymentStatus(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	depStorage, ok := s.storage.(storage.DeploymentStorage)
	if !ok {
		return nil, mcp.NewToolErrorInternal("deployments are not supported by this storage backend")
	}

	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	d, err := depStorage.GetDeployment(id)
	if err != nil {
		if errors.Is(err, storage.ErrDeploymentNotFound) {
			return mcp.NewToolResponseText("Deployment not found: " + id), nil
		}
		return nil, mcp.NewToolErrorInternal("failed to get deployment: " + err.Error())
	}

	text := fmt.Sprintf("Deployment %s: %s (%d%%)", d.ID, d.Status, d.Progress)
	if d.Message != "" {
		text += " - " + d.Message
	}
	return mcp.NewToolResponseText(text), nil
}

// Approval tool handlers

func (s *Server) handleApprovalList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	approvalStorage, ok := s.storage.(storage.ApprovalStorage)
	if !ok {
		return nil, mcp.NewToolErrorInternal("approvals are not supported by this storage backend")
	}

	status := req.StringOr("status", model.ApprovalPending)
	if status == "all" {
		status = ""
	}

	approvals, err := approvalStorage.ListApprovals(&model.ApprovalFilter{Status: status})
	if err != nil {
		return nil, mcp.NewToolErrorInternal("failed to list approvals: " + err.Error())
	}

	if len(approvals) == 0 {
		return mcp.NewToolResponseText("No approvals found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d approval(s):\n", len(approvals))
	for _, a := range approvals {
		fmt.Fprintf(&sb, "- %s: environment %s, %s, requested by %s, expires %s\n",
			a.ID, a.EnvironmentID, a.Status, a.RequestedBy, a.ExpiresAt.Format(time.RFC3339))
	}
	return mcp.NewToolResponseText(sb.String()), nil
}

func (s *Server) handleApprovalApprove(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	return s.decide(req, model.ApprovalApproved)
}

func (s *Server) handleApprovalReject(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	if _, err := req.String("reason"); err != nil {
		return nil, mcp.NewToolErrorInvalidParams("reason is required: " + err.Error())
	}
	return s.decide(req, model.ApprovalRejected)
}

func (s *Server) decide(req *mcp.ToolRequest, decision string) (*mcp.ToolResponse, error) {
	approvalStorage, ok := s.storage.(storage.ApprovalStorage)
	if !ok {
		return nil, mcp.NewToolErrorInternal("approvals are not supported by this storage backend")
	}
	envStorage, ok := s.storage.(storage.EnvironmentStorage)
	if !ok {
		return nil, mcp.NewToolErrorInternal("environments are not supported by this storage backend")
	}

	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	approval, err := approvalStorage.GetApproval(id)
	if err != nil {
		if errors.Is(err, storage.ErrApprovalNotFound) {
			return mcp.NewToolResponseText("Approval not found: " + id), nil
		}
		return nil, mcp.NewToolErrorInternal("failed to get approval: " + err.Error())
	}

	if approval.Status != model.ApprovalPending {
		return nil, mcp.NewToolErrorInvalidParams("approval already " + approval.Status)
	}
	if time.Now().After(approval.ExpiresAt) {
		return nil, mcp.NewToolErrorInvalidParams("approval has expired")
	}

	now := time.Now()
	approval.Status = decision
	approval.DecidedBy = req.StringOr("decided_by", "")
	approval.Reason = req.StringOr("reason", "")
	approval.DecidedAt = &now
	if err := approvalStorage.UpdateApproval(approval); err != nil {
		return nil, mcp.NewToolErrorInternal("failed to update approval: " + err.Error())
	}

	if decision == model.ApprovalRejected {
		if err := envStorage.SetEnvironmentStatus(approval.EnvironmentID, model.EnvRejected); err != nil {
			return nil, mcp.NewToolErrorInternal("failed to update environment: " + err.Error())
		}
		log.Info("MCP approval rejected", "approval", approval.ID, "environment", approval.EnvironmentID)
		return mcp.NewToolResponseText(fmt.Sprintf("Approval %s rejected; environment %s marked rejected", approval.ID, approval.EnvironmentID)), nil
	}

	if err := envStorage.SetEnvironmentStatus(approval.EnvironmentID, model.EnvProvisioning); err != nil {
		return nil, mcp.NewToolErrorInternal("failed to update environment: " + err.Error())
	}

	text := fmt.Sprintf("Approval %s approved; environment %s provisioning", approval.ID, approval.EnvironmentID)
	if s.engine != nil {
		deployment, err := s.engine.Enqueue(approval.EnvironmentID)
		if err != nil {
			return nil, mcp.NewToolErrorInternal("failed to queue deployment: " + err.Error())
		}
		text += " (deployment: " + deployment.ID + ")"
	}

	log.Info("MCP approval approved", "approval", approval.ID, "environment", approval.EnvironmentID)
	return mcp.NewToolResponseText(text), nil
}

// Cost tool handlers

func (s *Server) handleCostSummary(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	costStorage, ok := s.storage.(storage.CostStorage)
	if !ok {
		return nil, mcp.NewToolErrorInternal("cost tracking is not supported by this storage backend")
	}

	summaries, err := costStorage.CostSummaries()
	if err != nil {
		return nil, mcp.NewToolErrorInternal("failed to summarize costs: " + err.Error())
	}

	if len(summaries) == 0 {
		return mcp.NewToolResponseText("No cost records yet."), nil
	}

	var sb strings.Builder
	var total float64
	sb.WriteString("Accrued costs per environment:\n")
	for _, c := range summaries {
		fmt.Fprintf(&sb, "- %s: %.2f %s (%d records)\n", c.EnvironmentName, c.Total, c.Currency, c.Records)
		total += c.Total
	}
	fmt.Fprintf(&sb, "Fleet total: %.2f USD\n", total)
	return mcp.NewToolResponseText(sb.String()), nil
}

// Network tool handlers

func (s *Server) handleSubnetValidate(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	addressSpace, err := req.String("address_space")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("address_space is required: " + err.Error())
	}

	var subnets []netcalc.Subnet
	if objs, err := req.ObjectSlice("subnets"); err == nil {
		for i, obj := range objs {
			sn := netcalc.Subnet{}
			if name, ok := obj["name"].(string); ok {
				sn.Name = name
			} else {
				return nil, mcp.NewToolErrorInvalidParams(fmt.Sprintf("subnets[%d]: missing name", i))
			}
			if prefix, ok := obj["address_prefix"].(string); ok {
				sn.AddressPrefix = prefix
			} else {
				return nil, mcp.NewToolErrorInvalidParams(fmt.Sprintf("subnets[%d]: missing address_prefix", i))
			}
			if purpose, ok := obj["purpose"].(string); ok {
				sn.Purpose = purpose
			}
			subnets = append(subnets, sn)
		}
	}

	result := netcalc.ValidateSubnets(subnets, addressSpace)
	if result.Valid {
		return mcp.NewToolResponseText(fmt.Sprintf("Network layout is valid: %d subnet(s) in %s.", len(subnets), addressSpace)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Network layout has %d problem(s):\n", len(result.Errors))
	for _, e := range result.Errors {
		sb.WriteString("- " + e + "\n")
	}
	return mcp.NewToolResponseText(sb.String()), nil
}

func (s *Server) handleSubnetSuggest(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	addressSpace, err := req.String("address_space")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("address_space is required: " + err.Error())
	}
	prefixText, err := req.String("prefix_length")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("prefix_length is required: " + err.Error())
	}
	prefixLen, err := strconv.Atoi(strings.TrimPrefix(prefixText, "/"))
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("prefix_length must be a number: " + prefixText)
	}

	existing, _ := req.StringSlice("existing")

	cidr, ok := netcalc.NextSubnetCIDR(addressSpace, existing, prefixLen)
	if !ok {
		return mcp.NewToolResponseText(fmt.Sprintf("No free /%d subnet available in %s.", prefixLen, addressSpace)), nil
	}
	return mcp.NewToolResponseText(fmt.Sprintf("Next available /%d subnet in %s: %s", prefixLen, addressSpace, cidr)), nil
}

// Formatting helpers

func (s *Server) formatTemplateSummary(t *model.Template) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- %s (ID: %s): %s/%s, format %s", t.Name, t.ID, t.Provider, t.Platform, t.Format)
	if t.RequiresApproval {
		sb.WriteString(", requires approval")
	}
	if len(t.Tags) > 0 {
		sb.WriteString(", tags: " + strings.Join(t.Tags, ", "))
	}
	if t.Description != "" {
		sb.WriteString("\n  " + t.Description)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (s *Server) formatEnvironmentSummary(e *model.Environment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- %s (ID: %s): %s", e.Name, e.ID, e.Status)
	if e.Region != "" {
		sb.WriteString(", region " + e.Region)
	}
	if e.Owner != "" {
		sb.WriteString(", owner " + e.Owner)
	}
	if e.Network != nil && e.Network.AddressSpace != "" {
		fmt.Fprintf(&sb, ", network %s (%d subnets)", e.Network.AddressSpace, len(e.Network.Subnets))
	}
	sb.WriteString("\n")
	return sb.String()
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
