package mcp

import (
	"net/http"
	"strings"
	"time"

	"github.com/paularlott/mcp"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/log"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

// Engine queues deployment runs for approved environments.
type Engine interface {
	Enqueue(environmentID string) (*model.Deployment, error)
}

// Server wraps the MCP server with platform storage
type Server struct {
	mcpServer   *mcp.Server
	storage     storage.Storage
	engine      Engine
	approvalTTL time.Duration
	bearerToken string
}

// NewServer creates a new MCP server for the platform assistant
func NewServer(s storage.Storage, engine Engine, approvalTTL time.Duration, bearerToken string) *Server {
	if approvalTTL <= 0 {
		approvalTTL = 72 * time.Hour
	}
	srv := &Server{
		mcpServer:   mcp.NewServer("platformd", "1.0.0"),
		storage:     s,
		engine:      engine,
		approvalTTL: approvalTTL,
		bearerToken: bearerToken,
	}
	srv.registerTools()
	return srv
}

// registerTools registers all platform tools
func (s *Server) registerTools() {
	// Template tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("template_list", "List infrastructure templates, optionally filtered by provider, platform, format or tag",
			mcp.String("provider", "Cloud provider (azure, aws, gcp)"),
			mcp.String("platform", "Compute platform (aks, appservice, containerapps, vm, lambda, ecs, eks, gke, cloudrun)"),
			mcp.String("format", "Template format (bicep, terraform, arm)"),
			mcp.String("tag", "Filter by tag"),
		),
		s.handleTemplateList,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("template_get", "Get a template by ID or name",
			mcp.String("id", "Template ID or name", mcp.Required()),
		),
		s.handleTemplateGet,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("template_save", "Create a new template or update an existing one. If id is provided and exists, it updates; otherwise creates new.",
			mcp.String("id", "Template ID (if updating an existing template)"),
			mcp.String("name", "Template name", mcp.Required()),
			mcp.String("description", "Template description"),
			mcp.String("provider", "Cloud provider (azure, aws, gcp)", mcp.Required()),
			mcp.String("platform", "Compute platform", mcp.Required()),
			mcp.String("format", "Template format (bicep, terraform, arm)", mcp.Required()),
			mcp.String("body", "Infrastructure-as-code source text"),
			mcp.String("requires_approval", "Whether provisioning needs approval (true/false, default true)"),
			mcp.StringArray("tags", "Tags for categorization"),
		),
		s.handleTemplateSave,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("template_delete", "Delete a template from the catalog",
			mcp.String("id", "Template ID or name", mcp.Required()),
		),
		s.handleTemplateDelete,
	)

	// Environment tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("environment_list", "List environments, optionally filtered by status or owner",
			mcp.String("status", "Environment status (pending_approval, provisioning, running, failed, ...)"),
			mcp.String("owner", "Filter by owner"),
		),
		s.handleEnvironmentList,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("environment_get", "Get an environment by ID or name",
			mcp.String("id", "Environment ID or name", mcp.Required()),
		),
		s.handleEnvironmentGet,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("environment_provision", "Provision a new environment from a template. Templates that require approval create a pending approval instead of deploying immediately.",
			mcp.String("name", "Environment name", mcp.Required()),
			mcp.String("template_id", "Template ID or name", mcp.Required()),
			mcp.String("region", "Target region"),
			mcp.String("owner", "Requesting owner"),
		),
		s.handleEnvironmentProvision,
	)

	// Deployment tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("deployment_status", "Get the status and progress of a deployment",
			mcp.String("id", "Deployment ID", mcp.Required()),
		),
		s.handleDeploymentStatus,
	)

	// Approval tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("approval_list", "List approval requests, pending by default",
			mcp.String("status", "Approval status (pending, approved, rejected, expired, all)"),
		),
		s.handleApprovalList,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("approval_approve", "Approve a pending environment approval; provisioning starts immediately",
			mcp.String("id", "Approval ID", mcp.Required()),
			mcp.String("decided_by", "Name of the approver"),
		),
		s.handleApprovalApprove,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("approval_reject", "Reject a pending environment approval",
			mcp.String("id", "Approval ID", mcp.Required()),
			mcp.String("reason", "Rejection reason", mcp.Required()),
			mcp.String("decided_by", "Name of the approver"),
		),
		s.handleApprovalReject,
	)

	// Cost tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("cost_summary", "Summarize accrued costs per environment"),
		s.handleCostSummary,
	)

	// Network tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("subnet_validate", "Validate a virtual network layout: address space format, subnet containment, overlaps and duplicate names. Returns every finding.",
			mcp.String("address_space", "Address space in CIDR notation (e.g. 10.0.0.0/16)", mcp.Required()),
			mcp.ObjectArray("subnets", "Subnets to validate",
				mcp.String("name", "Subnet name", mcp.Required()),
				mcp.String("address_prefix", "Subnet CIDR (e.g. 10.0.1.0/24)", mcp.Required()),
				mcp.String("purpose", "Subnet purpose (Application, PrivateEndpoints, ApplicationGateway, Database, Other)"),
			),
		),
		s.handleSubnetValidate,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("subnet_suggest", "Suggest the next available subnet CIDR of a given size inside an address space",
			mcp.String("address_space", "Address space in CIDR notation", mcp.Required()),
			mcp.StringArray("existing", "Already-allocated subnet CIDRs"),
			mcp.String("prefix_length", "Desired prefix length (e.g. 24)", mcp.Required()),
		),
		s.handleSubnetSuggest,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token authentication
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("MCP request missing Authorization header", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Missing Authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("MCP request invalid Authorization format", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid Authorization format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if token != s.bearerToken {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
	}

	s.mcpServer.HandleRequest(w, r)
}

// GetHTTPHandler returns the HTTP handler for the MCP server
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return s.HandleRequest
}

// LogStartup logs MCP server startup information
func (s *Server) LogStartup() {
	log.Info("MCP Server initialized", "version", "1.0.0")
	if s.bearerToken != "" {
		log.Info("MCP authentication enabled", "type", "Bearer token")
	} else {
		log.Info("MCP authentication disabled")
	}
	tools := s.mcpServer.ListTools()
	log.Info("MCP tools registered", "count", len(tools))
}
