package model

import "time"

// Template formats.
const (
	FormatBicep     = "bicep"
	FormatTerraform = "terraform"
	FormatARM       = "arm"
)

// Cloud providers.
const (
	ProviderAzure = "azure"
	ProviderAWS   = "aws"
	ProviderGCP   = "gcp"
)

// Template is an infrastructure-as-code definition operators provision
// environments from.
type Template struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	Provider         string             `json:"provider"`
	Platform         string             `json:"platform"`
	Format           string             `json:"format"`
	Body             string             `json:"body,omitempty"`
	Parameters       PlatformParameters `json:"parameters"`
	RequiresApproval bool               `json:"requires_approval"`
	Tags             []string           `json:"tags,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// TemplateFilter holds filter criteria for listing templates.
type TemplateFilter struct {
	Provider string // exact match
	Platform string // exact match
	Format   string // exact match
	Tag      string // any-tag match
}

// ValidFormat reports whether f is a supported template format.
func ValidFormat(f string) bool {
	return f == FormatBicep || f == FormatTerraform || f == FormatARM
}

// ValidProvider reports whether p is a supported cloud provider.
func ValidProvider(p string) bool {
	return p == ProviderAzure || p == ProviderAWS || p == ProviderGCP
}
