// Package manifest reads and writes the YAML template-manifest format used
// for importing and exporting templates.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
)

// Manifest is the YAML document form of a template. Parameters are carried as
// a generic map in YAML and converted through the strict JSON decoder, so an
// imported manifest gets the same unknown-field rejection as the API.
type Manifest struct {
	Name             string                 `yaml:"name"`
	Description      string                 `yaml:"description,omitempty"`
	Provider         string                 `yaml:"provider"`
	Platform         string                 `yaml:"platform"`
	Format           string                 `yaml:"format"`
	Body             string                 `yaml:"body,omitempty"`
	Parameters       map[string]interface{} `yaml:"parameters,omitempty"`
	RequiresApproval bool                   `yaml:"requires_approval"`
	Tags             []string               `yaml:"tags,omitempty"`
}

// FromTemplate converts a stored template into its manifest form.
func FromTemplate(t *model.Template) (*Manifest, error) {
	m := &Manifest{
		Name:             t.Name,
		Description:      t.Description,
		Provider:         t.Provider,
		Platform:         t.Platform,
		Format:           t.Format,
		Body:             t.Body,
		RequiresApproval: t.RequiresApproval,
		Tags:             t.Tags,
	}

	data, err := json.Marshal(t.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}
	if err := json.Unmarshal(data, &m.Parameters); err != nil {
		return nil, fmt.Errorf("converting parameters: %w", err)
	}

	return m, nil
}

// Template converts the manifest back into a template. The returned template
// has no ID or timestamps; the caller assigns those.
func (m *Manifest) Template() (*model.Template, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("manifest: name is required")
	}
	if !model.ValidProvider(m.Provider) {
		return nil, fmt.Errorf("manifest: unsupported provider %q", m.Provider)
	}
	if !model.ValidPlatform(m.Platform) {
		return nil, fmt.Errorf("manifest: unsupported platform %q", m.Platform)
	}
	if !model.ValidFormat(m.Format) {
		return nil, fmt.Errorf("manifest: unsupported format %q", m.Format)
	}

	t := &model.Template{
		Name:             m.Name,
		Description:      m.Description,
		Provider:         m.Provider,
		Platform:         m.Platform,
		Format:           m.Format,
		Body:             m.Body,
		RequiresApproval: m.RequiresApproval,
		Tags:             m.Tags,
	}

	params := m.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}
	if _, ok := params["platform"]; !ok {
		params["platform"] = m.Platform
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("manifest: encoding parameters: %w", err)
	}
	if err := json.Unmarshal(data, &t.Parameters); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	return t, nil
}

// Encode writes the manifest as YAML.
func (m *Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML manifest.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}
