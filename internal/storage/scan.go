package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var t model.Template
	var params string
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Provider, &t.Platform,
		&t.Format, &t.Body, &params, &t.RequiresApproval, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning template: %w", err)
	}
	if params != "" && params != "{}" {
		if err := json.Unmarshal([]byte(params), &t.Parameters); err != nil {
			return nil, fmt.Errorf("decoding parameters for template %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

func scanTemplates(rows *sql.Rows) ([]model.Template, error) {
	templates := []model.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (ss *SQLiteStorage) loadTemplateTags(t *model.Template) error {
	rows, err := ss.db.Query(`SELECT tag FROM template_tags WHERE template_id = ? ORDER BY tag`, t.ID)
	if err != nil {
		return fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return fmt.Errorf("scanning tag: %w", err)
		}
		t.Tags = append(t.Tags, tag)
	}
	return rows.Err()
}

func insertTemplateTags(tx *sql.Tx, templateID string, tags []string) error {
	for _, tag := range tags {
		if _, err := tx.Exec(`INSERT INTO template_tags (template_id, tag) VALUES (?, ?)`, templateID, tag); err != nil {
			return fmt.Errorf("inserting tag %q: %w", tag, err)
		}
	}
	return nil
}

func encodeNetwork(n *model.NetworkProfile) (interface{}, error) {
	if n == nil {
		return nil, nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encoding network profile: %w", err)
	}
	return string(data), nil
}

func scanEnvironment(row rowScanner) (*model.Environment, error) {
	var e model.Environment
	var network sql.NullString
	err := row.Scan(&e.ID, &e.Name, &e.TemplateID, &e.Region, &e.Owner,
		&e.Status, &network, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning environment: %w", err)
	}
	if network.Valid && network.String != "" {
		e.Network = &model.NetworkProfile{}
		if err := json.Unmarshal([]byte(network.String), e.Network); err != nil {
			return nil, fmt.Errorf("decoding network for environment %s: %w", e.ID, err)
		}
	}
	return &e, nil
}

func scanEnvironments(rows *sql.Rows) ([]model.Environment, error) {
	envs := []model.Environment{}
	for rows.Next() {
		e, err := scanEnvironment(rows)
		if err != nil {
			return nil, err
		}
		envs = append(envs, *e)
	}
	return envs, rows.Err()
}

func scanDeployment(row rowScanner) (*model.Deployment, error) {
	var d model.Deployment
	var finished sql.NullTime
	err := row.Scan(&d.ID, &d.EnvironmentID, &d.Status, &d.Progress,
		&d.Phase, &d.Message, &d.StartedAt, &finished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning deployment: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		d.FinishedAt = &t
	}
	return &d, nil
}

func scanDeployments(rows *sql.Rows) ([]model.Deployment, error) {
	deployments := []model.Deployment{}
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, *d)
	}
	return deployments, rows.Err()
}
