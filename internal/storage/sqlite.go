package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStorage implements all storage interfaces with a SQLite backend.
type SQLiteStorage struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (or creates) the database under dataDir.
func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "platform.db")

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ss := &SQLiteStorage{db: db, path: dbPath}

	if err := ss.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return ss, nil
}

func (ss *SQLiteStorage) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	_, err = ss.db.Exec(string(schema))
	return err
}

// Close closes the database connection.
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

// Template storage

func (ss *SQLiteStorage) ListTemplates(filter *model.TemplateFilter) ([]model.Template, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, name, description, provider, platform, format, body,
		       parameters, requires_approval, created_at, updated_at
		FROM templates
	`
	var args []interface{}
	var where []string
	if filter != nil {
		if filter.Provider != "" {
			where = append(where, "provider = ?")
			args = append(args, filter.Provider)
		}
		if filter.Platform != "" {
			where = append(where, "platform = ?")
			args = append(args, filter.Platform)
		}
		if filter.Format != "" {
			where = append(where, "format = ?")
			args = append(args, filter.Format)
		}
		if filter.Tag != "" {
			where = append(where, "id IN (SELECT template_id FROM template_tags WHERE tag = ?)")
			args = append(args, filter.Tag)
		}
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " ORDER BY name"

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	templates, err := scanTemplates(rows)
	if err != nil {
		return nil, err
	}

	for i := range templates {
		if err := ss.loadTemplateTags(&templates[i]); err != nil {
			return nil, err
		}
	}

	return templates, nil
}

// GetTemplate retrieves a template by ID or name.
func (ss *SQLiteStorage) GetTemplate(id string) (*model.Template, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, name, description, provider, platform, format, body,
		       parameters, requires_approval, created_at, updated_at
		FROM templates
		WHERE id = ? OR LOWER(name) = LOWER(?)
		LIMIT 1
	`

	row := ss.db.QueryRow(query, id, id)
	t, err := scanTemplate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	if err := ss.loadTemplateTags(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (ss *SQLiteStorage) CreateTemplate(t *model.Template) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if t.ID == "" {
		return ErrInvalidID
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	params, err := json.Marshal(t.Parameters)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO templates (id, name, description, provider, platform, format, body,
		                       parameters, requires_approval, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Description, t.Provider, t.Platform, t.Format, t.Body,
		string(params), t.RequiresApproval, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}

	if err := insertTemplateTags(tx, t.ID, t.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

func (ss *SQLiteStorage) UpdateTemplate(t *model.Template) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	t.UpdatedAt = time.Now()

	params, err := json.Marshal(t.Parameters)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE templates
		SET name = ?, description = ?, provider = ?, platform = ?, format = ?,
		    body = ?, parameters = ?, requires_approval = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, t.Description, t.Provider, t.Platform, t.Format,
		t.Body, string(params), t.RequiresApproval, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrTemplateNotFound
	}

	if _, err := tx.Exec(`DELETE FROM template_tags WHERE template_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}
	if err := insertTemplateTags(tx, t.ID, t.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

func (ss *SQLiteStorage) DeleteTemplate(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// Search finds templates, environments and deployments matching the query.
func (ss *SQLiteStorage) Search(query string) (*model.SearchResults, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	like := "%" + query + "%"
	results := &model.SearchResults{
		Templates:    []model.Template{},
		Environments: []model.Environment{},
		Deployments:  []model.Deployment{},
	}

	rows, err := ss.db.Query(`
		SELECT id, name, description, provider, platform, format, body,
		       parameters, requires_approval, created_at, updated_at
		FROM templates
		WHERE name LIKE ? OR description LIKE ? OR platform LIKE ? OR provider LIKE ?
		ORDER BY name
	`, like, like, like, like)
	if err != nil {
		return nil, fmt.Errorf("searching templates: %w", err)
	}
	templates, err := scanTemplates(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	results.Templates = templates

	rows, err = ss.db.Query(`
		SELECT id, name, template_id, region, owner, status, network, created_at, updated_at
		FROM environments
		WHERE name LIKE ? OR region LIKE ? OR owner LIKE ?
		ORDER BY name
	`, like, like, like)
	if err != nil {
		return nil, fmt.Errorf("searching environments: %w", err)
	}
	envs, err := scanEnvironments(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	results.Environments = envs

	rows, err = ss.db.Query(`
		SELECT d.id, d.environment_id, d.status, d.progress, d.phase, d.message, d.started_at, d.finished_at
		FROM deployments d
		JOIN environments e ON e.id = d.environment_id
		WHERE e.name LIKE ? OR d.status LIKE ?
		ORDER BY d.started_at DESC
	`, like, like)
	if err != nil {
		return nil, fmt.Errorf("searching deployments: %w", err)
	}
	deps, err := scanDeployments(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	results.Deployments = deps

	return results, nil
}

// Environment storage

func (ss *SQLiteStorage) ListEnvironments(filter *model.EnvironmentFilter) ([]model.Environment, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, name, template_id, region, owner, status, network, created_at, updated_at
		FROM environments
	`
	var args []interface{}
	var where []string
	if filter != nil {
		if filter.Status != "" {
			where = append(where, "status = ?")
			args = append(args, filter.Status)
		}
		if filter.TemplateID != "" {
			where = append(where, "template_id = ?")
			args = append(args, filter.TemplateID)
		}
		if filter.Owner != "" {
			where = append(where, "owner = ?")
			args = append(args, filter.Owner)
		}
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " ORDER BY name"

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying environments: %w", err)
	}
	defer rows.Close()

	return scanEnvironments(rows)
}

func (ss *SQLiteStorage) GetEnvironment(id string) (*model.Environment, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	row := ss.db.QueryRow(`
		SELECT id, name, template_id, region, owner, status, network, created_at, updated_at
		FROM environments
		WHERE id = ? OR LOWER(name) = LOWER(?)
		LIMIT 1
	`, id, id)

	e, err := scanEnvironment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEnvironmentNotFound
		}
		return nil, err
	}
	return e, nil
}

func (ss *SQLiteStorage) CreateEnvironment(e *model.Environment) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if e.ID == "" {
		return ErrInvalidID
	}

	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	network, err := encodeNetwork(e.Network)
	if err != nil {
		return err
	}

	_, err = ss.db.Exec(`
		INSERT INTO environments (id, name, template_id, region, owner, status, network, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, e.TemplateID, e.Region, e.Owner, e.Status, network, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting environment: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) UpdateEnvironment(e *model.Environment) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	e.UpdatedAt = time.Now()

	network, err := encodeNetwork(e.Network)
	if err != nil {
		return err
	}

	result, err := ss.db.Exec(`
		UPDATE environments
		SET name = ?, template_id = ?, region = ?, owner = ?, status = ?, network = ?, updated_at = ?
		WHERE id = ?
	`, e.Name, e.TemplateID, e.Region, e.Owner, e.Status, network, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("updating environment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrEnvironmentNotFound
	}
	return nil
}

func (ss *SQLiteStorage) SetEnvironmentStatus(id, status string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec(`
		UPDATE environments SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("setting environment status: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrEnvironmentNotFound
	}
	return nil
}

func (ss *SQLiteStorage) DeleteEnvironment(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec(`DELETE FROM environments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting environment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrEnvironmentNotFound
	}
	return nil
}

// Deployment storage

func (ss *SQLiteStorage) ListDeployments(filter *model.DeploymentFilter) ([]model.Deployment, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, environment_id, status, progress, phase, message, started_at, finished_at
		FROM deployments
	`
	var args []interface{}
	var where []string
	if filter != nil {
		if filter.EnvironmentID != "" {
			where = append(where, "environment_id = ?")
			args = append(args, filter.EnvironmentID)
		}
		if filter.Status != "" {
			where = append(where, "status = ?")
			args = append(args, filter.Status)
		}
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " ORDER BY started_at DESC"

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deployments: %w", err)
	}
	defer rows.Close()

	return scanDeployments(rows)
}

func (ss *SQLiteStorage) GetDeployment(id string) (*model.Deployment, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	row := ss.db.QueryRow(`
		SELECT id, environment_id, status, progress, phase, message, started_at, finished_at
		FROM deployments
		WHERE id = ?
	`, id)

	d, err := scanDeployment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDeploymentNotFound
		}
		return nil, err
	}
	return d, nil
}

func (ss *SQLiteStorage) CreateDeployment(d *model.Deployment) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if d.ID == "" {
		return ErrInvalidID
	}
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}

	_, err := ss.db.Exec(`
		INSERT INTO deployments (id, environment_id, status, progress, phase, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.EnvironmentID, d.Status, d.Progress, d.Phase, d.Message, d.StartedAt, d.FinishedAt)
	if err != nil {
		return fmt.Errorf("inserting deployment: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) UpdateDeployment(d *model.Deployment) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec(`
		UPDATE deployments
		SET status = ?, progress = ?, phase = ?, message = ?, finished_at = ?
		WHERE id = ?
	`, d.Status, d.Progress, d.Phase, d.Message, d.FinishedAt, d.ID)
	if err != nil {
		return fmt.Errorf("updating deployment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrDeploymentNotFound
	}
	return nil
}

// Approval storage

func (ss *SQLiteStorage) ListApprovals(filter *model.ApprovalFilter) ([]model.Approval, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, environment_id, requested_by, decided_by, status, reason, requested_at, decided_at, expires_at
		FROM approvals
	`
	var args []interface{}
	var where []string
	if filter != nil {
		if filter.Status != "" {
			where = append(where, "status = ?")
			args = append(args, filter.Status)
		}
		if filter.EnvironmentID != "" {
			where = append(where, "environment_id = ?")
			args = append(args, filter.EnvironmentID)
		}
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " ORDER BY requested_at"

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying approvals: %w", err)
	}
	defer rows.Close()

	var approvals []model.Approval
	for rows.Next() {
		var a model.Approval
		var decidedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.EnvironmentID, &a.RequestedBy, &a.DecidedBy,
			&a.Status, &a.Reason, &a.RequestedAt, &decidedAt, &a.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scanning approval: %w", err)
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			a.DecidedAt = &t
		}
		approvals = append(approvals, a)
	}
	if approvals == nil {
		approvals = []model.Approval{}
	}
	return approvals, rows.Err()
}

func (ss *SQLiteStorage) GetApproval(id string) (*model.Approval, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	row := ss.db.QueryRow(`
		SELECT id, environment_id, requested_by, decided_by, status, reason, requested_at, decided_at, expires_at
		FROM approvals
		WHERE id = ?
	`, id)

	var a model.Approval
	var decidedAt sql.NullTime
	err := row.Scan(&a.ID, &a.EnvironmentID, &a.RequestedBy, &a.DecidedBy,
		&a.Status, &a.Reason, &a.RequestedAt, &decidedAt, &a.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("scanning approval: %w", err)
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		a.DecidedAt = &t
	}
	return &a, nil
}

func (ss *SQLiteStorage) CreateApproval(a *model.Approval) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if a.ID == "" {
		return ErrInvalidID
	}
	if a.RequestedAt.IsZero() {
		a.RequestedAt = time.Now()
	}

	_, err := ss.db.Exec(`
		INSERT INTO approvals (id, environment_id, requested_by, decided_by, status, reason, requested_at, decided_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.EnvironmentID, a.RequestedBy, a.DecidedBy, a.Status, a.Reason, a.RequestedAt, a.DecidedAt, a.ExpiresAt)
	if err != nil {
		return fmt.Errorf("inserting approval: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) UpdateApproval(a *model.Approval) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec(`
		UPDATE approvals
		SET decided_by = ?, status = ?, reason = ?, decided_at = ?
		WHERE id = ?
	`, a.DecidedBy, a.Status, a.Reason, a.DecidedAt, a.ID)
	if err != nil {
		return fmt.Errorf("updating approval: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrApprovalNotFound
	}
	return nil
}

// ExpireApprovalsBefore marks pending approvals whose deadline passed as
// expired and returns how many were swept.
func (ss *SQLiteStorage) ExpireApprovalsBefore(cutoff time.Time) (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec(`
		UPDATE approvals SET status = ?, decided_at = ?
		WHERE status = ? AND expires_at < ?
	`, model.ApprovalExpired, cutoff, model.ApprovalPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expiring approvals: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// Cost storage

func (ss *SQLiteStorage) AddCostRecord(c *model.CostRecord) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if c.ID == "" {
		return ErrInvalidID
	}

	_, err := ss.db.Exec(`
		INSERT INTO cost_records (id, environment_id, service, amount, currency, period_start, period_end)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.EnvironmentID, c.Service, c.Amount, c.Currency, c.PeriodStart, c.PeriodEnd)
	if err != nil {
		return fmt.Errorf("inserting cost record: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) ListCostRecords(environmentID string) ([]model.CostRecord, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT id, environment_id, service, amount, currency, period_start, period_end
		FROM cost_records
		WHERE environment_id = ?
		ORDER BY period_start
	`, environmentID)
	if err != nil {
		return nil, fmt.Errorf("querying cost records: %w", err)
	}
	defer rows.Close()

	records := []model.CostRecord{}
	for rows.Next() {
		var c model.CostRecord
		if err := rows.Scan(&c.ID, &c.EnvironmentID, &c.Service, &c.Amount,
			&c.Currency, &c.PeriodStart, &c.PeriodEnd); err != nil {
			return nil, fmt.Errorf("scanning cost record: %w", err)
		}
		records = append(records, c)
	}
	return records, rows.Err()
}

func (ss *SQLiteStorage) CostSummaries() ([]model.CostSummary, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT c.environment_id, e.name, SUM(c.amount), c.currency, COUNT(*)
		FROM cost_records c
		JOIN environments e ON e.id = c.environment_id
		GROUP BY c.environment_id, c.currency
		ORDER BY e.name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying cost summaries: %w", err)
	}
	defer rows.Close()

	summaries := []model.CostSummary{}
	for rows.Next() {
		var s model.CostSummary
		if err := rows.Scan(&s.EnvironmentID, &s.EnvironmentName, &s.Total, &s.Currency, &s.Records); err != nil {
			return nil, fmt.Errorf("scanning cost summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Operator storage

func (ss *SQLiteStorage) GetOperatorByName(name string) (*model.Operator, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	row := ss.db.QueryRow(`
		SELECT id, name, role, token_hash, created_at
		FROM operators
		WHERE LOWER(name) = LOWER(?)
	`, name)

	var o model.Operator
	if err := row.Scan(&o.ID, &o.Name, &o.Role, &o.TokenHash, &o.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("scanning operator: %w", err)
	}
	return &o, nil
}

func (ss *SQLiteStorage) CreateOperator(o *model.Operator) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if o.ID == "" {
		return ErrInvalidID
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	_, err := ss.db.Exec(`
		INSERT INTO operators (id, name, role, token_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, o.ID, o.Name, o.Role, o.TokenHash, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting operator: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) ListOperators() ([]model.Operator, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`SELECT id, name, role, token_hash, created_at FROM operators ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying operators: %w", err)
	}
	defer rows.Close()

	operators := []model.Operator{}
	for rows.Next() {
		var o model.Operator
		if err := rows.Scan(&o.ID, &o.Name, &o.Role, &o.TokenHash, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning operator: %w", err)
		}
		operators = append(operators, o)
	}
	return operators, rows.Err()
}
