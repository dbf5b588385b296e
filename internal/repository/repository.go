// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveTable stores a decision table spec, replacing any previous version
// under the same name. Rule rows are written with their positions so the
// spec's declaration order survives the round trip exactly.
func (r *SQLRepository) SaveTable(ctx context.Context, spec *domain.TableSpec) error {
	if spec == nil || spec.Name == "" {
		return fmt.Errorf("table spec with a name is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO decision_tables (name, version, active, created_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version
	`
	if _, err := tx.ExecContext(ctx, r.rebind(upsert), spec.Name, spec.Version, time.Now().UTC()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM table_rules WHERE table_name = ?`), spec.Name); err != nil {
		return err
	}

	insert := `
		INSERT INTO table_rules (table_name, position, lob, segment, insurers, formula, remarks, guard)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, rule := range spec.Rules {
		if _, err := tx.ExecContext(ctx, r.rebind(insert),
			spec.Name, i, rule.LOB, rule.Segment, rule.Insurers, rule.Formula, rule.Remarks, rule.Guard,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTable retrieves a stored table spec by name, rules in saved order.
func (r *SQLRepository) GetTable(ctx context.Context, name string) (*domain.TableSpec, error) {
	query := `SELECT name, version FROM decision_tables WHERE name = ?`

	var spec domain.TableSpec
	err := r.db.QueryRowContext(ctx, r.rebind(query), name).Scan(&spec.Name, &spec.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rules, err := r.loadRules(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	spec.Rules = rules
	return &spec, nil
}

// GetActiveTable retrieves the single active table spec.
func (r *SQLRepository) GetActiveTable(ctx context.Context) (*domain.TableSpec, error) {
	query := `SELECT name, version FROM decision_tables WHERE active = 1 LIMIT 1`

	var spec domain.TableSpec
	err := r.db.QueryRowContext(ctx, query).Scan(&spec.Name, &spec.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rules, err := r.loadRules(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	spec.Rules = rules
	return &spec, nil
}

func (r *SQLRepository) loadRules(ctx context.Context, tableName string) ([]domain.RuleSpec, error) {
	query := `
		SELECT lob, segment, insurers, formula, remarks, guard
		FROM table_rules
		WHERE table_name = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.RuleSpec
	for rows.Next() {
		var rule domain.RuleSpec
		if err := rows.Scan(&rule.LOB, &rule.Segment, &rule.Insurers, &rule.Formula, &rule.Remarks, &rule.Guard); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// ListTables returns the listing view of all stored tables.
func (r *SQLRepository) ListTables(ctx context.Context) ([]*domain.TableInfo, error) {
	query := `
		SELECT t.name, t.version, t.active, t.created_at,
			   (SELECT COUNT(*) FROM table_rules WHERE table_name = t.name)
		FROM decision_tables t
		ORDER BY t.name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []*domain.TableInfo
	for rows.Next() {
		var info domain.TableInfo
		var active int
		if err := rows.Scan(&info.Name, &info.Version, &active, &info.CreatedAt, &info.RuleCount); err != nil {
			return nil, err
		}
		info.Active = active == 1
		infos = append(infos, &info)
	}

	return infos, rows.Err()
}

// ActivateTable marks one table active and all others inactive, in a
// single transaction so there is never more or less than one active
// table visible to readers.
func (r *SQLRepository) ActivateTable(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE decision_tables SET active = 0 WHERE active = 1`); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, r.rebind(`UPDATE decision_tables SET active = 1 WHERE name = ?`), name)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit()
}

// SaveAudit stores the audit row for one processed batch.
func (r *SQLRepository) SaveAudit(ctx context.Context, audit *domain.BatchAudit) error {
	query := `
		INSERT INTO batch_audits (
			batch_id, company, table_name, record_count, error_count,
			avg_payin, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := audit.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		audit.BatchID, audit.Company, audit.TableName,
		audit.RecordCount, audit.ErrorCount,
		audit.AvgPayin, audit.DurationMs, createdAt,
	)
	return err
}

// RecentAudits returns the most recent batch audits, newest first.
func (r *SQLRepository) RecentAudits(ctx context.Context, limit int) ([]*domain.BatchAudit, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT batch_id, company, table_name, record_count, error_count,
			   avg_payin, duration_ms, created_at
		FROM batch_audits
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*domain.BatchAudit
	for rows.Next() {
		var audit domain.BatchAudit
		if err := rows.Scan(
			&audit.BatchID, &audit.Company, &audit.TableName,
			&audit.RecordCount, &audit.ErrorCount,
			&audit.AvgPayin, &audit.DurationMs, &audit.CreatedAt,
		); err != nil {
			return nil, err
		}
		audits = append(audits, &audit)
	}

	return audits, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
