// Package domain defines the core interfaces and types for GridPay.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence: decision table
// specs and batch audit rows.
type Repository interface {
	// Decision table operations. Rule order inside a spec is preserved
	// exactly; order is part of a table's contract.
	SaveTable(ctx context.Context, spec *TableSpec) error
	GetTable(ctx context.Context, name string) (*TableSpec, error)
	GetActiveTable(ctx context.Context) (*TableSpec, error)
	ListTables(ctx context.Context) ([]*TableInfo, error)
	ActivateTable(ctx context.Context, name string) error

	// Batch audit operations
	SaveAudit(ctx context.Context, audit *BatchAudit) error
	RecentAudits(ctx context.Context, limit int) ([]*BatchAudit, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// TableInfo is the listing view of a stored decision table.
type TableInfo struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	RuleCount int       `json:"ruleCount"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// BatchAudit is the persisted record of one processed batch.
type BatchAudit struct {
	BatchID     string    `json:"batchId"`
	Company     string    `json:"company"`
	TableName   string    `json:"tableName"`
	RecordCount int       `json:"recordCount"`
	ErrorCount  int       `json:"errorCount"`
	AvgPayin    float64   `json:"avgPayin"`
	DurationMs  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
