package repository

// Schema definitions for the GridPay database.
// Compatible with both SQLite and PostgreSQL.

const schemaDecisionTables = `
CREATE TABLE IF NOT EXISTS decision_tables (
    name TEXT PRIMARY KEY,
    version TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_tables_active ON decision_tables(active);
`

// table_rules keeps one row per rule. The position column preserves the
// spec's declaration order, which is the evaluation priority.
const schemaTableRules = `
CREATE TABLE IF NOT EXISTS table_rules (
    table_name TEXT NOT NULL,
    position INTEGER NOT NULL,
    lob TEXT NOT NULL,
    segment TEXT NOT NULL,
    insurers TEXT NOT NULL,
    formula TEXT NOT NULL,
    remarks TEXT NOT NULL DEFAULT '',
    guard TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (table_name, position)
);

CREATE INDEX IF NOT EXISTS idx_table_rules_table ON table_rules(table_name);
`

const schemaBatchAudits = `
CREATE TABLE IF NOT EXISTS batch_audits (
    batch_id TEXT PRIMARY KEY,
    company TEXT NOT NULL,
    table_name TEXT NOT NULL,
    record_count INTEGER NOT NULL,
    error_count INTEGER NOT NULL,
    avg_payin REAL NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batch_audits_company ON batch_audits(company);
CREATE INDEX IF NOT EXISTS idx_batch_audits_created ON batch_audits(created_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaDecisionTables,
		schemaTableRules,
		schemaBatchAudits,
	}
}
