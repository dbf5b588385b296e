package repository

import (
	"database/sql"
	"fmt"

	"github.com/opensource-finance/gridpay/internal/domain"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// openSQLite opens a SQLite database connection.
func openSQLite(cfg domain.RepositoryConfig) (*sql.DB, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = "./gridpay.db"
	}

	// Enable WAL mode for better concurrent performance
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	return db, nil
}
