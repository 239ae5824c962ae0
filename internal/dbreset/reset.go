package dbreset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Redacted(), err)
	}
	return db, nil
}

// ListTables returns the user tables of db, sorted by name.
// For postgres only base tables in the public schema are listed.
func ListTables(ctx context.Context, db *sqlx.DB) ([]string, error) {
	return listTables(ctx, db, db.DriverName())
}

func listTables(ctx context.Context, q sqlx.QueryerContext, driver string) ([]string, error) {
	var query string
	switch driver {
	case DriverPostgres:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	case DriverSQLite:
		query = `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	var tables []string
	if err := sqlx.SelectContext(ctx, q, &tables, query); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Reset drops every table in one transaction and returns the dropped names.
// Either all tables are dropped or none are.
func Reset(ctx context.Context, db *sqlx.DB) (dropped []string, err error) {
	driver := db.DriverName()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reset: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	tables, err := listTables(ctx, tx, driver)
	if err != nil {
		return nil, err
	}

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, dropStatement(driver, table)); err != nil {
			return nil, fmt.Errorf("drop table %s: %w", table, err)
		}
		slog.Debug("dropped table", "table", table)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reset: %w", err)
	}
	return tables, nil
}

// dropStatement quotes with pq.QuoteIdentifier; SQLite accepts the same
// double-quoted form.
func dropStatement(driver, table string) string {
	stmt := "DROP TABLE IF EXISTS " + pq.QuoteIdentifier(table)
	if driver == DriverPostgres {
		stmt += " CASCADE"
	}
	return stmt
}

// Clear opens cfg, drops every table and closes the connection.
func Clear(ctx context.Context, cfg Config) ([]string, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	dropped, err := Reset(ctx, db)
	if err != nil {
		return nil, err
	}
	slog.Info("database cleared", "driver", db.DriverName(), "tables", len(dropped))
	return dropped, nil
}
