package dbreset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) Config {
	t.Helper()
	return Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "target.db")}
}

func openSQLite(t *testing.T, cfg Config) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTables(t *testing.T, db *sqlx.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := db.Exec(`CREATE TABLE "` + name + `" (id INTEGER PRIMARY KEY, name TEXT)`)
		require.NoError(t, err)
	}
}

func TestListTables_SQLite(t *testing.T) {
	db := openSQLite(t, sqliteConfig(t))
	seedTables(t, db, "cats", "adoptions", "vaccinations")

	tables, err := ListTables(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"adoptions", "cats", "vaccinations"}, tables)
}

func TestReset_DropsEverything(t *testing.T) {
	db := openSQLite(t, sqliteConfig(t))
	seedTables(t, db, "cats", "cats__adoption__immunizations")
	_, err := db.Exec(`INSERT INTO cats (id, name) VALUES (1, 'Tom')`)
	require.NoError(t, err)

	dropped, err := Reset(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"cats", "cats__adoption__immunizations"}, dropped)

	tables, err := ListTables(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestReset_EmptyDatabase(t *testing.T) {
	db := openSQLite(t, sqliteConfig(t))

	dropped, err := Reset(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, dropped)
}

func TestReset_QuotesIdentifiers(t *testing.T) {
	db := openSQLite(t, sqliteConfig(t))
	seedTables(t, db, "weird name", "select")

	dropped, err := Reset(context.Background(), db)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"weird name", "select"}, dropped)
}

func TestReset_CancelledContext(t *testing.T) {
	db := openSQLite(t, sqliteConfig(t))
	seedTables(t, db, "cats")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Reset(ctx, db)
	require.Error(t, err)

	tables, err := ListTables(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"cats"}, tables, "nothing dropped when the reset fails")
}

func TestClear_OpensResetsAndCloses(t *testing.T) {
	cfg := sqliteConfig(t)
	seed := openSQLite(t, cfg)
	seedTables(t, seed, "cats")

	dropped, err := Clear(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"cats"}, dropped)

	// Idempotent: a second clear has nothing to drop.
	dropped, err = Clear(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, dropped)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverSQLite})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestDropStatement(t *testing.T) {
	assert.Equal(t, `DROP TABLE IF EXISTS "cats" CASCADE`, dropStatement(DriverPostgres, "cats"))
	assert.Equal(t, `DROP TABLE IF EXISTS "cats"`, dropStatement(DriverSQLite, "cats"))
	assert.Equal(t, `DROP TABLE IF EXISTS "a""b"`, dropStatement(DriverSQLite, `a"b`))
}
