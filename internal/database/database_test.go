package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMigrateCreatesSchemaOnce(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	require.NoError(t, Migrate(ctx, conn))
	require.NoError(t, Migrate(ctx, conn))

	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&n))
	assert.Equal(t, 1, n)

	for _, table := range []string{"users", "buildings", "anchors", "scans", "observations", "floor_polygons", "pois", "recompute_runs"} {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestForeignKeysAndChecksEnforced(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)
	require.NoError(t, Migrate(ctx, conn))

	_, err := conn.Exec("INSERT INTO scans (building_id, captured_at) VALUES (42, 0)")
	assert.Error(t, err, "unknown building must be rejected")

	_, err = conn.Exec("INSERT INTO buildings (name) VALUES ('hq')")
	require.NoError(t, err)
	_, err = conn.Exec("INSERT INTO scans (building_id, captured_at) VALUES (1, 0)")
	require.NoError(t, err)
	_, err = conn.Exec("INSERT INTO observations (scan_id, bssid, rssi) VALUES (1, 'AA', 5)")
	assert.Error(t, err, "positive rssi must be rejected")
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)
	require.NoError(t, Migrate(ctx, conn))

	boom := errors.New("boom")
	err := Transaction(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO buildings (name) VALUES ('a')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM buildings").Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, Transaction(ctx, conn, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO buildings (name) VALUES ('b')")
		return err
	}))
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM buildings").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestLoadMigrationsSortsAndSkipsInvalid(t *testing.T) {
	files := fstest.MapFS{
		"m/002_second.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"m/001_first.sql":  {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"m/notes.txt":      {Data: []byte("ignored")},
		"m/bad.sql":        {Data: []byte("ignored")},
	}
	m := NewMigrationManagerFS(nil, files, "m")

	migrations, err := m.LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "001_first", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
