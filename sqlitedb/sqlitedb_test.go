package sqlitedb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mediavault/sqlitedb"
)

func TestOpenAndWriteReadSplit(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlitedb.Open(filepath.Join(dir, "bucket.db"), sqlitedb.Options{})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	_, err = db.Writer().ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO t (v) VALUES (?)", "hello")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var v string
	row := db.Reader().QueryRowContext(ctx, "SELECT v FROM t WHERE id = 1")
	require.NoError(t, row.Scan(&v))
	require.Equal(t, "hello", v)
}

func TestMaintain(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlitedb.Open(filepath.Join(dir, "bucket.db"), sqlitedb.Options{})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.Writer().ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	require.NoError(t, db.Maintain(ctx))
}
