package index

import (
	"context"
	"database/sql"
	"encoding/hex"
	"time"

	"mediavault/sqlitedb"
	"mediavault/vaulterr"
)

// timeLayout is the on-disk string format for timestamp columns.
const timeLayout = time.RFC3339Nano

// Index wraps a bucket's SQLite database with the media-vault schema and
// query surface. All methods return the uniform failure model from §4.3.7:
// vaulterr.Duplicate / vaulterr.NotFound / vaulterr.IO / vaulterr.SQL.
type Index struct {
	db *sqlitedb.Database
}

// Open opens (creating if absent) the index database at path and runs
// migrations. masterSecretHex, when non-empty, is applied as the SQLCipher
// page key.
func Open(ctx context.Context, path string, masterSecretHex string) (*Index, error) {
	db, err := sqlitedb.Open(path, sqlitedb.Options{EncryptionKeyHex: masterSecretHex})
	if err != nil {
		return nil, err
	}

	if err := migrate(ctx, db.Writer()); err != nil {
		db.Close()
		return nil, err
	}

	return &Index{db: db}, nil
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// GC runs the housekeeping sequence described in §4.3.6. It is invoked on
// first unlock and on demand; it does not reclaim orphan blobs (§9 Open
// Question 4 — see DESIGN.md).
func (idx *Index) GC(ctx context.Context) error {
	return idx.db.Maintain(ctx)
}

func blobIDHex(id [16]byte) string {
	return hex.EncodeToString(id[:])
}

func wrapSQLErr(err error) error {
	if err == nil {
		return nil
	}
	return vaulterr.SQL.Wrap(err)
}

// isNoRows reports whether err is sql.ErrNoRows, which by-id lookups turn
// into (T, false, nil), not NotFound — that's reserved for
// asserted-existence operations.
func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}
