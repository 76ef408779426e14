// Package sqlitedb wraps database/sql around github.com/mattn/go-sqlite3,
// opening the split write/read connection pools the index package builds on
// top of and applying the PRAGMAs a bucket's database file needs.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mediavault/vaulterr"
)

// Options configures the PRAGMAs applied to a freshly opened database.
type Options struct {
	// JournalMode defaults to WAL.
	JournalMode string
	// Synchronous defaults to NORMAL.
	Synchronous string
	// BusyTimeout defaults to 10s.
	BusyTimeout time.Duration
	// CacheSize in pages; 0 leaves sqlite's default.
	CacheSize int
	// EncryptionKeyHex, when non-empty, is applied as PRAGMA key on every
	// connection before anything else runs, assuming a SQLCipher-enabled
	// build of the driver.
	EncryptionKeyHex string
}

func (o Options) withDefaults() Options {
	if o.JournalMode == "" {
		o.JournalMode = "WAL"
	}
	if o.Synchronous == "" {
		o.Synchronous = "NORMAL"
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = 10 * time.Second
	}
	return o
}

// Database is a bucket's SQLite handle: one single-connection write pool and
// one multi-connection read-only pool, both against the same file, so that
// readers are never blocked behind SQLITE_BUSY from a writer holding the
// WAL's single write lock.
type Database struct {
	write *sql.DB
	read  *sql.DB
}

// Open opens both pools against path, creating the file if absent, and
// applies the configured PRAGMAs to every connection either pool hands out.
func Open(path string, opts Options) (*Database, error) {
	if path == "" {
		return nil, vaulterr.IO.New("sqlitedb: empty path")
	}
	opts = opts.withDefaults()

	write, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, vaulterr.SQL.Wrap(err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxLifetime(0)

	read, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_journal_mode=WAL", path))
	if err != nil {
		write.Close()
		return nil, vaulterr.SQL.Wrap(err)
	}
	read.SetMaxOpenConns(64)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, pool := range []*sql.DB{write, read} {
		if err := applyPragmas(ctx, pool, opts); err != nil {
			write.Close()
			read.Close()
			return nil, err
		}
	}

	if err := write.PingContext(ctx); err != nil {
		write.Close()
		read.Close()
		return nil, vaulterr.SQL.Wrap(err)
	}

	return &Database{write: write, read: read}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, opts Options) error {
	pragmas := []string{}
	if opts.EncryptionKeyHex != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA key = \"x'%s'\"", opts.EncryptionKeyHex))
	}
	pragmas = append(pragmas,
		fmt.Sprintf("PRAGMA journal_mode=%s", opts.JournalMode),
		fmt.Sprintf("PRAGMA synchronous=%s", opts.Synchronous),
		fmt.Sprintf("PRAGMA busy_timeout=%d", opts.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys=ON",
	)
	if opts.CacheSize != 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA cache_size=%d", opts.CacheSize))
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return vaulterr.SQL.Wrap(fmt.Errorf("apply %s: %w", pragma, err))
		}
	}
	return nil
}

// Close closes both pools.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	var firstErr error
	if d.write != nil {
		firstErr = d.write.Close()
	}
	if d.read != nil {
		if err := d.read.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Maintain runs the housekeeping sequence a bucket's gc() operation needs:
// a full WAL checkpoint, ANALYZE optimization, and VACUUM to reclaim free
// pages left behind by deleted rows. It does not touch the blob store.
func (d *Database) Maintain(ctx context.Context) error {
	stmts := []string{
		"PRAGMA wal_checkpoint(TRUNCATE)",
		"PRAGMA optimize",
		"VACUUM",
	}
	for _, stmt := range stmts {
		if _, err := d.write.ExecContext(ctx, stmt); err != nil {
			return vaulterr.SQL.Wrap(fmt.Errorf("%s: %w", stmt, err))
		}
	}
	return nil
}

// Writer returns the single-connection pool for INSERT/UPDATE/DELETE and
// schema migrations.
func (d *Database) Writer() *sql.DB {
	return d.write
}

// Reader returns the multi-connection read-only pool for queries.
func (d *Database) Reader() *sql.DB {
	return d.read
}

// BeginTx starts a write transaction. All writes to a bucket's database go
// through the write pool's single connection, so transactions never contend
// with each other for the write lock — they queue instead of failing with
// SQLITE_BUSY.
func (d *Database) BeginTx(ctx context.Context, txOpts *sql.TxOptions) (*Tx, error) {
	tx, err := d.write.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, vaulterr.SQL.Wrap(err)
	}
	return &Tx{tx: tx}, nil
}

// Tx is a thin wrapper over *sql.Tx that classifies errors into vaulterr.SQL.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, vaulterr.SQL.Wrap(err)
	}
	return res, nil
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, vaulterr.SQL.Wrap(err)
	}
	return rows, nil
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return vaulterr.SQL.Wrap(err)
	}
	return nil
}

func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return vaulterr.SQL.Wrap(err)
	}
	return nil
}

// Underlying exposes the raw *sql.Tx for callers (e.g. index) that need
// driver-specific behavior beyond this wrapper's surface.
func (t *Tx) Underlying() *sql.Tx {
	return t.tx
}
