package index

import (
	"context"
	"database/sql"

	"mediavault/vaulterr"
)

// schemaStatements is the forward-only migration set, run once on open
// bracketed by PRAGMA foreign_keys = off/on per §4.3.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS media (
		media_id      INTEGER PRIMARY KEY AUTOINCREMENT,
		blob_id       BLOB NOT NULL UNIQUE,
		size          INTEGER NOT NULL,
		sha1          TEXT NOT NULL,
		sha256        TEXT NOT NULL UNIQUE,
		md5           TEXT NOT NULL,
		mime_type     TEXT NOT NULL,
		metadata_kind TEXT NOT NULL,
		meta_width        INTEGER,
		meta_height       INTEGER,
		meta_duration_s   REAL,
		meta_codec        TEXT,
		meta_pages        INTEGER,
		meta_title        TEXT,
		meta_author       TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS content (
		content_id    INTEGER PRIMARY KEY,
		thumbnail_id  INTEGER NOT NULL,
		FOREIGN KEY (content_id) REFERENCES media(media_id),
		FOREIGN KEY (thumbnail_id) REFERENCES media(media_id)
	)`,
	`CREATE TABLE IF NOT EXISTS import_batches (
		import_batch_id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		post_id         INTEGER PRIMARY KEY AUTOINCREMENT,
		source          TEXT,
		title           TEXT,
		description     TEXT,
		import_batch_id INTEGER,
		created_at      TEXT NOT NULL,
		FOREIGN KEY (import_batch_id) REFERENCES import_batches(import_batch_id)
	)`,
	`CREATE TABLE IF NOT EXISTS post_items (
		post_id             INTEGER NOT NULL,
		item_order          INTEGER NOT NULL,
		content_id          INTEGER NOT NULL,
		original_name       TEXT NOT NULL,
		original_directory  TEXT NOT NULL,
		original_modified   TEXT,
		original_accessed   TEXT,
		uploaded_at         TEXT NOT NULL,
		PRIMARY KEY (post_id, item_order),
		FOREIGN KEY (post_id) REFERENCES posts(post_id),
		FOREIGN KEY (content_id) REFERENCES content(content_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tag_group (
		group_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		color       TEXT NOT NULL,
		created_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		tag_id      INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		group_id    INTEGER,
		created_at  TEXT NOT NULL,
		FOREIGN KEY (group_id) REFERENCES tag_group(group_id)
	)`,
	`CREATE INDEX IF NOT EXISTS tags_name_nocase ON tags(name COLLATE NOCASE)`,
	`CREATE TABLE IF NOT EXISTS tags_posts (
		tag_id  INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		PRIMARY KEY (tag_id, post_id),
		FOREIGN KEY (tag_id) REFERENCES tags(tag_id),
		FOREIGN KEY (post_id) REFERENCES posts(post_id)
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS posts_vtab USING fts5(
		title, description, source, tags, original_name, original_directory,
		document_title, document_author,
		content='', contentless_delete=1
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS tags_vtab USING fts5(name, content='', contentless_delete=1)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS tag_groups_vtab USING fts5(name, content='', contentless_delete=1)`,
}

// migrate applies schemaStatements, bracketed by PRAGMA foreign_keys=off/on
// so that table creation order doesn't have to satisfy FK dependencies.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=OFF"); err != nil {
		return vaulterr.SQL.Wrap(err)
	}
	defer db.ExecContext(ctx, "PRAGMA foreign_keys=ON")

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return vaulterr.SQL.Wrap(err)
		}
	}
	return nil
}
