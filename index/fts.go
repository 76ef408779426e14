package index

import (
	"context"
	"database/sql"

	"mediavault/sqlitedb"
)

// refreshPostVTab recomputes postID's posts_vtab row from the tables it
// aggregates (posts, tags_posts/tags, post_items, content/media). Contentless
// FTS5 tables take no UPDATE, so every refresh deletes the old row (a plain
// DELETE is legal here because the table carries contentless_delete=1) and
// inserts the recomputed one keyed by rowid = post_id, matching the
// `v.rowid = p.post_id` join search.go reads back through.
func refreshPostVTab(ctx context.Context, tx *sqlitedb.Tx, postID int64) error {
	if err := deletePostVTab(ctx, tx, postID); err != nil {
		return err
	}

	var title, description, source sql.NullString
	err := tx.Underlying().QueryRowContext(ctx,
		`SELECT title, description, source FROM posts WHERE post_id = ?`, postID,
	).Scan(&title, &description, &source)
	if err != nil {
		if isNoRows(err) {
			return nil
		}
		return wrapSQLErr(err)
	}

	var tags sql.NullString
	err = tx.Underlying().QueryRowContext(ctx,
		`SELECT group_concat(t.name, ' ') FROM tags_posts tp
			JOIN tags t ON t.tag_id = tp.tag_id WHERE tp.post_id = ?`, postID,
	).Scan(&tags)
	if err != nil {
		return wrapSQLErr(err)
	}

	var originalName, originalDirectory sql.NullString
	err = tx.Underlying().QueryRowContext(ctx,
		`SELECT group_concat(original_name, ' '), group_concat(original_directory, ' ')
			FROM post_items WHERE post_id = ?`, postID,
	).Scan(&originalName, &originalDirectory)
	if err != nil {
		return wrapSQLErr(err)
	}

	var documentTitle, documentAuthor sql.NullString
	err = tx.Underlying().QueryRowContext(ctx,
		`SELECT group_concat(m.meta_title, ' '), group_concat(m.meta_author, ' ')
			FROM post_items pi JOIN media m ON m.media_id = pi.content_id WHERE pi.post_id = ?`, postID,
	).Scan(&documentTitle, &documentAuthor)
	if err != nil {
		return wrapSQLErr(err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO posts_vtab
		(rowid, title, description, source, tags, original_name, original_directory, document_title, document_author)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		postID, title.String, description.String, source.String, tags.String,
		originalName.String, originalDirectory.String, documentTitle.String, documentAuthor.String)
	return err
}

// deletePostVTab removes postID's posts_vtab row, if any.
func deletePostVTab(ctx context.Context, tx *sqlitedb.Tx, postID int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM posts_vtab WHERE rowid = ?`, postID)
	return err
}

// refreshTagVTab rewrites tagID's single-column tags_vtab row.
func refreshTagVTab(ctx context.Context, tx *sqlitedb.Tx, tagID int64, name string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM tags_vtab WHERE rowid = ?`, tagID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `INSERT INTO tags_vtab (rowid, name) VALUES (?, ?)`, tagID, name)
	return err
}

// deleteTagVTab removes tagID's tags_vtab row, if any.
func deleteTagVTab(ctx context.Context, tx *sqlitedb.Tx, tagID int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM tags_vtab WHERE rowid = ?`, tagID)
	return err
}

// refreshTagGroupVTab rewrites groupID's single-column tag_groups_vtab row.
func refreshTagGroupVTab(ctx context.Context, tx *sqlitedb.Tx, groupID int64, name string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM tag_groups_vtab WHERE rowid = ?`, groupID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `INSERT INTO tag_groups_vtab (rowid, name) VALUES (?, ?)`, groupID, name)
	return err
}
