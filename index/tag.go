package index

import (
	"context"
	"database/sql"
	"time"

	"mediavault/sqlitedb"
	"mediavault/vaulterr"
)

// AddTag inserts a new Tag. Name case-insensitive uniqueness is
// recommended, not enforced at the DB level (§3 expansion); callers wanting
// dedup-by-name should query by name first (the COLLATE NOCASE index keeps
// that lookup cheap) rather than relying on a constraint violation here.
func (idx *Index) AddTag(ctx context.Context, t Tag) (int64, error) {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(ctx, `INSERT INTO tags (name, group_id, created_at) VALUES (?, ?, ?)`,
		t.Name, t.GroupID, t.CreatedAt.Format(timeLayout))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapSQLErr(err)
	}

	if err := refreshTagVTab(ctx, tx, id, t.Name); err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

// UpdateTag patches name/group for an existing tag, resyncing tags_vtab and
// every linked post's posts_vtab row (the tags column mirrors tag names).
func (idx *Index) UpdateTag(ctx context.Context, t Tag) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(ctx, `UPDATE tags SET name = ?, group_id = ? WHERE tag_id = ?`,
		t.Name, t.GroupID, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapSQLErr(err)
	}
	if n == 0 {
		return vaulterr.NotFound.New("tag %d not found", t.ID)
	}

	if err := refreshTagVTab(ctx, tx, t.ID, t.Name); err != nil {
		return err
	}

	postIDs, err := linkedPostIDs(ctx, tx, t.ID)
	if err != nil {
		return err
	}
	for _, postID := range postIDs {
		if err := refreshPostVTab(ctx, tx, postID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteTag removes a tag and its post links, resyncing tags_vtab and every
// affected post's posts_vtab row (the tags column mirrors tag names).
func (idx *Index) DeleteTag(ctx context.Context, id int64) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	postIDs, err := linkedPostIDs(ctx, tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tags_posts WHERE tag_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(ctx, `DELETE FROM tags WHERE tag_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapSQLErr(err)
	}
	if n == 0 {
		return vaulterr.NotFound.New("tag %d not found", id)
	}

	if err := deleteTagVTab(ctx, tx, id); err != nil {
		return err
	}
	for _, postID := range postIDs {
		if err := refreshPostVTab(ctx, tx, postID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// linkedPostIDs lists every post currently tagged with tagID.
func linkedPostIDs(ctx context.Context, tx *sqlitedb.Tx, tagID int64) ([]int64, error) {
	rows, err := tx.Query(ctx, `SELECT post_id FROM tags_posts WHERE tag_id = ?`, tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapSQLErr(err)
		}
		ids = append(ids, id)
	}
	return ids, wrapSQLErr(rows.Err())
}

// GetTagByID returns (tag, true, nil) if present.
func (idx *Index) GetTagByID(ctx context.Context, id int64) (Tag, bool, error) {
	row := idx.db.Reader().QueryRowContext(ctx, tagSelect+` WHERE tag_id = ?`, id)
	return scanTag(row)
}

// GetTagByName performs the exact-match lookup tag re-materialization
// (§4.8) needs, leaning on the COLLATE NOCASE index.
func (idx *Index) GetTagByName(ctx context.Context, name string) (Tag, bool, error) {
	row := idx.db.Reader().QueryRowContext(ctx, tagSelect+` WHERE name = ? COLLATE NOCASE`, name)
	return scanTag(row)
}

// AddTagToPost links an existing tag to an existing post and resyncs the
// post's posts_vtab row, whose tags column mirrors linked tag names.
func (idx *Index) AddTagToPost(ctx context.Context, tagID, postID int64) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ctx, `INSERT OR IGNORE INTO tags_posts (tag_id, post_id) VALUES (?, ?)`, tagID, postID); err != nil {
		return err
	}
	if err := refreshPostVTab(ctx, tx, postID); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveTagFromPost unlinks a tag from a post and resyncs posts_vtab.
func (idx *Index) RemoveTagFromPost(ctx context.Context, tagID, postID int64) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ctx, `DELETE FROM tags_posts WHERE tag_id = ? AND post_id = ?`, tagID, postID); err != nil {
		return err
	}
	if err := refreshPostVTab(ctx, tx, postID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetTagsFromPost lists every tag linked to a post.
func (idx *Index) GetTagsFromPost(ctx context.Context, postID int64) ([]Tag, error) {
	rows, err := idx.db.Reader().QueryContext(ctx, tagSelect+
		` JOIN tags_posts tp ON tp.tag_id = tags.tag_id WHERE tp.post_id = ?`, postID)
	if err != nil {
		return nil, wrapSQLErr(err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		t, ok, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		if ok {
			tags = append(tags, t)
		}
	}
	return tags, wrapSQLErr(rows.Err())
}

const tagSelect = `SELECT tags.tag_id, tags.name, tags.group_id, tags.created_at FROM tags`

func scanTag(row rowScanner) (Tag, bool, error) {
	var t Tag
	var groupID sql.NullInt64
	var createdAt string
	err := row.Scan(&t.ID, &t.Name, &groupID, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return Tag{}, false, nil
		}
		return Tag{}, false, wrapSQLErr(err)
	}
	if groupID.Valid {
		t.GroupID = &groupID.Int64
	}
	t.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return t, true, nil
}
