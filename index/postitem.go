package index

import (
	"context"
	"database/sql"
	"time"

	"mediavault/vaulterr"
)

// AddPostItem inserts a single post item at an explicit position and
// resyncs the owning post's posts_vtab row (original_name/original_directory
// mirror every item). Bulk inserts (add_full_post) go through
// bulkInsertPostItems instead.
func (idx *Index) AddPostItem(ctx context.Context, item PostItem) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(ctx, insertPostItemSQL,
		item.PostID, item.Position, item.ContentID,
		item.Upload.OriginalName, item.Upload.OriginalDirectory,
		formatOptionalTime(item.Upload.OriginalModified),
		formatOptionalTime(item.Upload.OriginalAccessed),
		item.Upload.UploadedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return vaulterr.Duplicate.New("post %d already has an item at position %d", item.PostID, item.Position)
		}
		return err
	}

	if err := refreshPostVTab(ctx, tx, item.PostID); err != nil {
		return err
	}

	return tx.Commit()
}

const insertPostItemSQL = `INSERT INTO post_items
	(post_id, item_order, content_id, original_name, original_directory,
	 original_modified, original_accessed, uploaded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// GetPostItemByID returns the item at (post, pos), if any.
func (idx *Index) GetPostItemByID(ctx context.Context, post int64, pos int) (PostItem, bool, error) {
	row := idx.db.Reader().QueryRowContext(ctx, postItemSelect+
		` WHERE post_id = ? AND item_order = ?`, post, pos)
	return scanPostItem(row)
}

// GetPageFromPost paginates a post's items ordered by position.
func (idx *Index) GetPageFromPost(ctx context.Context, post int64, page PageParams) (Page[PostItem], error) {
	var total int64
	if err := idx.db.Reader().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_items WHERE post_id = ?`, post).Scan(&total); err != nil {
		return Page[PostItem]{}, wrapSQLErr(err)
	}

	rows, err := idx.db.Reader().QueryContext(ctx, postItemSelect+
		` WHERE post_id = ? ORDER BY item_order ASC LIMIT ? OFFSET ?`,
		post, page.PageSize, page.Offset)
	if err != nil {
		return Page[PostItem]{}, wrapSQLErr(err)
	}
	defer rows.Close()

	var items []PostItem
	for rows.Next() {
		item, ok, err := scanPostItem(rows)
		if err != nil {
			return Page[PostItem]{}, err
		}
		if ok {
			items = append(items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return Page[PostItem]{}, wrapSQLErr(err)
	}

	return Page[PostItem]{
		PageSize:      page.PageSize,
		TotalRowCount: total,
		PageNumber:    page.Offset,
		Data:          items,
	}, nil
}

const postItemSelect = `SELECT post_id, item_order, content_id, original_name,
	original_directory, original_modified, original_accessed, uploaded_at
	FROM post_items`

func scanPostItem(row rowScanner) (PostItem, bool, error) {
	var item PostItem
	var modified, accessed sql.NullString
	var uploadedAt string
	err := row.Scan(&item.PostID, &item.Position, &item.ContentID,
		&item.Upload.OriginalName, &item.Upload.OriginalDirectory,
		&modified, &accessed, &uploadedAt)
	if err != nil {
		if isNoRows(err) {
			return PostItem{}, false, nil
		}
		return PostItem{}, false, wrapSQLErr(err)
	}
	item.Upload.OriginalModified = parseOptionalTime(modified)
	item.Upload.OriginalAccessed = parseOptionalTime(accessed)
	item.Upload.UploadedAt, _ = time.Parse(timeLayout, uploadedAt)
	return item, true, nil
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(timeLayout)
}

func parseOptionalTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
