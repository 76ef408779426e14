package index

import (
	"context"
	"database/sql"
	"time"

	"mediavault/vaulterr"
)

// AddPost inserts a single Post row (used outside the add_full_post bulk
// path, e.g. by callers assembling posts one at a time) and its posts_vtab
// row.
func (idx *Index) AddPost(ctx context.Context, p Post) (int64, error) {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(ctx,
		`INSERT INTO posts (source, title, description, import_batch_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Source, p.Title, p.Description, p.ImportBatchID, p.CreatedAt.Format(timeLayout))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapSQLErr(err)
	}
	if err := refreshPostVTab(ctx, tx, id); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// UpdatePost patches title/description/source for an existing post and
// resyncs its posts_vtab row.
func (idx *Index) UpdatePost(ctx context.Context, p Post) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(ctx,
		`UPDATE posts SET source = ?, title = ?, description = ? WHERE post_id = ?`,
		p.Source, p.Title, p.Description, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapSQLErr(err)
	}
	if n == 0 {
		return vaulterr.NotFound.New("post %d not found", p.ID)
	}
	if err := refreshPostVTab(ctx, tx, p.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetPostByID returns (post, true, nil) if present, with TotalDuration
// derived from its items' video metadata.
func (idx *Index) GetPostByID(ctx context.Context, id int64) (Post, bool, error) {
	row := idx.db.Reader().QueryRowContext(ctx, postSelectSQL+` WHERE p.post_id = ?
		GROUP BY p.post_id`, id)
	return scanPost(row)
}

// GetPage paginates posts in default (newest-first) order.
func (idx *Index) GetPage(ctx context.Context, page PageParams) (Page[Post], error) {
	var total int64
	if err := idx.db.Reader().QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return Page[Post]{}, wrapSQLErr(err)
	}

	rows, err := idx.db.Reader().QueryContext(ctx, postSelectSQL+
		` GROUP BY p.post_id ORDER BY p.created_at DESC LIMIT ? OFFSET ?`,
		page.PageSize, page.Offset)
	if err != nil {
		return Page[Post]{}, wrapSQLErr(err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, ok, err := scanPost(rows)
		if err != nil {
			return Page[Post]{}, err
		}
		if ok {
			posts = append(posts, p)
		}
	}
	if err := rows.Err(); err != nil {
		return Page[Post]{}, wrapSQLErr(err)
	}

	return Page[Post]{
		PageSize:      page.PageSize,
		TotalRowCount: total,
		PageNumber:    page.Offset,
		Data:          posts,
	}, nil
}

// postSelectSQL joins posts to its items' video duration metadata to derive
// TotalDuration (§3 expansion): SUM of video durations across a post's
// items, backing require_playable's total_duration > 0 filter.
const postSelectSQL = `SELECT p.post_id, p.source, p.title, p.description,
	p.import_batch_id, p.created_at,
	COALESCE(SUM(m.meta_duration_s), 0.0) AS total_duration
	FROM posts p
	LEFT JOIN post_items pi ON pi.post_id = p.post_id
	LEFT JOIN content c ON c.content_id = pi.content_id
	LEFT JOIN media m ON m.media_id = c.content_id AND m.metadata_kind = 'video'`

func scanPost(row rowScanner) (Post, bool, error) {
	var p Post
	var createdAt string
	var batchID sql.NullInt64
	err := row.Scan(&p.ID, &p.Source, &p.Title, &p.Description, &batchID,
		&createdAt, &p.TotalDuration)
	if err != nil {
		if isNoRows(err) {
			return Post{}, false, nil
		}
		return Post{}, false, wrapSQLErr(err)
	}
	if batchID.Valid {
		p.ImportBatchID = &batchID.Int64
	}
	p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return p, true, nil
}
