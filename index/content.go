package index

import (
	"context"

	"mediavault/vaulterr"
)

// AddContent inserts a (primary, thumbnail) pairing. Identity is the
// primary media id.
func (idx *Index) AddContent(ctx context.Context, c Content) error {
	_, err := idx.db.Writer().ExecContext(ctx,
		`INSERT INTO content (content_id, thumbnail_id) VALUES (?, ?)`,
		c.PrimaryMediaID, c.ThumbnailID)
	if err != nil {
		if isUniqueViolation(err) {
			return vaulterr.Duplicate.New("content %d already exists", c.PrimaryMediaID)
		}
		return wrapSQLErr(err)
	}
	return nil
}

// GetByContentID returns (content, true, nil) if present.
func (idx *Index) GetByContentID(ctx context.Context, id int64) (Content, bool, error) {
	var c Content
	row := idx.db.Reader().QueryRowContext(ctx,
		`SELECT content_id, thumbnail_id FROM content WHERE content_id = ?`, id)
	err := row.Scan(&c.PrimaryMediaID, &c.ThumbnailID)
	if err != nil {
		if isNoRows(err) {
			return Content{}, false, nil
		}
		return Content{}, false, wrapSQLErr(err)
	}
	return c, true, nil
}

// UpdateThumbnailID re-points an existing Content row's thumbnail.
func (idx *Index) UpdateThumbnailID(ctx context.Context, contentID, thumbnailID int64) error {
	res, err := idx.db.Writer().ExecContext(ctx,
		`UPDATE content SET thumbnail_id = ? WHERE content_id = ?`, thumbnailID, contentID)
	if err != nil {
		return wrapSQLErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapSQLErr(err)
	}
	if n == 0 {
		return vaulterr.NotFound.New("content %d not found", contentID)
	}
	return nil
}
