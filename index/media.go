package index

import (
	"context"
	"database/sql"
	"strings"

	"mediavault/vaulterr"
)

// AddMedia inserts a new Media row. Callers are expected to have already
// checked GetBySHA256 for dedup (§4.4 step 5); Add still maps a unique
// violation on sha256 to vaulterr.Duplicate as a backstop.
func (idx *Index) AddMedia(ctx context.Context, m Media) (int64, error) {
	res, err := idx.db.Writer().ExecContext(ctx, `
		INSERT INTO media (blob_id, size, sha1, sha256, md5, mime_type,
			metadata_kind, meta_width, meta_height, meta_duration_s,
			meta_codec, meta_pages, meta_title, meta_author)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.BlobID[:], m.Size, m.SHA1, m.SHA256, m.MD5, m.MimeType,
		string(m.Metadata.Kind), m.Metadata.Width, m.Metadata.Height,
		m.Metadata.DurationSeconds, m.Metadata.Codec, m.Metadata.Pages,
		m.Metadata.Title, m.Metadata.Author,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, vaulterr.Duplicate.Wrap(err)
		}
		return 0, wrapSQLErr(err)
	}
	return res.LastInsertId()
}

// RemoveMedia deletes a Media row by id. Returns vaulterr.NotFound if
// absent, per §4.3.7 (delete asserts existence).
func (idx *Index) RemoveMedia(ctx context.Context, id int64) error {
	res, err := idx.db.Writer().ExecContext(ctx, `DELETE FROM media WHERE media_id = ?`, id)
	if err != nil {
		return wrapSQLErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapSQLErr(err)
	}
	if n == 0 {
		return vaulterr.NotFound.New("media %d not found", id)
	}
	return nil
}

// GetMediaByID returns (media, true, nil) if present, (Media{}, false, nil)
// if absent — by-id lookups never return NotFound (§4.3.7).
func (idx *Index) GetMediaByID(ctx context.Context, id int64) (Media, bool, error) {
	row := idx.db.Reader().QueryRowContext(ctx, mediaSelect+` WHERE media_id = ?`, id)
	return scanMedia(row)
}

// GetMediaBySHA256 is the dedup lookup used by the import pipeline.
func (idx *Index) GetMediaBySHA256(ctx context.Context, sha256hex string) (Media, bool, error) {
	row := idx.db.Reader().QueryRowContext(ctx, mediaSelect+` WHERE sha256 = ?`, sha256hex)
	return scanMedia(row)
}

// GetTotalSize returns the sum of every Media row's size.
func (idx *Index) GetTotalSize(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	if err := idx.db.Reader().QueryRowContext(ctx, `SELECT SUM(size) FROM media`).Scan(&total); err != nil {
		return 0, wrapSQLErr(err)
	}
	return total.Int64, nil
}

// GetCount returns the number of Media rows.
func (idx *Index) GetCount(ctx context.Context) (int64, error) {
	var count int64
	if err := idx.db.Reader().QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&count); err != nil {
		return 0, wrapSQLErr(err)
	}
	return count, nil
}

const mediaSelect = `SELECT media_id, blob_id, size, sha1, sha256, md5, mime_type,
	metadata_kind, meta_width, meta_height, meta_duration_s, meta_codec,
	meta_pages, meta_title, meta_author FROM media`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (Media, bool, error) {
	var m Media
	var blobID []byte
	var kind string
	err := row.Scan(&m.ID, &blobID, &m.Size, &m.SHA1, &m.SHA256, &m.MD5,
		&m.MimeType, &kind, &m.Metadata.Width, &m.Metadata.Height,
		&m.Metadata.DurationSeconds, &m.Metadata.Codec, &m.Metadata.Pages,
		&m.Metadata.Title, &m.Metadata.Author)
	if err != nil {
		if isNoRows(err) {
			return Media{}, false, nil
		}
		return Media{}, false, wrapSQLErr(err)
	}
	copy(m.BlobID[:], blobID)
	m.Metadata.Kind = MetadataKind(kind)
	return m, true, nil
}

// isUniqueViolation detects a SQLite unique-constraint failure by message,
// since mattn/go-sqlite3's typed sqlite3.Error isn't imported directly here
// to keep the index package's error mapping in one place.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
