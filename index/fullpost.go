package index

import (
	"context"
	"strings"

	"mediavault/sqlitedb"
	"mediavault/vaulterr"
)

// AddFullPost implements add_full_post (§4.3.4): a single transaction that
// stamps every post with in.BatchID (a zero BatchID leaves import_batch_id
// NULL), creates one post (max(len(items),1) posts when Flatten is set),
// bulk-inserts items via one multi-VALUES statement, and bulk-inserts the
// tag×post cartesian product.
func (idx *Index) AddFullPost(ctx context.Context, in CreateFullPost) ([]Post, error) {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	createdAt := in.CreatedAt.Format(timeLayout)

	postCount := 1
	if in.Flatten {
		postCount = len(in.Items)
		if postCount == 0 {
			postCount = 1
		}
	}

	var batchID any
	if in.BatchID != 0 {
		batchID = in.BatchID
	}

	postIDs := make([]int64, 0, postCount)
	for i := 0; i < postCount; i++ {
		res, err := tx.Exec(ctx, `INSERT INTO posts (source, title, description, import_batch_id, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			in.Source, in.Title, in.Description, batchID, createdAt)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, wrapSQLErr(err)
		}
		postIDs = append(postIDs, id)
	}

	if err := bulkInsertPostItems(ctx, tx, postIDs, in.Items, in.Flatten, createdAt); err != nil {
		return nil, err
	}

	if err := bulkInsertTagLinks(ctx, tx, postIDs, in.TagIDs); err != nil {
		return nil, err
	}

	for _, id := range postIDs {
		if err := refreshPostVTab(ctx, tx, id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	posts := make([]Post, len(postIDs))
	for i, id := range postIDs {
		posts[i] = Post{
			ID: id, Source: in.Source, Title: in.Title, Description: in.Description,
			CreatedAt: in.CreatedAt,
		}
		if in.BatchID != 0 {
			posts[i].ImportBatchID = &in.BatchID
		}
	}
	return posts, nil
}

// bulkInsertPostItems inserts every item in a single parameterized
// multi-VALUES statement. When flattened, each post gets exactly its one
// item at position 0; otherwise every item is attached to the single post
// with increasing positions, preserving input order.
func bulkInsertPostItems(ctx context.Context, tx *sqlitedb.Tx, postIDs []int64, items []CreateFullPostItem, flatten bool, createdAt string) error {
	if len(items) == 0 {
		return nil
	}

	var placeholders []string
	var args []any
	for i, item := range items {
		postID := postIDs[0]
		position := i
		if flatten {
			postID = postIDs[i]
			position = 0
		}
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, postID, position, item.ContentID,
			item.Metadata.OriginalName, item.Metadata.OriginalDirectory,
			formatOptionalTime(item.Metadata.OriginalModified),
			formatOptionalTime(item.Metadata.OriginalAccessed),
			item.Metadata.UploadedAt.Format(timeLayout))
	}

	query := `INSERT INTO post_items
		(post_id, item_order, content_id, original_name, original_directory,
		 original_modified, original_accessed, uploaded_at)
		VALUES ` + strings.Join(placeholders, ", ")

	_, err := tx.Exec(ctx, query, args...)
	return err
}

// bulkInsertTagLinks inserts the cartesian product of postIDs × tagIDs in
// one statement.
func bulkInsertTagLinks(ctx context.Context, tx *sqlitedb.Tx, postIDs []int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	var placeholders []string
	var args []any
	for _, postID := range postIDs {
		for _, tagID := range tagIDs {
			placeholders = append(placeholders, "(?, ?)")
			args = append(args, tagID, postID)
		}
	}

	query := "INSERT OR IGNORE INTO tags_posts (tag_id, post_id) VALUES " + strings.Join(placeholders, ", ")
	_, err := tx.Exec(ctx, query, args...)
	return err
}

// UpdateFullPost patches a post and replaces its tag links.
func (idx *Index) UpdateFullPost(ctx context.Context, p Post, tagIDs []int64) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(ctx, `UPDATE posts SET source = ?, title = ?, description = ? WHERE post_id = ?`,
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

	if _, err := tx.Exec(ctx, `DELETE FROM tags_posts WHERE post_id = ?`, p.ID); err != nil {
		return err
	}
	if err := bulkInsertTagLinks(ctx, tx, []int64{p.ID}, tagIDs); err != nil {
		return err
	}

	if err := refreshPostVTab(ctx, tx, p.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// CascadeDeletePost implements cascade_delete_post (§4.3.5): deletes
// post_items, then tags_posts, then the post itself, transactionally.
// Media rows are left behind deliberately; GC does not reclaim them either.
func (idx *Index) CascadeDeletePost(ctx context.Context, postID int64) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ctx, `DELETE FROM post_items WHERE post_id = ?`, postID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tags_posts WHERE post_id = ?`, postID); err != nil {
		return err
	}
	if err := deletePostVTab(ctx, tx, postID); err != nil {
		return err
	}
	res, err := tx.Exec(ctx, `DELETE FROM posts WHERE post_id = ?`, postID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapSQLErr(err)
	}
	if n == 0 {
		return vaulterr.NotFound.New("post %d not found", postID)
	}

	return tx.Commit()
}

// GetPostDetail hydrates a post with its items (content + media) and tags,
// for the boundary API's get_post_detail.
func (idx *Index) GetPostDetail(ctx context.Context, postID int64) (PostDetail, bool, error) {
	post, ok, err := idx.GetPostByID(ctx, postID)
	if err != nil || !ok {
		return PostDetail{}, ok, err
	}

	page, err := idx.GetPageFromPost(ctx, postID, PageParams{PageSize: 1 << 30, Offset: 0})
	if err != nil {
		return PostDetail{}, false, err
	}

	detail := PostDetail{Post: post}
	for _, item := range page.Data {
		itemDetail, err := idx.GetFullPostItem(ctx, item)
		if err != nil {
			return PostDetail{}, false, err
		}
		detail.Items = append(detail.Items, itemDetail)
	}

	tags, err := idx.GetTagsFromPost(ctx, postID)
	if err != nil {
		return PostDetail{}, false, err
	}
	detail.Tags = tags

	return detail, true, nil
}

// GetFullPostItem hydrates one PostItem's Content and primary/thumbnail
// Media rows.
func (idx *Index) GetFullPostItem(ctx context.Context, item PostItem) (PostItemDetail, error) {
	content, ok, err := idx.GetByContentID(ctx, item.ContentID)
	if err != nil {
		return PostItemDetail{}, err
	}
	if !ok {
		return PostItemDetail{}, vaulterr.NotFound.New("content %d not found", item.ContentID)
	}

	primary, ok, err := idx.GetMediaByID(ctx, content.PrimaryMediaID)
	if err != nil {
		return PostItemDetail{}, err
	}
	if !ok {
		return PostItemDetail{}, vaulterr.NotFound.New("media %d not found", content.PrimaryMediaID)
	}

	thumbnail, ok, err := idx.GetMediaByID(ctx, content.ThumbnailID)
	if err != nil {
		return PostItemDetail{}, err
	}
	if !ok {
		return PostItemDetail{}, vaulterr.NotFound.New("media %d not found", content.ThumbnailID)
	}

	return PostItemDetail{Item: item, Content: content, Primary: primary, Thumbnail: thumbnail}, nil
}

// GetTagDetail is a convenience wrapper asserting existence, unlike
// GetTagByID which returns a found flag.
func (idx *Index) GetTagDetail(ctx context.Context, id int64) (Tag, error) {
	t, ok, err := idx.GetTagByID(ctx, id)
	if err != nil {
		return Tag{}, err
	}
	if !ok {
		return Tag{}, vaulterr.NotFound.New("tag %d not found", id)
	}
	return t, nil
}

// AddImportBatch creates a fresh ImportBatch; add_full_post callers and
// sync_from both mint one at the start of their operation.
func (idx *Index) AddImportBatch(ctx context.Context, b ImportBatch) (int64, error) {
	res, err := idx.db.Writer().ExecContext(ctx,
		`INSERT INTO import_batches (created_at) VALUES (?)`, b.CreatedAt.Format(timeLayout))
	if err != nil {
		return 0, wrapSQLErr(err)
	}
	return res.LastInsertId()
}
