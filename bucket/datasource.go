// Package bucket composes BlobStore + Index + Secret into the uniform
// DataSource facade the HTTP/CLI layers (out of scope here) consume.
package bucket

import (
	"context"
	"io"

	"github.com/google/uuid"

	"mediavault/index"
	"mediavault/mediaimport"
)

// DataSource is the boundary API of §6.2: every operation the HTTP/CLI
// layers need, uniform across a local encrypted bucket and a (stubbed)
// remote HTTP-backed one.
type DataSource interface {
	// Blob ops.
	AddBlob(id uuid.UUID) (io.WriteCloser, error)
	GetBlob(id uuid.UUID) (io.ReadSeekCloser, error)
	DeleteBlob(id uuid.UUID) error
	HasBlob(id uuid.UUID) bool

	// Media ops.
	AddMedia(ctx context.Context, m index.Media) (int64, error)
	RemoveMedia(ctx context.Context, id int64) error
	GetMediaByID(ctx context.Context, id int64) (index.Media, bool, error)
	GetMediaBySHA256(ctx context.Context, sha256 string) (index.Media, bool, error)
	GetTotalSize(ctx context.Context) (int64, error)
	GetMediaCount(ctx context.Context) (int64, error)

	// Content ops.
	AddContent(ctx context.Context, c index.Content) error
	GetByContentID(ctx context.Context, id int64) (index.Content, bool, error)
	UpdateThumbnailID(ctx context.Context, contentID, thumbnailID int64) error

	// PostItem ops.
	AddPostItem(ctx context.Context, item index.PostItem) error
	GetPostItemByID(ctx context.Context, post int64, pos int) (index.PostItem, bool, error)
	GetPageFromPost(ctx context.Context, post int64, page index.PageParams) (index.Page[index.PostItem], error)

	// Post ops.
	AddPost(ctx context.Context, p index.Post) (int64, error)
	UpdatePost(ctx context.Context, p index.Post) error
	GetPostByID(ctx context.Context, id int64) (index.Post, bool, error)
	GetPage(ctx context.Context, page index.PageParams) (index.Page[index.Post], error)

	// Tag ops.
	AddTag(ctx context.Context, t index.Tag) (int64, error)
	UpdateTag(ctx context.Context, t index.Tag) error
	DeleteTag(ctx context.Context, id int64) error
	GetTagByID(ctx context.Context, id int64) (index.Tag, bool, error)
	GetTagByName(ctx context.Context, name string) (index.Tag, bool, error)
	AddTagToPost(ctx context.Context, tagID, postID int64) error
	RemoveTagFromPost(ctx context.Context, tagID, postID int64) error

	// TagGroup ops.
	AddTagGroup(ctx context.Context, g index.TagGroup) (int64, error)
	GetTagGroupByID(ctx context.Context, id int64) (index.TagGroup, bool, error)
	SearchTagGroups(ctx context.Context, query string, exact bool, page index.PageParams) (index.Page[index.TagGroup], error)

	// Password ops. ValidatePassword returns (derived token secret, true,
	// nil) on success — including for a bucket that isn't protected, whatever
	// password was supplied — and (zero, false, nil), not an error, for a
	// wrong password.
	ValidatePassword(password string) ([32]byte, bool, error)

	// MediaImport.
	ImportMedia(ctx context.Context, mimeType string, source mediaimport.Source) (index.Content, error)

	// Cross ops.
	SearchPosts(ctx context.Context, q index.SearchQuery, page index.PageParams) (index.Page[index.Post], error)
	SearchItems(ctx context.Context, postID int64, page index.PageParams) (index.Page[index.PostItem], error)
	SearchTags(ctx context.Context, query string, exact bool, page index.PageParams) (index.Page[index.Tag], error)
	GetPostDetail(ctx context.Context, postID int64) (index.PostDetail, bool, error)
	GetFullPostItem(ctx context.Context, item index.PostItem) (index.PostItemDetail, error)
	AddFullPost(ctx context.Context, in index.CreateFullPost) ([]index.Post, error)
	UpdateFullPost(ctx context.Context, p index.Post, tagIDs []int64) error
	CascadeDeletePost(ctx context.Context, postID int64) error
	GraphPost(ctx context.Context, q index.SearchQuery, discriminator index.GraphDiscriminator, bucketSeconds int64) (index.Graph, error)
	GetTagsFromPost(ctx context.Context, postID int64) ([]index.Tag, error)
	GetTagDetail(ctx context.Context, id int64) (index.Tag, error)
	AddImportBatch(ctx context.Context, b index.ImportBatch) (int64, error)
	GC(ctx context.Context) error

	// Close releases the data source's held resources (DB connections,
	// file handles). Called once when an instance unloads its bucket.
	Close() error
}
