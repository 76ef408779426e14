// Package index is the relational store: media, content, posts, items, tags
// and tag groups, full-text search, graph aggregation and GC, built on top
// of sqlitedb.
package index

import "time"

// MetadataKind discriminates the typed payload carried by MediaMetadata.
type MetadataKind string

const (
	MetadataUnknown  MetadataKind = "unknown"
	MetadataImage    MetadataKind = "image"
	MetadataVideo    MetadataKind = "video"
	MetadataDocument MetadataKind = "document"
)

// MediaMetadata is the tagged-union metadata a Media row carries, flattened
// to nullable columns (meta_width, meta_height, meta_duration_s, meta_codec,
// meta_pages, meta_title, meta_author) so that search_posts's joins stay
// single-table rather than fanning out into a per-kind metadata table.
type MediaMetadata struct {
	Kind MetadataKind

	Width  *int64
	Height *int64

	DurationSeconds *float64
	Codec           *string

	Pages  *int64
	Title  *string
	Author *string
}

// Media is a stored, deduplicated binary.
type Media struct {
	ID       int64
	BlobID   [16]byte // UUID v4 bytes
	Size     int64
	SHA1     string
	SHA256   string
	MD5      string
	MimeType string
	Metadata MediaMetadata
}

// Content pairs a primary media with a thumbnail media. Identity is the
// primary media's id.
type Content struct {
	PrimaryMediaID int64
	ThumbnailID    int64
}

// UploadMetadata is the original-file provenance carried by a PostItem.
type UploadMetadata struct {
	OriginalName      string
	OriginalDirectory string
	OriginalModified  *time.Time
	OriginalAccessed  *time.Time
	UploadedAt        time.Time
}

// PostItem is one ordered member of a Post.
type PostItem struct {
	PostID    int64
	Position  int
	ContentID int64
	Upload    UploadMetadata
}

// Post groups one or more items.
type Post struct {
	ID            int64
	Source        *string
	Title         *string
	Description   *string
	ImportBatchID *int64
	CreatedAt     time.Time

	// TotalDuration is derived: SUM of video durations across the post's
	// items, backing the require_playable filter (total_duration > 0).
	TotalDuration float64
}

// ImportBatch is an opaque grouping id stamped on every post created in one
// ingest call.
type ImportBatch struct {
	ID        int64
	CreatedAt time.Time
}

// TagGroup is a named, color-tagged grouping of tags.
type TagGroup struct {
	ID        int64
	Name      string
	Color     string // 7-char #RRGGBB
	CreatedAt time.Time
}

// Tag belongs to an optional TagGroup.
type Tag struct {
	ID        int64
	Name      string
	GroupID   *int64
	CreatedAt time.Time
}

// PageParams requests one page of results.
type PageParams struct {
	PageSize int
	Offset   int
}

// Page is one page of T, plus the total row count across all pages.
type Page[T any] struct {
	PageSize      int
	TotalRowCount int64
	PageNumber    int
	Data          []T
}

// SortOrder controls search_posts's ORDER BY clause.
type SortOrder int

const (
	OrderNewest SortOrder = iota
	OrderOldest
	OrderRelevant
	OrderRandom
)

// SearchQuery filters and orders search_posts/graph_post.
type SearchQuery struct {
	Text            string
	Order           SortOrder
	RandomSeed      float32
	TagIDs          []int64
	RequirePlayable bool
	Source          *string
}

// GraphDiscriminator buckets graph_post's x axis.
type GraphDiscriminator int

const (
	DiscriminatorNone GraphDiscriminator = iota
	DiscriminatorDate
)

// GraphPoint is one (x, y) sample of a Graph, tagged with the kind of x so
// decoders can reconstruct a typed value (timestamp bucket vs. no bucket).
type GraphPoint struct {
	X    float64
	Y    float64
	Kind string // "date" or "none"
}

// Graph is the result of graph_post.
type Graph struct {
	Points []GraphPoint
}

// PostDetail is a fully hydrated post: the post row, its items (each with a
// hydrated Content and Media), and its tags.
type PostDetail struct {
	Post  Post
	Items []PostItemDetail
	Tags  []Tag
}

// PostItemDetail hydrates a PostItem's Content and primary/thumbnail Media.
type PostItemDetail struct {
	Item      PostItem
	Content   Content
	Primary   Media
	Thumbnail Media
}

// CreateFullPostItem is one item supplied to add_full_post.
type CreateFullPostItem struct {
	ContentID int64
	Metadata  UploadMetadata
}

// CreateFullPost is the atomic multi-row insert add_full_post performs.
type CreateFullPost struct {
	Title       *string
	Description *string
	Source      *string
	CreatedAt   time.Time
	Items       []CreateFullPostItem
	TagIDs      []int64
	Flatten     bool
	BatchID     int64
}
