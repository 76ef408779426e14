package index_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mediavault/index"
)

func newIndex(t *testing.T) *index.Index {
	t.Helper()
	ctx := context.Background()
	idx, err := index.Open(ctx, filepath.Join(t.TempDir(), "index.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func addMedia(t *testing.T, idx *index.Index, sha256 string) int64 {
	t.Helper()
	id, err := idx.AddMedia(context.Background(), index.Media{
		Size: 100, SHA1: "a", SHA256: sha256, MD5: "m", MimeType: "image/png",
		Metadata: index.MediaMetadata{Kind: index.MetadataImage},
	})
	require.NoError(t, err)
	return id
}

func TestMediaDedupBySHA256(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	id1 := addMedia(t, idx, "deadbeef")

	existing, ok, err := idx.GetMediaBySHA256(ctx, "deadbeef")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id1, existing.ID)

	_, ok, err = idx.GetMediaBySHA256(ctx, "not-present")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAddFullPostAndCascadeDelete(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	batchID, err := idx.AddImportBatch(ctx, index.ImportBatch{CreatedAt: time.Now()})
	require.NoError(t, err)

	mediaID := addMedia(t, idx, "sha-a")
	require.NoError(t, idx.AddContent(ctx, index.Content{PrimaryMediaID: mediaID, ThumbnailID: mediaID}))

	title := "My Post"
	posts, err := idx.AddFullPost(ctx, index.CreateFullPost{
		Title:     &title,
		CreatedAt: time.Now(),
		Items: []index.CreateFullPostItem{
			{ContentID: mediaID, Metadata: index.UploadMetadata{
				OriginalName: "a.png", OriginalDirectory: "/tmp", UploadedAt: time.Now(),
			}},
		},
		Flatten: false,
		BatchID: batchID,
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	detail, ok, err := idx.GetPostDetail(ctx, posts[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, detail.Items, 1)

	require.NoError(t, idx.CascadeDeletePost(ctx, posts[0].ID))

	_, ok, err = idx.GetPostByID(ctx, posts[0].ID)
	require.NoError(t, err)
	require.False(t, ok)

	// Media referenced only by the deleted post is not deleted with it.
	_, ok, err = idx.GetMediaByID(ctx, mediaID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSearchPostsShortQueryUsesLike(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	mediaID := addMedia(t, idx, "sha-b")
	require.NoError(t, idx.AddContent(ctx, index.Content{PrimaryMediaID: mediaID, ThumbnailID: mediaID}))

	title := "zz"
	_, err := idx.AddFullPost(ctx, index.CreateFullPost{
		Title:     &title,
		CreatedAt: time.Now(),
		Items: []index.CreateFullPostItem{
			{ContentID: mediaID, Metadata: index.UploadMetadata{
				OriginalName: "b.png", OriginalDirectory: "/tmp", UploadedAt: time.Now(),
			}},
		},
		BatchID: 0,
	})
	require.NoError(t, err)

	page, err := idx.SearchPosts(ctx, index.SearchQuery{Text: "zz"}, index.PageParams{PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalRowCount)
}

func TestSearchPostsFTSQueryMatchesTitle(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	mediaID := addMedia(t, idx, "sha-fts")
	require.NoError(t, idx.AddContent(ctx, index.Content{PrimaryMediaID: mediaID, ThumbnailID: mediaID}))

	title := "Mountain Hiking Trip"
	_, err := idx.AddFullPost(ctx, index.CreateFullPost{
		Title:     &title,
		CreatedAt: time.Now(),
		Items: []index.CreateFullPostItem{
			{ContentID: mediaID, Metadata: index.UploadMetadata{
				OriginalName: "trail.png", OriginalDirectory: "/tmp", UploadedAt: time.Now(),
			}},
		},
		BatchID: 0,
	})
	require.NoError(t, err)

	page, err := idx.SearchPosts(ctx, index.SearchQuery{Text: "Mountain"}, index.PageParams{PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalRowCount)

	page, err = idx.SearchPosts(ctx, index.SearchQuery{Text: "nonexistentword"}, index.PageParams{PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 0, page.TotalRowCount)
}

func TestSearchPostsFTSFollowsPostUpdatesAndDeletes(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	mediaID := addMedia(t, idx, "sha-fts-2")
	require.NoError(t, idx.AddContent(ctx, index.Content{PrimaryMediaID: mediaID, ThumbnailID: mediaID}))

	title := "Original Title"
	posts, err := idx.AddFullPost(ctx, index.CreateFullPost{
		Title:     &title,
		CreatedAt: time.Now(),
		Items: []index.CreateFullPostItem{
			{ContentID: mediaID, Metadata: index.UploadMetadata{
				OriginalName: "x.png", OriginalDirectory: "/tmp", UploadedAt: time.Now(),
			}},
		},
	})
	require.NoError(t, err)
	post := posts[0]

	updated := "Renamed Subject"
	post.Title = &updated
	require.NoError(t, idx.UpdateFullPost(ctx, post, nil))

	page, err := idx.SearchPosts(ctx, index.SearchQuery{Text: "Renamed"}, index.PageParams{PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalRowCount)

	page, err = idx.SearchPosts(ctx, index.SearchQuery{Text: "Original"}, index.PageParams{PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 0, page.TotalRowCount)

	require.NoError(t, idx.CascadeDeletePost(ctx, post.ID))

	page, err = idx.SearchPosts(ctx, index.SearchQuery{Text: "Renamed"}, index.PageParams{PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 0, page.TotalRowCount)
}

func TestSearchTagsFTSQuery(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	_, err := idx.AddTag(ctx, index.Tag{Name: "Waterfall Photography", CreatedAt: time.Now()})
	require.NoError(t, err)

	page, err := idx.SearchTags(ctx, "Waterfall", false, index.PageParams{PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalRowCount)
	require.Equal(t, "Waterfall Photography", page.Data[0].Name)
}

func TestSearchTagGroupsFTSQuery(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	_, err := idx.AddTagGroup(ctx, index.TagGroup{Name: "Seasonal Events", Color: "#fff", CreatedAt: time.Now()})
	require.NoError(t, err)

	page, err := idx.SearchTagGroups(ctx, "Seasonal", false, index.PageParams{PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalRowCount)
	require.Equal(t, "Seasonal Events", page.Data[0].Name)
}

func TestGraphPostRunningSum(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	mediaID := addMedia(t, idx, "sha-c")
	require.NoError(t, idx.AddContent(ctx, index.Content{PrimaryMediaID: mediaID, ThumbnailID: mediaID}))
	_, err := idx.AddFullPost(ctx, index.CreateFullPost{
		CreatedAt: time.Now(),
		Items: []index.CreateFullPostItem{
			{ContentID: mediaID, Metadata: index.UploadMetadata{
				OriginalName: "c.png", OriginalDirectory: "/tmp", UploadedAt: time.Now(),
			}},
		},
	})
	require.NoError(t, err)

	graph, err := idx.GraphPost(ctx, index.SearchQuery{}, index.DiscriminatorNone, 0)
	require.NoError(t, err)
	require.Len(t, graph.Points, 1)
	require.Equal(t, "none", graph.Points[0].Kind)
	require.Equal(t, 1.0, graph.Points[0].Y)
}

func TestTagLifecycle(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	tagID, err := idx.AddTag(ctx, index.Tag{Name: "Vacation", CreatedAt: time.Now()})
	require.NoError(t, err)

	found, ok, err := idx.GetTagByName(ctx, "vacation")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tagID, found.ID)

	require.NoError(t, idx.DeleteTag(ctx, tagID))
	_, ok, err = idx.GetTagByID(ctx, tagID)
	require.NoError(t, err)
	require.False(t, ok)
}
