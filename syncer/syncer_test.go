package syncer_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mediavault/bucket"
	"mediavault/index"
	"mediavault/mediaimport"
	"mediavault/syncer"
)

func newBucket(t *testing.T) bucket.DataSource {
	t.Helper()
	b, err := bucket.Open(context.Background(), t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)
	return b.DataSource()
}

func seedPost(t *testing.T, ds bucket.DataSource, sourceURL string) index.Post {
	t.Helper()
	ctx := context.Background()

	content, err := ds.ImportMedia(ctx, "text/plain", mediaimport.StreamSource(strings.NewReader("hello world")))
	require.NoError(t, err)

	batchID, err := ds.AddImportBatch(ctx, index.ImportBatch{CreatedAt: time.Now()})
	require.NoError(t, err)

	groupID, err := ds.AddTagGroup(ctx, index.TagGroup{Name: "colors", Color: "#ff0000", CreatedAt: time.Now()})
	require.NoError(t, err)
	tagID, err := ds.AddTag(ctx, index.Tag{Name: "vacation", GroupID: &groupID, CreatedAt: time.Now()})
	require.NoError(t, err)

	var source *string
	if sourceURL != "" {
		source = &sourceURL
	}

	posts, err := ds.AddFullPost(ctx, index.CreateFullPost{
		Source:    source,
		CreatedAt: time.Now(),
		Items: []index.CreateFullPostItem{
			{ContentID: content.PrimaryMediaID, Metadata: index.UploadMetadata{OriginalName: "hello.txt", UploadedAt: time.Now()}},
		},
		TagIDs:  []int64{tagID},
		BatchID: batchID,
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	return posts[0]
}

func TestSyncFromNoneStrategyImportsPostsTagsAndMedia(t *testing.T) {
	src := newBucket(t)
	dest := newBucket(t)
	seedPost(t, src, "")

	var synced []index.Post
	err := syncer.SyncFrom(context.Background(), dest, src, syncer.MatchNone, false, func(p index.Post) {
		synced = append(synced, p)
	})
	require.NoError(t, err)
	require.Len(t, synced, 1)

	detail, ok, err := dest.GetPostDetail(context.Background(), synced[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, detail.Items, 1)
	require.Len(t, detail.Tags, 1)
	require.Equal(t, "vacation", detail.Tags[0].Name)

	group, ok, err := dest.GetTagGroupByID(context.Background(), *detail.Tags[0].GroupID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "colors", group.Name)

	reader, err := dest.GetBlob(mustBlobID(t, dest, detail))
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(body))
}

func mustBlobID(t *testing.T, ds bucket.DataSource, detail index.PostDetail) [16]byte {
	t.Helper()
	return detail.Items[0].Primary.BlobID
}

func TestSyncFromURLStrategySkipsExistingSource(t *testing.T) {
	src := newBucket(t)
	dest := newBucket(t)
	seedPost(t, src, "https://example.test/a")

	srcURL := "https://example.test/a"
	batchID, err := dest.AddImportBatch(context.Background(), index.ImportBatch{CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = dest.AddFullPost(context.Background(), index.CreateFullPost{
		Source:    &srcURL,
		CreatedAt: time.Now(),
		BatchID:   batchID,
	})
	require.NoError(t, err)

	var synced int
	err = syncer.SyncFrom(context.Background(), dest, src, syncer.MatchURL, false, func(index.Post) {
		synced++
	})
	require.NoError(t, err)
	require.Zero(t, synced)
}

func TestSyncFromDeleteSyncedRemovesSourcePost(t *testing.T) {
	src := newBucket(t)
	dest := newBucket(t)
	p := seedPost(t, src, "")

	err := syncer.SyncFrom(context.Background(), dest, src, syncer.MatchNone, true, func(index.Post) {})
	require.NoError(t, err)

	_, ok, err := src.GetPostDetail(context.Background(), p.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
