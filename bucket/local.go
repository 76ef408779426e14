package bucket

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mediavault/blobstore"
	"mediavault/index"
	"mediavault/mediaimport"
	"mediavault/secret"
)

// localDataSource is the encrypted, on-disk DataSource implementation: a
// BlobStore + Index + Secret composed the way the teacher's Repository
// composes a Blockstore and an Index.
type localDataSource struct {
	blobs     blobstore.BlobStore
	idx       *index.Index
	importer  *mediaimport.Importer
	secrets   *secret.EncryptionMetadata
	master    secret.Secret
	protected bool
}

func newLocalDataSource(blobs blobstore.BlobStore, idx *index.Index, secrets *secret.EncryptionMetadata, master secret.Secret, log zerolog.Logger) *localDataSource {
	return &localDataSource{
		blobs:     blobs,
		idx:       idx,
		importer:  mediaimport.NewImporter(blobs, idx, log),
		secrets:   secrets,
		master:    master,
		protected: len(secrets.EncryptedSecrets) > 0,
	}
}

func (l *localDataSource) AddBlob(id uuid.UUID) (io.WriteCloser, error) { return l.blobs.Add(id) }
func (l *localDataSource) GetBlob(id uuid.UUID) (io.ReadSeekCloser, error) {
	return l.blobs.Get(id)
}
func (l *localDataSource) DeleteBlob(id uuid.UUID) error { return l.blobs.Delete(id) }
func (l *localDataSource) HasBlob(id uuid.UUID) bool     { return l.blobs.Has(id) }

func (l *localDataSource) AddMedia(ctx context.Context, m index.Media) (int64, error) {
	return l.idx.AddMedia(ctx, m)
}
func (l *localDataSource) RemoveMedia(ctx context.Context, id int64) error {
	return l.idx.RemoveMedia(ctx, id)
}
func (l *localDataSource) GetMediaByID(ctx context.Context, id int64) (index.Media, bool, error) {
	return l.idx.GetMediaByID(ctx, id)
}
func (l *localDataSource) GetMediaBySHA256(ctx context.Context, sha256 string) (index.Media, bool, error) {
	return l.idx.GetMediaBySHA256(ctx, sha256)
}
func (l *localDataSource) GetTotalSize(ctx context.Context) (int64, error) {
	return l.idx.GetTotalSize(ctx)
}
func (l *localDataSource) GetMediaCount(ctx context.Context) (int64, error) {
	return l.idx.GetCount(ctx)
}

func (l *localDataSource) AddContent(ctx context.Context, c index.Content) error {
	return l.idx.AddContent(ctx, c)
}
func (l *localDataSource) GetByContentID(ctx context.Context, id int64) (index.Content, bool, error) {
	return l.idx.GetByContentID(ctx, id)
}
func (l *localDataSource) UpdateThumbnailID(ctx context.Context, contentID, thumbnailID int64) error {
	return l.idx.UpdateThumbnailID(ctx, contentID, thumbnailID)
}

func (l *localDataSource) AddPostItem(ctx context.Context, item index.PostItem) error {
	return l.idx.AddPostItem(ctx, item)
}
func (l *localDataSource) GetPostItemByID(ctx context.Context, post int64, pos int) (index.PostItem, bool, error) {
	return l.idx.GetPostItemByID(ctx, post, pos)
}
func (l *localDataSource) GetPageFromPost(ctx context.Context, post int64, page index.PageParams) (index.Page[index.PostItem], error) {
	return l.idx.GetPageFromPost(ctx, post, page)
}

func (l *localDataSource) AddPost(ctx context.Context, p index.Post) (int64, error) {
	return l.idx.AddPost(ctx, p)
}
func (l *localDataSource) UpdatePost(ctx context.Context, p index.Post) error {
	return l.idx.UpdatePost(ctx, p)
}
func (l *localDataSource) GetPostByID(ctx context.Context, id int64) (index.Post, bool, error) {
	return l.idx.GetPostByID(ctx, id)
}
func (l *localDataSource) GetPage(ctx context.Context, page index.PageParams) (index.Page[index.Post], error) {
	return l.idx.GetPage(ctx, page)
}

func (l *localDataSource) AddTag(ctx context.Context, t index.Tag) (int64, error) {
	return l.idx.AddTag(ctx, t)
}
func (l *localDataSource) UpdateTag(ctx context.Context, t index.Tag) error {
	return l.idx.UpdateTag(ctx, t)
}
func (l *localDataSource) DeleteTag(ctx context.Context, id int64) error {
	return l.idx.DeleteTag(ctx, id)
}
func (l *localDataSource) GetTagByID(ctx context.Context, id int64) (index.Tag, bool, error) {
	return l.idx.GetTagByID(ctx, id)
}
func (l *localDataSource) GetTagByName(ctx context.Context, name string) (index.Tag, bool, error) {
	return l.idx.GetTagByName(ctx, name)
}
func (l *localDataSource) AddTagToPost(ctx context.Context, tagID, postID int64) error {
	return l.idx.AddTagToPost(ctx, tagID, postID)
}
func (l *localDataSource) RemoveTagFromPost(ctx context.Context, tagID, postID int64) error {
	return l.idx.RemoveTagFromPost(ctx, tagID, postID)
}

func (l *localDataSource) AddTagGroup(ctx context.Context, g index.TagGroup) (int64, error) {
	return l.idx.AddTagGroup(ctx, g)
}
func (l *localDataSource) GetTagGroupByID(ctx context.Context, id int64) (index.TagGroup, bool, error) {
	return l.idx.GetTagGroupByID(ctx, id)
}
func (l *localDataSource) SearchTagGroups(ctx context.Context, query string, exact bool, page index.PageParams) (index.Page[index.TagGroup], error) {
	return l.idx.SearchTagGroups(ctx, query, exact, page)
}

// ValidatePassword returns the derived token secret on success. If the
// bucket isn't password-protected and no password was supplied, it
// succeeds trivially using the unwrapped master secret already held.
func (l *localDataSource) ValidatePassword(password string) ([32]byte, bool, error) {
	if !l.protected {
		return l.master.DeriveForTokenSecret(), true, nil
	}
	s, err := l.secrets.Unlock(password)
	if err != nil {
		return [32]byte{}, false, nil
	}
	return s.DeriveForTokenSecret(), true, nil
}

func (l *localDataSource) ImportMedia(ctx context.Context, mimeType string, source mediaimport.Source) (index.Content, error) {
	return l.importer.ImportMedia(ctx, mimeType, source)
}

func (l *localDataSource) SearchPosts(ctx context.Context, q index.SearchQuery, page index.PageParams) (index.Page[index.Post], error) {
	return l.idx.SearchPosts(ctx, q, page)
}
func (l *localDataSource) SearchItems(ctx context.Context, postID int64, page index.PageParams) (index.Page[index.PostItem], error) {
	return l.idx.SearchItems(ctx, postID, page)
}
func (l *localDataSource) SearchTags(ctx context.Context, query string, exact bool, page index.PageParams) (index.Page[index.Tag], error) {
	return l.idx.SearchTags(ctx, query, exact, page)
}
func (l *localDataSource) GetPostDetail(ctx context.Context, postID int64) (index.PostDetail, bool, error) {
	return l.idx.GetPostDetail(ctx, postID)
}
func (l *localDataSource) GetFullPostItem(ctx context.Context, item index.PostItem) (index.PostItemDetail, error) {
	return l.idx.GetFullPostItem(ctx, item)
}
func (l *localDataSource) AddFullPost(ctx context.Context, in index.CreateFullPost) ([]index.Post, error) {
	return l.idx.AddFullPost(ctx, in)
}
func (l *localDataSource) UpdateFullPost(ctx context.Context, p index.Post, tagIDs []int64) error {
	return l.idx.UpdateFullPost(ctx, p, tagIDs)
}
func (l *localDataSource) CascadeDeletePost(ctx context.Context, postID int64) error {
	return l.idx.CascadeDeletePost(ctx, postID)
}
func (l *localDataSource) GraphPost(ctx context.Context, q index.SearchQuery, discriminator index.GraphDiscriminator, bucketSeconds int64) (index.Graph, error) {
	return l.idx.GraphPost(ctx, q, discriminator, bucketSeconds)
}
func (l *localDataSource) GetTagsFromPost(ctx context.Context, postID int64) ([]index.Tag, error) {
	return l.idx.GetTagsFromPost(ctx, postID)
}
func (l *localDataSource) GetTagDetail(ctx context.Context, id int64) (index.Tag, error) {
	return l.idx.GetTagDetail(ctx, id)
}
func (l *localDataSource) AddImportBatch(ctx context.Context, b index.ImportBatch) (int64, error) {
	return l.idx.AddImportBatch(ctx, b)
}
func (l *localDataSource) GC(ctx context.Context) error {
	return l.idx.GC(ctx)
}

// Close closes the index's write/read connection pools. The blob store
// holds no persistent file handles (every blob read/write opens and closes
// its own file), so there is nothing else to release here.
func (l *localDataSource) Close() error {
	return l.idx.Close()
}

var _ DataSource = (*localDataSource)(nil)
