package bucket

import (
	"context"
	"io"

	"github.com/google/uuid"

	"mediavault/index"
	"mediavault/mediaimport"
	"mediavault/vaulterr"
)

// remoteDataSource is the stub for an HTTP-backed bucket (§4.5, §9 Open
// Question 2): the HTTP client implementation is out of this core's scope,
// so every operation surfaces NotImplemented rather than silently
// returning empty results.
type remoteDataSource struct {
	baseURL string
}

func newRemoteDataSource(baseURL string) *remoteDataSource {
	return &remoteDataSource{baseURL: baseURL}
}

func notImplemented() error {
	return vaulterr.NotImplemented.New("remote data source is not implemented by this core")
}

func (r *remoteDataSource) AddBlob(uuid.UUID) (io.WriteCloser, error)    { return nil, notImplemented() }
func (r *remoteDataSource) GetBlob(uuid.UUID) (io.ReadSeekCloser, error) { return nil, notImplemented() }
func (r *remoteDataSource) DeleteBlob(uuid.UUID) error                   { return notImplemented() }
func (r *remoteDataSource) HasBlob(uuid.UUID) bool                      { return false }

func (r *remoteDataSource) AddMedia(context.Context, index.Media) (int64, error) {
	return 0, notImplemented()
}
func (r *remoteDataSource) RemoveMedia(context.Context, int64) error { return notImplemented() }
func (r *remoteDataSource) GetMediaByID(context.Context, int64) (index.Media, bool, error) {
	return index.Media{}, false, notImplemented()
}
func (r *remoteDataSource) GetMediaBySHA256(context.Context, string) (index.Media, bool, error) {
	return index.Media{}, false, notImplemented()
}
func (r *remoteDataSource) GetTotalSize(context.Context) (int64, error) { return 0, notImplemented() }
func (r *remoteDataSource) GetMediaCount(context.Context) (int64, error) {
	return 0, notImplemented()
}

func (r *remoteDataSource) AddContent(context.Context, index.Content) error { return notImplemented() }
func (r *remoteDataSource) GetByContentID(context.Context, int64) (index.Content, bool, error) {
	return index.Content{}, false, notImplemented()
}
func (r *remoteDataSource) UpdateThumbnailID(context.Context, int64, int64) error {
	return notImplemented()
}

func (r *remoteDataSource) AddPostItem(context.Context, index.PostItem) error {
	return notImplemented()
}
func (r *remoteDataSource) GetPostItemByID(context.Context, int64, int) (index.PostItem, bool, error) {
	return index.PostItem{}, false, notImplemented()
}
func (r *remoteDataSource) GetPageFromPost(context.Context, int64, index.PageParams) (index.Page[index.PostItem], error) {
	return index.Page[index.PostItem]{}, notImplemented()
}

func (r *remoteDataSource) AddPost(context.Context, index.Post) (int64, error) {
	return 0, notImplemented()
}
func (r *remoteDataSource) UpdatePost(context.Context, index.Post) error { return notImplemented() }
func (r *remoteDataSource) GetPostByID(context.Context, int64) (index.Post, bool, error) {
	return index.Post{}, false, notImplemented()
}
func (r *remoteDataSource) GetPage(context.Context, index.PageParams) (index.Page[index.Post], error) {
	return index.Page[index.Post]{}, notImplemented()
}

func (r *remoteDataSource) AddTag(context.Context, index.Tag) (int64, error) {
	return 0, notImplemented()
}
func (r *remoteDataSource) UpdateTag(context.Context, index.Tag) error { return notImplemented() }
func (r *remoteDataSource) DeleteTag(context.Context, int64) error     { return notImplemented() }
func (r *remoteDataSource) GetTagByID(context.Context, int64) (index.Tag, bool, error) {
	return index.Tag{}, false, notImplemented()
}
func (r *remoteDataSource) GetTagByName(context.Context, string) (index.Tag, bool, error) {
	return index.Tag{}, false, notImplemented()
}
func (r *remoteDataSource) AddTagToPost(context.Context, int64, int64) error {
	return notImplemented()
}
func (r *remoteDataSource) RemoveTagFromPost(context.Context, int64, int64) error {
	return notImplemented()
}

func (r *remoteDataSource) AddTagGroup(context.Context, index.TagGroup) (int64, error) {
	return 0, notImplemented()
}
func (r *remoteDataSource) GetTagGroupByID(context.Context, int64) (index.TagGroup, bool, error) {
	return index.TagGroup{}, false, notImplemented()
}
func (r *remoteDataSource) SearchTagGroups(context.Context, string, bool, index.PageParams) (index.Page[index.TagGroup], error) {
	return index.Page[index.TagGroup]{}, notImplemented()
}

func (r *remoteDataSource) ValidatePassword(string) ([32]byte, bool, error) {
	return [32]byte{}, false, notImplemented()
}

func (r *remoteDataSource) ImportMedia(context.Context, string, mediaimport.Source) (index.Content, error) {
	return index.Content{}, notImplemented()
}

func (r *remoteDataSource) SearchPosts(context.Context, index.SearchQuery, index.PageParams) (index.Page[index.Post], error) {
	return index.Page[index.Post]{}, notImplemented()
}
func (r *remoteDataSource) SearchItems(context.Context, int64, index.PageParams) (index.Page[index.PostItem], error) {
	return index.Page[index.PostItem]{}, notImplemented()
}
func (r *remoteDataSource) SearchTags(context.Context, string, bool, index.PageParams) (index.Page[index.Tag], error) {
	return index.Page[index.Tag]{}, notImplemented()
}
func (r *remoteDataSource) GetPostDetail(context.Context, int64) (index.PostDetail, bool, error) {
	return index.PostDetail{}, false, notImplemented()
}
func (r *remoteDataSource) GetFullPostItem(context.Context, index.PostItem) (index.PostItemDetail, error) {
	return index.PostItemDetail{}, notImplemented()
}
func (r *remoteDataSource) AddFullPost(context.Context, index.CreateFullPost) ([]index.Post, error) {
	return nil, notImplemented()
}
func (r *remoteDataSource) UpdateFullPost(context.Context, index.Post, []int64) error {
	return notImplemented()
}
func (r *remoteDataSource) CascadeDeletePost(context.Context, int64) error { return notImplemented() }
func (r *remoteDataSource) GraphPost(context.Context, index.SearchQuery, index.GraphDiscriminator, int64) (index.Graph, error) {
	return index.Graph{}, notImplemented()
}
func (r *remoteDataSource) GetTagsFromPost(context.Context, int64) ([]index.Tag, error) {
	return nil, notImplemented()
}
func (r *remoteDataSource) GetTagDetail(context.Context, int64) (index.Tag, error) {
	return index.Tag{}, notImplemented()
}
func (r *remoteDataSource) AddImportBatch(context.Context, index.ImportBatch) (int64, error) {
	return 0, notImplemented()
}
func (r *remoteDataSource) GC(context.Context) error { return notImplemented() }

// Close is a no-op: the remote data source holds no local connections or
// file handles to release.
func (r *remoteDataSource) Close() error { return nil }

var _ DataSource = (*remoteDataSource)(nil)
