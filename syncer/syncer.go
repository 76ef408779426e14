// Package syncer implements cross-bucket batched transfer (§4.8): ordered,
// paginated iteration of a source bucket's posts, a per-post match
// strategy to skip already-synced posts, concurrent tag/item
// re-materialization into the destination, and optional delete-after-sync
// on the source.
package syncer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"mediavault/bucket"
	"mediavault/index"
	"mediavault/mediaimport"
	"mediavault/vaulterr"
)

// MatchStrategy decides whether a source post is skipped because it
// already exists on the destination.
type MatchStrategy int

const (
	// MatchNone always imports; every call to sync_from duplicates.
	MatchNone MatchStrategy = iota
	// MatchURL skips any source post whose Source is set and for which
	// dest already holds a post with the same Source.
	MatchURL
)

// OnSync is invoked once per successfully imported post, with the
// destination's freshly minted Post.
type OnSync func(index.Post)

// pageSize is fixed at 1 per §4.8: the iteration is deliberately
// memory-bounded rather than throughput-optimized.
const pageSize = 1

// SyncFrom transfers posts from src into dest per strategy, invoking
// onSync for each imported post, and (if deleteSynced) cascade-deletes
// every successfully imported post from src once every page has run.
func SyncFrom(ctx context.Context, dest, src bucket.DataSource, strategy MatchStrategy, deleteSynced bool, onSync OnSync) error {
	batchID, err := dest.AddImportBatch(ctx, index.ImportBatch{CreatedAt: time.Now()})
	if err != nil {
		return err
	}

	var synced []int64
	offset := 0
	for {
		page, err := src.GetPage(ctx, index.PageParams{PageSize: pageSize, Offset: offset})
		if err != nil {
			return err
		}
		if len(page.Data) == 0 {
			break
		}
		p := page.Data[0]
		offset++

		skip, err := shouldSkip(ctx, dest, strategy, p)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		newPost, err := importPost(ctx, dest, src, p, batchID)
		if err != nil {
			return err
		}

		onSync(newPost)
		synced = append(synced, p.ID)
	}

	if deleteSynced {
		for _, id := range synced {
			if err := src.CascadeDeletePost(ctx, id); err != nil {
				return err
			}
		}
	}

	return nil
}

func shouldSkip(ctx context.Context, dest bucket.DataSource, strategy MatchStrategy, p index.Post) (bool, error) {
	switch strategy {
	case MatchNone:
		return false, nil
	case MatchURL:
		if p.Source == nil {
			return false, nil
		}
		existing, err := dest.SearchPosts(ctx, index.SearchQuery{Source: p.Source}, index.PageParams{PageSize: 1, Offset: 0})
		if err != nil {
			return false, err
		}
		return len(existing.Data) > 0, nil
	default:
		return false, vaulterr.Internal.New("unknown match strategy %d", strategy)
	}
}

// importPost re-materializes tags and items concurrently, then calls
// add_full_post with flatten=false (post-per-item flattening is always
// disabled for sync, per §4.8 step 3).
func importPost(ctx context.Context, dest, src bucket.DataSource, p index.Post, batchID int64) (index.Post, error) {
	detail, ok, err := src.GetPostDetail(ctx, p.ID)
	if err != nil {
		return index.Post{}, err
	}
	if !ok {
		return index.Post{}, vaulterr.NotFound.New("source post %d vanished mid-sync", p.ID)
	}

	var tagIDs []int64
	var items []index.CreateFullPostItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := rematerializeTags(gctx, dest, src, detail.Tags)
		if err != nil {
			return err
		}
		tagIDs = ids
		return nil
	})
	g.Go(func() error {
		built, err := rematerializeItems(gctx, dest, src, detail.Items)
		if err != nil {
			return err
		}
		items = built
		return nil
	})
	if err := g.Wait(); err != nil {
		return index.Post{}, err
	}

	posts, err := dest.AddFullPost(ctx, index.CreateFullPost{
		Title:       p.Title,
		Description: p.Description,
		Source:      p.Source,
		CreatedAt:   p.CreatedAt,
		Items:       items,
		TagIDs:      tagIDs,
		Flatten:     false,
		BatchID:     batchID,
	})
	if err != nil {
		return index.Post{}, err
	}
	if len(posts) == 0 {
		return index.Post{}, vaulterr.Internal.New("add_full_post returned no posts for source post %d", p.ID)
	}
	return posts[0], nil
}

// rematerializeItems re-materializes every item of a source post: fetch
// the primary media, stream its blob through the destination's import
// pipeline (which dedups by sha256 transparently), and carry over the
// original upload metadata.
func rematerializeItems(ctx context.Context, dest, src bucket.DataSource, items []index.PostItemDetail) ([]index.CreateFullPostItem, error) {
	built := make([]index.CreateFullPostItem, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			content, err := rematerializeItem(gctx, dest, src, item)
			if err != nil {
				return err
			}
			built[i] = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return built, nil
}

func rematerializeItem(ctx context.Context, dest, src bucket.DataSource, item index.PostItemDetail) (index.CreateFullPostItem, error) {
	reader, err := src.GetBlob(item.Primary.BlobID)
	if err != nil {
		return index.CreateFullPostItem{}, err
	}
	defer reader.Close()

	newContent, err := dest.ImportMedia(ctx, item.Primary.MimeType, mediaimport.StreamSource(reader))
	if err != nil {
		return index.CreateFullPostItem{}, err
	}

	return index.CreateFullPostItem{
		ContentID: newContent.PrimaryMediaID,
		Metadata:  item.Item.Upload,
	}, nil
}

// rematerializeTags implements the per-tag sequence of §4.8: resolve or
// create the destination's tag (and, if needed, its group) by exact name.
func rematerializeTags(ctx context.Context, dest, src bucket.DataSource, tags []index.Tag) ([]int64, error) {
	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		id, err := rematerializeTag(ctx, dest, src, t)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// rematerializeTag resolves or creates t's destination-side tag id, per
// §4.8's five-step sequence: resolve the source group by name on dest
// (creating it there if absent), then reuse-or-create the tag itself,
// patching an existing ungrouped tag if a group was resolved.
func rematerializeTag(ctx context.Context, dest, src bucket.DataSource, t index.Tag) (int64, error) {
	var resolvedGroup *int64
	if t.GroupID != nil {
		srcGroup, ok, err := src.GetTagGroupByID(ctx, *t.GroupID)
		if err != nil {
			return 0, err
		}
		if ok {
			groupID, err := resolveTagGroup(ctx, dest, srcGroup)
			if err != nil {
				return 0, err
			}
			resolvedGroup = &groupID
		}
	}

	existing, ok, err := dest.GetTagByName(ctx, t.Name)
	if err != nil {
		return 0, err
	}
	if ok {
		if existing.GroupID == nil && resolvedGroup != nil {
			existing.GroupID = resolvedGroup
			if err := dest.UpdateTag(ctx, existing); err != nil {
				return 0, err
			}
		}
		return existing.ID, nil
	}

	return dest.AddTag(ctx, index.Tag{Name: t.Name, GroupID: resolvedGroup, CreatedAt: t.CreatedAt})
}

func resolveTagGroup(ctx context.Context, dest bucket.DataSource, srcGroup index.TagGroup) (int64, error) {
	found, err := dest.SearchTagGroups(ctx, srcGroup.Name, true, index.PageParams{PageSize: 1, Offset: 0})
	if err != nil {
		return 0, err
	}
	if len(found.Data) > 0 {
		return found.Data[0].ID, nil
	}
	return dest.AddTagGroup(ctx, index.TagGroup{
		Name:      srcGroup.Name,
		Color:     srcGroup.Color,
		CreatedAt: srcGroup.CreatedAt,
	})
}
