// Package mediaimport implements the dedup media-import pipeline: hash +
// metadata + thumbnail derivation via external probes, blob write, and
// index insert (§4.4).
package mediaimport

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mediavault/blobstore"
	"mediavault/index"
	"mediavault/vaulterr"
)

// SourceKind discriminates a Source's underlying form.
type SourceKind int

const (
	SourceFile SourceKind = iota
	SourceStream
)

// Source is either a path on disk or an arbitrary byte stream.
type Source struct {
	Kind   SourceKind
	Path   string
	Reader io.Reader
}

func FileSource(path string) Source {
	return Source{Kind: SourceFile, Path: path}
}

func StreamSource(r io.Reader) Source {
	return Source{Kind: SourceStream, Reader: r}
}

// Importer runs import_media against a bucket's blob store and index.
type Importer struct {
	blobs blobstore.BlobStore
	idx   *index.Index
	log   zerolog.Logger
}

func NewImporter(blobs blobstore.BlobStore, idx *index.Index, log zerolog.Logger) *Importer {
	return &Importer{blobs: blobs, idx: idx, log: log}
}

// ImportMedia implements import_media (§4.4): allocates two blob uuids,
// streams the source into the content blob while hashing and deriving
// metadata, derives a thumbnail into the second blob, dedups both by
// sha256, and resolves the Content pairing.
func (imp *Importer) ImportMedia(ctx context.Context, mimeType string, source Source) (index.Content, error) {
	staged, err := stageSource(source)
	if err != nil {
		return index.Content{}, vaulterr.IO.Wrap(err)
	}
	defer staged.Close()

	contentMedia, err := imp.writeAndHash(ctx, staged.Path(), mimeType)
	if err != nil {
		return index.Content{}, err
	}

	thumbTmp, err := newTempFile("mediavault-thumb-*.jpg")
	if err != nil {
		return index.Content{}, vaulterr.IO.Wrap(err)
	}
	defer thumbTmp.Close()

	if err := deriveThumbnail(ctx, imp.log, mimeType, staged.Path(), thumbTmp.Path()); err != nil {
		return index.Content{}, err
	}

	thumbMedia, err := imp.writeAndHash(ctx, thumbTmp.Path(), "image/jpeg")
	if err != nil {
		return index.Content{}, err
	}

	return imp.resolveContent(ctx, contentMedia, thumbMedia)
}

// stagedSource is the filesystem path a Source is normalized into, since
// every external probe in §4.4's metadata table needs a path. For a Stream
// source it owns a temp file that Close removes; for a File source Close is
// a no-op, since the caller owns that path.
type stagedSource struct {
	path string
	tmp  *tempFile
}

func (s *stagedSource) Path() string {
	return s.path
}

func stageSource(source Source) (*stagedSource, error) {
	if source.Kind == SourceFile {
		return &stagedSource{path: source.Path}, nil
	}

	tmp, err := newTempFile("mediavault-src-*")
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(tmp.Path(), os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := io.Copy(f, source.Reader); err != nil {
		f.Close()
		tmp.Close()
		return nil, err
	}
	f.Close()
	return &stagedSource{path: tmp.Path(), tmp: tmp}, nil
}

// Close removes the staged temp file, but is a no-op for a File source
// (the caller owns that path).
func (s *stagedSource) Close() error {
	if s.tmp == nil {
		return nil
	}
	return s.tmp.Close()
}

// writeAndHash streams path's bytes into a freshly allocated blob while
// computing size + sha1/sha256/md5, then derives format-specific metadata,
// and builds the Media value for dedup resolution.
func (imp *Importer) writeAndHash(ctx context.Context, path, mimeType string) (index.Media, error) {
	id := uuid.New()

	f, err := os.Open(path)
	if err != nil {
		return index.Media{}, vaulterr.IO.Wrap(err)
	}
	defer f.Close()

	w, err := imp.blobs.Add(id)
	if err != nil {
		return index.Media{}, err
	}

	sha1h := sha1.New()
	sha256h := sha256.New()
	md5h := md5.New()
	mw := io.MultiWriter(w, sha1h, sha256h, md5h)

	size, err := io.Copy(mw, f)
	if err != nil {
		w.Close()
		return index.Media{}, vaulterr.IO.Wrap(err)
	}
	if err := w.Close(); err != nil {
		return index.Media{}, vaulterr.IO.Wrap(err)
	}

	meta, err := deriveMetadata(ctx, imp.log, mimeType, path)
	if err != nil {
		return index.Media{}, err
	}

	media := index.Media{
		Size:     size,
		SHA1:     hex.EncodeToString(sha1h.Sum(nil)),
		SHA256:   hex.EncodeToString(sha256h.Sum(nil)),
		MD5:      hex.EncodeToString(md5h.Sum(nil)),
		MimeType: mimeType,
		Metadata: meta,
	}
	copy(media.BlobID[:], id[:])

	return imp.dedupOrInsert(ctx, id, media)
}

// dedupOrInsert implements §4.4 step 5: if a Media row with this sha256
// already exists, the just-written blob is discarded and the existing row
// is reused; otherwise a new row is inserted. Importing two byte-identical
// streams therefore leaves exactly one blob on disk.
func (imp *Importer) dedupOrInsert(ctx context.Context, blobID uuid.UUID, media index.Media) (index.Media, error) {
	existing, ok, err := imp.idx.GetMediaBySHA256(ctx, media.SHA256)
	if err != nil {
		return index.Media{}, err
	}
	if ok {
		imp.log.Debug().Str("sha256", media.SHA256).Msg("media dedup hit, discarding new blob")
		if err := imp.blobs.Delete(blobID); err != nil {
			return index.Media{}, err
		}
		return existing, nil
	}

	id, err := imp.idx.AddMedia(ctx, media)
	if err != nil {
		return index.Media{}, err
	}
	media.ID = id
	return media, nil
}

// resolveContent implements §4.4 step 6: reuse an existing Content row by
// primary media id, updating its thumbnail if it differs, or insert a new
// pairing.
func (imp *Importer) resolveContent(ctx context.Context, primary, thumbnail index.Media) (index.Content, error) {
	existing, ok, err := imp.idx.GetByContentID(ctx, primary.ID)
	if err != nil {
		return index.Content{}, err
	}
	if ok {
		if existing.ThumbnailID != thumbnail.ID {
			if err := imp.idx.UpdateThumbnailID(ctx, primary.ID, thumbnail.ID); err != nil {
				return index.Content{}, err
			}
			existing.ThumbnailID = thumbnail.ID
		}
		return existing, nil
	}

	content := index.Content{PrimaryMediaID: primary.ID, ThumbnailID: thumbnail.ID}
	if err := imp.idx.AddContent(ctx, content); err != nil {
		return index.Content{}, err
	}
	return content, nil
}
