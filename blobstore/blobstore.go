// Package blobstore implements the content-addressed, encrypted-at-rest
// blob repository: one file per blob UUID, transparently encrypted with a
// key derived from the blob's own identity so that no nonce is ever reused
// across blobs despite a fixed zero nonce.
package blobstore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"mediavault/secret"
	"mediavault/vaulterr"
)

// Writer is returned by Add; writes are transparently encrypted before
// hitting disk. Callers must Close it to flush and release the file handle.
type Writer interface {
	io.WriteCloser
}

// SeekableReader is returned by Get; reads are transparently decrypted, and
// Seek repositions both the file and the keystream.
type SeekableReader interface {
	io.ReadSeekCloser
}

// BlobStore is the content-addressed repository of opaque byte blobs keyed
// by UUID.
type BlobStore interface {
	// Add allocates storage for a new blob. It returns vaulterr.Duplicate
	// if a blob already exists under id.
	Add(id uuid.UUID) (Writer, error)

	// Get opens an existing blob for reading. It returns vaulterr.NotFound
	// if no blob exists under id.
	Get(id uuid.UUID) (SeekableReader, error)

	// Delete removes a blob. It returns vaulterr.NotFound if absent.
	Delete(id uuid.UUID) error

	// Has reports whether a blob exists under id.
	Has(id uuid.UUID) bool
}

// fsBlobStore is the encrypted, filesystem-backed BlobStore: one regular
// file per blob, named by its UUID, under root.
type fsBlobStore struct {
	root   string
	master secret.Secret
}

// Open returns a BlobStore rooted at dir, encrypting every blob with keys
// derived from master. The directory is created if absent.
func Open(dir string, master secret.Secret) (BlobStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, vaulterr.IO.Wrap(err)
	}
	return &fsBlobStore{root: dir, master: master}, nil
}

func (s *fsBlobStore) path(id uuid.UUID) string {
	return filepath.Join(s.root, id.String())
}

func (s *fsBlobStore) Add(id uuid.UUID) (Writer, error) {
	p := s.path(id)
	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, vaulterr.Duplicate.New("blob %s already exists", id)
		}
		return nil, vaulterr.IO.Wrap(err)
	}

	key := s.master.DeriveFromUUID(id)
	stream, err := newStreamAt(key, 0)
	if err != nil {
		f.Close()
		os.Remove(p)
		return nil, vaulterr.IO.Wrap(err)
	}

	return &encryptedWriter{file: f, key: key, stream: stream}, nil
}

func (s *fsBlobStore) Get(id uuid.UUID) (SeekableReader, error) {
	p := s.path(id)
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterr.NotFound.New("blob %s not found", id)
		}
		return nil, vaulterr.IO.Wrap(err)
	}

	key := s.master.DeriveFromUUID(id)
	stream, err := newStreamAt(key, 0)
	if err != nil {
		f.Close()
		return nil, vaulterr.IO.Wrap(err)
	}

	return &encryptedReader{file: f, key: key, stream: stream}, nil
}

func (s *fsBlobStore) Delete(id uuid.UUID) error {
	p := s.path(id)
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return vaulterr.NotFound.New("blob %s not found", id)
		}
		return vaulterr.IO.Wrap(err)
	}
	return nil
}

func (s *fsBlobStore) Has(id uuid.UUID) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}
