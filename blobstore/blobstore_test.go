package blobstore_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"mediavault/blobstore"
	"mediavault/secret"
	"mediavault/vaulterr"
)

func newStore(t *testing.T) (blobstore.BlobStore, string) {
	t.Helper()
	dir := t.TempDir()
	master, err := secret.Random()
	require.NoError(t, err)
	store, err := blobstore.Open(dir, master)
	require.NoError(t, err)
	return store, dir
}

func TestRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	id := uuid.New()

	payload := bytes.Repeat([]byte{0x41}, 17)

	w, err := store.Add(id)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := store.Get(id)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestRoundTripAfterSeek(t *testing.T) {
	store, _ := newStore(t)
	id := uuid.New()

	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	w, err := store.Add(id)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := store.Get(id)
	require.NoError(t, err)
	defer r.Close()

	for _, offset := range []int64{0, 1, 63, 64, 65, 4999, 2000} {
		_, err := r.Seek(offset, io.SeekStart)
		require.NoError(t, err)
		buf := make([]byte, 10)
		n, _ := io.ReadFull(r, buf)
		require.Equal(t, payload[offset:offset+int64(n)], buf[:n])
	}
}

func TestEncryptedAtRest(t *testing.T) {
	store, dir := newStore(t)
	id := uuid.New()

	payload := bytes.Repeat([]byte{0x41}, 17)

	w, err := store.Add(id)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	onDisk, err := os.ReadFile(filepath.Join(dir, id.String()))
	require.NoError(t, err)
	require.NotEqual(t, payload, onDisk)
	require.Len(t, onDisk, len(payload))
}

func TestDuplicateAndNotFound(t *testing.T) {
	store, _ := newStore(t)
	id := uuid.New()

	w, err := store.Add(id)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = store.Add(id)
	require.True(t, vaulterr.Is(err, vaulterr.Duplicate))

	require.True(t, store.Has(id))

	missing := uuid.New()
	_, err = store.Get(missing)
	require.True(t, vaulterr.Is(err, vaulterr.NotFound))

	err = store.Delete(missing)
	require.True(t, vaulterr.Is(err, vaulterr.NotFound))

	require.NoError(t, store.Delete(id))
	require.False(t, store.Has(id))
}
