package mediaimport_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mediavault/blobstore"
	"mediavault/index"
	"mediavault/mediaimport"
	"mediavault/secret"
	"mediavault/vaulterr"
)

func newImporter(t *testing.T) *mediaimport.Importer {
	t.Helper()
	dir := t.TempDir()

	master, err := secret.Random()
	require.NoError(t, err)
	blobs, err := blobstore.Open(filepath.Join(dir, "media"), master)
	require.NoError(t, err)

	idx, err := index.Open(context.Background(), filepath.Join(dir, "index.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	return mediaimport.NewImporter(blobs, idx, zerolog.Nop())
}

func TestImportMediaUnsupportedMimeType(t *testing.T) {
	imp := newImporter(t)

	_, err := imp.ImportMedia(context.Background(), "application/x-unknown-format",
		mediaimport.StreamSource(bytes.NewReader([]byte("hello world"))))
	require.True(t, vaulterr.Is(err, vaulterr.UnsupportedMimeType))
}
