package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mediavault/bucket"
	"mediavault/index"
	"mediavault/vaulterr"
)

func TestCreateEncryptedAndReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := bucket.CreateEncrypted(ctx, dir, "hunter2", zerolog.Nop())
	require.NoError(t, err)
	require.True(t, b.IsEncrypted())

	tagID, err := b.DataSource().AddTag(ctx, index.Tag{Name: "demo", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NotZero(t, tagID)

	_, err = bucket.Open(ctx, dir, "wrong-password", zerolog.Nop())
	require.Error(t, err)

	reopened, err := bucket.Open(ctx, dir, "hunter2", zerolog.Nop())
	require.NoError(t, err)
	require.True(t, reopened.IsEncrypted())

	tag, ok, err := reopened.DataSource().GetTagByID(ctx, tagID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "demo", tag.Name)
}

func TestOpenRemoteIsNotImplemented(t *testing.T) {
	b, err := bucket.Open(context.Background(), "https://example.test/vault", "", zerolog.Nop())
	require.NoError(t, err)
	require.False(t, b.IsEncrypted())

	_, _, err = b.DataSource().GetTagByID(context.Background(), 1)
	require.True(t, vaulterr.Is(err, vaulterr.NotImplemented))
}
