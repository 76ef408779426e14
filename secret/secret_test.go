package secret_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"mediavault/secret"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s, err := secret.Random()
	require.NoError(t, err)

	es, err := secret.Encrypt("hunter2", s)
	require.NoError(t, err)

	require.True(t, es.ValidPassword("hunter2"))
	require.False(t, es.ValidPassword("wrong"))

	got, err := es.Decrypt("hunter2")
	require.NoError(t, err)
	require.Equal(t, s, got)

	_, err = es.Decrypt("wrong")
	require.Error(t, err)
}

func TestEncryptionMetadataRotation(t *testing.T) {
	s, err := secret.Random()
	require.NoError(t, err)

	var meta secret.EncryptionMetadata
	require.NoError(t, meta.AddPassword("first", s))
	require.NoError(t, meta.AddPassword("second", s))
	require.Len(t, meta.EncryptedSecrets, 2)

	got, err := meta.Unlock("second")
	require.NoError(t, err)
	require.Equal(t, s, got)

	_, err = meta.Unlock("nope")
	require.Error(t, err)
}

func TestEncryptionMetadataJSONRoundTrip(t *testing.T) {
	s, err := secret.Random()
	require.NoError(t, err)

	var meta secret.EncryptionMetadata
	require.NoError(t, meta.AddPassword("hunter2", s))

	data, err := json.Marshal(meta)
	require.NoError(t, err)
	require.Contains(t, string(data), "encrypted_secret")

	var roundTripped secret.EncryptionMetadata
	require.NoError(t, json.Unmarshal(data, &roundTripped))

	got, err := roundTripped.Unlock("hunter2")
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestDeriveFromUUIDIsPerBlob(t *testing.T) {
	s, err := secret.Random()
	require.NoError(t, err)

	a := s.DeriveFromUUID(uuid.New())
	b := s.DeriveFromUUID(uuid.New())
	require.NotEqual(t, a, b)
}
