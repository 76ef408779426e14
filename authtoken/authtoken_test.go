package authtoken_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mediavault/authtoken"
	"mediavault/vaulterr"
)

func TestMintAndVerifyRoundTrip(t *testing.T) {
	var secret [32]byte
	copy(secret[:], []byte("0123456789abcdef0123456789abcdef"))

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token, err := authtoken.Mint(secret, "203.0.113.5", false, now, time.Hour)
	require.NoError(t, err)

	claims, err := authtoken.Verify(secret, token, "203.0.113.5", now.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, claims.ReadOnly)
	require.Equal(t, "203.0.113.5", claims.IP)
}

func TestVerifyRejectsIPMismatch(t *testing.T) {
	var secret [32]byte
	now := time.Now()
	token, err := authtoken.Mint(secret, "203.0.113.5", true, now, time.Hour)
	require.NoError(t, err)

	_, err = authtoken.Verify(secret, token, "198.51.100.9", now)
	require.True(t, vaulterr.Is(err, vaulterr.InvalidAuthToken))
}

func TestVerifyRejectsExpired(t *testing.T) {
	var secret [32]byte
	now := time.Now()
	token, err := authtoken.Mint(secret, "203.0.113.5", false, now, time.Minute)
	require.NoError(t, err)

	_, err = authtoken.Verify(secret, token, "203.0.113.5", now.Add(2*time.Hour))
	require.True(t, vaulterr.Is(err, vaulterr.InvalidAuthToken))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	var secretA, secretB [32]byte
	secretB[0] = 1
	now := time.Now()
	token, err := authtoken.Mint(secretA, "203.0.113.5", false, now, time.Hour)
	require.NoError(t, err)

	_, err = authtoken.Verify(secretB, token, "203.0.113.5", now)
	require.True(t, vaulterr.Is(err, vaulterr.InvalidAuthToken))
}
