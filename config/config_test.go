package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mediavault/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAndConvert(t *testing.T) {
	path := writeConfig(t, `
buckets:
  - id: personal
    name: Personal
    location: /data/personal
    session_lifetime: 30m
  - id: shared
    name: Shared
    location: /data/shared
    hidden: true
    randomize_secret: true
    base_url: https://shared.example.test
`)

	f, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, f.Buckets, 2)

	configs, err := f.InstanceConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	require.Equal(t, "personal", configs[0].ID)
	require.Equal(t, 30*time.Minute, configs[0].SessionLifetime)

	require.Equal(t, "shared", configs[1].ID)
	require.True(t, configs[1].Hidden)
	require.True(t, configs[1].RandomizeSecret)
	require.Equal(t, time.Hour, configs[1].SessionLifetime, "defaults when session_lifetime is omitted")
}

func TestInstanceConfigsRejectsDuplicateID(t *testing.T) {
	path := writeConfig(t, `
buckets:
  - id: dup
    location: /data/a
  - id: dup
    location: /data/b
`)

	f, err := config.Load(path)
	require.NoError(t, err)

	_, err = f.InstanceConfigs()
	require.Error(t, err)
}

func TestInstanceConfigsRejectsMissingLocation(t *testing.T) {
	path := writeConfig(t, `
buckets:
  - id: onlyid
`)

	f, err := config.Load(path)
	require.NoError(t, err)

	_, err = f.InstanceConfigs()
	require.Error(t, err)
}
