package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "pesterer.json5"))
	require.NoError(t, err)

	require.Equal(t, DefaultDatabase, cfg.Database)
	require.Equal(t, DefaultEndpoint, cfg.Endpoint)
	require.Equal(t, DefaultWorkers, cfg.Workers)
	require.Equal(t, FetcherHTTP, cfg.Fetcher)
	require.Equal(t, DefaultListen, cfg.Listen)
	require.NotNil(t, cfg.TimeoutSeconds)
	require.Equal(t, DefaultTimeout, *cfg.TimeoutSeconds)
	require.Nil(t, cfg.Email)
}

func TestLoadMergesLocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pesterer.json5")

	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are fine in json5
		database: "main.db",
		workers: 4,
		timeout_seconds: 0,
		email: {server: "smtp.example.com", from: "bot@example.com", to: ["me@example.com"]}
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pesterer.local.json5"), []byte(`{
		workers: 8
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "main.db", cfg.Database)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, 0, *cfg.TimeoutSeconds)
	require.NotNil(t, cfg.Email)
	require.Equal(t, 587, cfg.Email.Port)
	require.Equal(t, []string{"me@example.com"}, cfg.Email.To)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PESTERER_DATABASE", "env.db")
	t.Setenv("PESTERER_WORKERS", "3")
	t.Setenv("PESTERER_FETCHER", "browser")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)
	require.Equal(t, "env.db", cfg.Database)
	require.Equal(t, 3, cfg.Workers)
	require.Equal(t, FetcherBrowser, cfg.Fetcher)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("workers", func(t *testing.T) {
		t.Setenv("PESTERER_WORKERS", "many")
		_, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
		require.Error(t, err)
	})
	t.Run("fetcher", func(t *testing.T) {
		t.Setenv("PESTERER_FETCHER", "carrier-pigeon")
		_, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
		require.Error(t, err)
	})
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json5"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}
