package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDecodesAndDefaultsCacheRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"repositories": [{"name": "main", "address": "https://repo.example.test"}],
		"plugins": [{"name": "notify", "dylib_path": "/usr/lib/lpm/notify.so"}]
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultCacheRoot, cfg.CacheRoot)
	require.Len(t, cfg.Repositories, 1)
	require.Equal(t, "main", cfg.Repositories[0].Name)
	require.Len(t, cfg.Plugins, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
