// Package config loads the LPM engine's JSON configuration file: the
// cache directory, the repositories and plugins known at startup.
// cmd/lpm uses only the cache directory; the repository and plugin lists
// are decoded but nothing writes them into the catalog, which stays the
// only record of registered repositories and modules.
package config

import (
	"encoding/json"
	"os"

	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// DefaultPath is where the config file lives on a production install.
const DefaultPath = "/etc/lpm/conf"

// RepositorySeed is one entry of the config file's repositories list.
type RepositorySeed struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PluginSeed is one entry of the config file's plugins list.
type PluginSeed struct {
	Name      string `json:"name"`
	DylibPath string `json:"dylib_path"`
}

// Config is the decoded contents of the config file.
type Config struct {
	CacheRoot    string           `json:"cache_root"`
	Repositories []RepositorySeed `json:"repositories"`
	Plugins      []PluginSeed     `json:"plugins"`
}

// DefaultCacheRoot is used when the config file omits cache_root.
const DefaultCacheRoot = "/var/cache/lpm"

// Load reads and decodes the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &lpmerr.IOError{Op: "read", Path: path, Err: err}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, &lpmerr.IOError{Op: "decode", Path: path, Err: err}
	}

	if cfg.CacheRoot == "" {
		cfg.CacheRoot = DefaultCacheRoot
	}

	return cfg, nil
}
