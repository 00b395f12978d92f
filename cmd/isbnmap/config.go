package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the isbnmap.yml configuration. Every field has a working
// default; command-line flags override whatever the file says.
type Config struct {
	// Server settings.
	Port int    `yaml:"port,omitempty"`
	Host string `yaml:"host,omitempty"`

	// Root is the static web root holding index.html and the wasm bundle.
	Root string `yaml:"root,omitempty"`

	// Data is the local dataset directory served under /data/.
	Data string `yaml:"data,omitempty"`

	// Upstream, when set, proxies /data/ requests to this origin instead
	// of the local directory, caching responses on disk.
	Upstream string `yaml:"upstream,omitempty"`

	// Cache controls the proxy's disk cache.
	Cache CacheConfig `yaml:"cache,omitempty"`
}

// CacheConfig tunes the on-disk artifact cache used in proxy mode.
type CacheConfig struct {
	Dir     string `yaml:"dir,omitempty"`
	MaxSize int64  `yaml:"maxSize,omitempty"` // bytes
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Port: 5173,
		Host: "localhost",
		Root: "web",
		Data: "data",
	}
}

// LoadConfig reads path if it exists and overlays it on the defaults. A
// missing file is not an error; a malformed one is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
