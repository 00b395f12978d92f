// Package diskcache persists remote dataset artifacts fetched through the
// dev server's proxy mode, so tiles and plots download once per machine
// instead of once per page load. Entries are keyed by request path and
// evicted least-recently-used when the size cap is exceeded.
package diskcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config holds cache settings.
type Config struct {
	Dir     string        // cache directory (default: $HOME/.cache/isbnmap)
	MaxSize int64         // size cap in bytes, <=0 means unlimited (default 2GB)
	MaxAge  time.Duration // entry lifetime, <=0 means forever
}

// DefaultConfig returns the defaults used by `isbnmap serve --proxy`.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Dir:     filepath.Join(home, ".cache", "isbnmap"),
		MaxSize: 2 << 30,
	}
}

// entry is one cached artifact in the on-disk index.
type entry struct {
	Path        string    `json:"path"` // request path, the cache key
	File        string    `json:"file"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
	LastAccess  time.Time `json:"last_access"`
}

type index struct {
	Version string            `json:"version"`
	Entries map[string]*entry `json:"entries"`
	Updated time.Time         `json:"updated"`
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	TotalSize  int64 `json:"total_size"`
	EntryCount int   `json:"entry_count"`
}

// Cache is a size-bounded on-disk artifact cache. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
	maxAge  time.Duration
	index   *index
	stats   Stats
}

// Open loads or creates a cache at the configured directory.
func Open(cfg Config) (*Cache, error) {
	if cfg.Dir == "" {
		cfg = DefaultConfig()
	}
	if err := os.MkdirAll(filepath.Join(cfg.Dir, "artifacts"), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	c := &Cache{
		dir:     cfg.Dir,
		maxSize: cfg.MaxSize,
		maxAge:  cfg.MaxAge,
		index:   &index{Version: "1", Entries: make(map[string]*entry)},
	}
	if err := c.loadIndex(); err != nil {
		// Corrupt or missing index: start fresh, artifacts get re-fetched.
		c.index = &index{Version: "1", Entries: make(map[string]*entry)}
	}
	return c, nil
}

// Get returns a cached artifact and its content type.
func (c *Cache) Get(path string) (data []byte, contentType string, ok bool) {
	c.mu.Lock()
	e, exists := c.index.Entries[path]
	if exists && c.expired(e) {
		c.evict(path, e)
		exists = false
	}
	if !exists {
		c.stats.Misses++
		c.mu.Unlock()
		return nil, "", false
	}
	e.LastAccess = time.Now()
	file, contentType := e.File, e.ContentType
	c.stats.Hits++
	c.mu.Unlock()

	data, err := os.ReadFile(file)
	if err != nil {
		c.mu.Lock()
		if e, exists := c.index.Entries[path]; exists {
			c.evict(path, e)
		}
		c.mu.Unlock()
		return nil, "", false
	}
	return data, contentType, true
}

// Put stores an artifact. Existing data for the path is replaced.
func (c *Cache) Put(path string, contentType string, data []byte) error {
	sum := sha256.Sum256(data)
	file := filepath.Join(c.dir, "artifacts",
		sanitize(path)+"_"+hex.EncodeToString(sum[:4]))

	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("write cache artifact: %w", err)
	}

	c.mu.Lock()
	if old, ok := c.index.Entries[path]; ok {
		c.removeFile(old.File)
		c.stats.TotalSize -= old.Size
	}
	now := time.Now()
	c.index.Entries[path] = &entry{
		Path:        path,
		File:        file,
		ContentType: contentType,
		Size:        int64(len(data)),
		Created:     now,
		LastAccess:  now,
	}
	c.stats.TotalSize += int64(len(data))
	c.ensureSpace()
	c.stats.EntryCount = len(c.index.Entries)
	c.index.Updated = now
	err := c.saveIndexLocked()
	c.mu.Unlock()
	return err
}

// Clear removes every cached artifact.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(c.dir, "artifacts")); err != nil {
		return fmt.Errorf("clear artifacts: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(c.dir, "artifacts"), 0o755); err != nil {
		return err
	}
	c.index = &index{Version: "1", Entries: make(map[string]*entry)}
	c.stats = Stats{}
	return c.saveIndexLocked()
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) expired(e *entry) bool {
	return c.maxAge > 0 && time.Since(e.Created) > c.maxAge
}

// ensureSpace evicts least-recently-used entries until under the size cap.
// Caller holds the lock.
func (c *Cache) ensureSpace() {
	if c.maxSize <= 0 {
		return
	}
	for c.stats.TotalSize > c.maxSize && len(c.index.Entries) > 1 {
		var oldestKey string
		var oldest *entry
		for key, e := range c.index.Entries {
			if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
				oldestKey, oldest = key, e
			}
		}
		c.evict(oldestKey, oldest)
	}
}

// evict removes one entry. Caller holds the lock.
func (c *Cache) evict(key string, e *entry) {
	c.removeFile(e.File)
	delete(c.index.Entries, key)
	c.stats.TotalSize -= e.Size
	c.stats.Evictions++
	c.stats.EntryCount = len(c.index.Entries)
}

func (c *Cache) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(c.dir, "index.json"))
	if err != nil {
		return err
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return err
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*entry)
	}
	c.index = &idx
	for _, e := range idx.Entries {
		c.stats.TotalSize += e.Size
	}
	c.stats.EntryCount = len(idx.Entries)
	return nil
}

func (c *Cache) saveIndexLocked() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, "index.json"), data, 0o644)
}

func (c *Cache) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: remove cache file %s: %v\n", path, err)
	}
}

func sanitize(key string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, key)
	if len(s) > 100 {
		s = s[:100]
	}
	return strings.TrimLeft(s, "_")
}
