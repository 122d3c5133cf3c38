package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheTTL is how long a fetched document stays fresh on disk.
const DefaultCacheTTL = 24 * time.Hour

// Cache keeps fetched documents on disk, one file per URL. An entry is
// fresh while its modification time is within the TTL.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewCache creates a cache in dir. A non-positive ttl selects DefaultCacheTTL.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) entry(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".spec")
}

// Get returns the cached document for url. The second result is false
// when the entry is missing, unreadable or older than the TTL.
func (c *Cache) Get(url string) ([]byte, bool) {
	path := c.entry(url)

	info, err := os.Stat(path)
	if err != nil || c.now().Sub(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores data for url. The entry is written to a temporary file and
// renamed into place, so concurrent readers never see a partial document.
func (c *Cache) Put(url string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, "entry.*.tmp")
	if err != nil {
		return fmt.Errorf("failed to cache %s: %w", url, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to cache %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", url, err)
	}

	if err := os.Rename(tmp.Name(), c.entry(url)); err != nil {
		return fmt.Errorf("failed to cache %s: %w", url, err)
	}
	return nil
}

// Invalidate removes the entry for url. A missing entry is not an error.
func (c *Cache) Invalidate(url string) error {
	if err := os.Remove(c.entry(url)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to invalidate %s: %w", url, err)
	}
	return nil
}
