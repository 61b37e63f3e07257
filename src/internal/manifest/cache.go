package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheTTL is the default time-to-live for the cached manifest.
const DefaultCacheTTL = 24 * time.Hour

const cacheFileName = "releases.cache.json"

// CachedSource wraps a Source and caches the manifest on disk, so most
// lookups never touch the network.
type CachedSource struct {
	source   Source
	cacheDir string
	ttl      time.Duration
	now      func() time.Time
}

// NewCachedSource creates a Source that caches results from the underlying
// source.
func NewCachedSource(source Source, cacheDir string, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source:   source,
		cacheDir: cacheDir,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetManifest returns the cached manifest if still valid, otherwise fetches
// from the underlying source. When the fetch fails but an expired cache
// entry exists, that entry is returned so callers degrade to old data
// instead of none.
func (s *CachedSource) GetManifest(ctx context.Context) (*Manifest, error) {
	cached, cacheErr := s.loadFromCache()
	if cacheErr == nil && !cached.Stale(s.ttl, s.now()) {
		return cached, nil
	}

	m, err := s.source.GetManifest(ctx)
	if err != nil {
		if cacheErr == nil {
			return cached, nil
		}
		return nil, err
	}

	// Caching is best-effort; a read-only disk must not fail the fetch.
	_ = s.saveToCache(m)
	return m, nil
}

// ForceRefresh drops the cache entry and fetches fresh data.
func (s *CachedSource) ForceRefresh(ctx context.Context) (*Manifest, error) {
	_ = os.Remove(s.cachePath())

	m, err := s.source.GetManifest(ctx)
	if err != nil {
		return nil, err
	}

	_ = s.saveToCache(m)
	return m, nil
}

// ClearCache removes the cached manifest.
func (s *CachedSource) ClearCache() error {
	err := os.Remove(s.cachePath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *CachedSource) cachePath() string {
	return filepath.Join(s.cacheDir, cacheFileName)
}

func (s *CachedSource) loadFromCache() (*Manifest, error) {
	data, err := os.ReadFile(s.cachePath())
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

func (s *CachedSource) saveToCache(m *Manifest) error {
	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(s.cachePath(), data, 0644)
}
