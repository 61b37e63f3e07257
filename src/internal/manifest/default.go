package manifest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	defaultSource     Source
	defaultCached     *CachedSource
	defaultSourceOnce sync.Once
)

// Options configures the layered source stack. Zero values mean defaults.
type Options struct {
	IndexURL    string
	ScheduleURL string
	CacheDir    string
	CacheTTL    time.Duration
}

// NewLayeredSource builds the standard retrieval stack:
//  1. disk cache (TTL-bounded, expired entries still usable on fetch failure)
//  2. remote dist index + release schedule
//  3. embedded snapshot, always available
func NewLayeredSource(opts Options) (Source, *CachedSource) {
	if opts.IndexURL == "" {
		opts.IndexURL = DefaultIndexURL
	}
	if opts.ScheduleURL == "" {
		opts.ScheduleURL = DefaultScheduleURL
	}
	if opts.CacheDir == "" {
		opts.CacheDir = defaultCacheDir()
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	remote := NewHTTPSource(opts.IndexURL, opts.ScheduleURL)
	cached := NewCachedSource(remote, opts.CacheDir, opts.CacheTTL)
	return NewFallbackSource(cached, NewEmbeddedSource()), cached
}

// DefaultSource returns the shared layered source, created once.
func DefaultSource() Source {
	defaultSourceOnce.Do(func() {
		defaultSource, defaultCached = NewLayeredSource(Options{})
	})
	return defaultSource
}

// ForceRefresh drops the shared cache and fetches fresh release data.
func ForceRefresh(ctx context.Context) (*Manifest, error) {
	DefaultSource()
	m, err := defaultCached.ForceRefresh(ctx)
	if err == nil {
		return m, nil
	}
	return NewEmbeddedSource().GetManifest(ctx)
}

// ClearAllCache removes the shared cached manifest.
func ClearAllCache() error {
	DefaultSource()
	return defaultCached.ClearCache()
}

// ResetDefaultSource clears the shared source. This is primarily useful for
// testing.
func ResetDefaultSource() {
	defaultSourceOnce = sync.Once{}
	defaultSource = nil
	defaultCached = nil
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "nodedesk", "manifest")
}
