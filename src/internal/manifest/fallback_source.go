package manifest

import (
	"context"

	"github.com/charmbracelet/log"
)

// FallbackSource tries multiple sources in order, falling back on failure.
// This enables graceful degradation when remote sources are unavailable.
type FallbackSource struct {
	primary  Source
	fallback Source
}

// NewFallbackSource creates a Source that tries the primary source first,
// then falls back to the fallback source if the primary fails.
func NewFallbackSource(primary, fallback Source) *FallbackSource {
	return &FallbackSource{
		primary:  primary,
		fallback: fallback,
	}
}

// GetManifest tries the primary source, falling back on any error.
func (s *FallbackSource) GetManifest(ctx context.Context) (*Manifest, error) {
	m, err := s.primary.GetManifest(ctx)
	if err == nil {
		return m, nil
	}

	log.Debug("primary release source failed, using fallback", "err", err)
	return s.fallback.GetManifest(ctx)
}
