package manifest

import (
	"context"
	"embed"
	"io/fs"
)

//go:embed data/releases.json
var embeddedData embed.FS

// EmbeddedSource reads the release snapshot bundled into the binary. It is
// the layer of last resort: always available, always stale (FetchedAt is
// left zero so consumers can tell).
type EmbeddedSource struct {
	fs fs.FS
}

// NewEmbeddedSource creates a Source backed by the embedded snapshot.
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{fs: embeddedData}
}

// NewEmbeddedSourceFromFS creates a Source from a custom filesystem.
// This is useful for testing with mock filesystems.
func NewEmbeddedSourceFromFS(fsys fs.FS) *EmbeddedSource {
	return &EmbeddedSource{fs: fsys}
}

// GetManifest parses the embedded snapshot.
func (s *EmbeddedSource) GetManifest(context.Context) (*Manifest, error) {
	data, err := fs.ReadFile(s.fs, "data/releases.json")
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}
