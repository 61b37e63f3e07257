package manifest

import (
	"context"
	"os"
)

// FileSource reads a serialized manifest from a fixed path. It backs the
// release-data override setting, for air-gapped hosts where the remote
// endpoints are unreachable.
type FileSource struct {
	path string
}

// NewFileSource creates a Source that reads the manifest at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// GetManifest reads and parses the manifest file.
func (s *FileSource) GetManifest(context.Context) (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}
