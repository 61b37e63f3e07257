// Package settings manages nodedesk configuration: directory layout plus the
// user-tunable knobs read from the config file and environment overrides.
// The core only ever reads settings; nothing in it writes them back.
package settings

import (
	"os"
	"path/filepath"
	"sync"
)

// Paths holds the nodedesk directory layout.
type Paths struct {
	Root   string // Root nodedesk directory (~/.nodedesk)
	Cache  string // Cache directory (~/.nodedesk/cache)
	Logs   string // Log directory (~/.nodedesk/logs)
	Config string // Config file path (~/.nodedesk/config.yaml)
}

var (
	defaultPaths *Paths
	pathsOnce    sync.Once
)

// DefaultPaths returns the default nodedesk paths.
// This function is thread-safe and guarantees single initialization.
func DefaultPaths() *Paths {
	pathsOnce.Do(func() {
		defaultPaths = initPaths()
	})
	return defaultPaths
}

func initPaths() *Paths {
	root := getRootDir()
	return &Paths{
		Root:   root,
		Cache:  filepath.Join(root, "cache"),
		Logs:   filepath.Join(root, "logs"),
		Config: filepath.Join(root, "config.yaml"),
	}
}

func getRootDir() string {
	// NODEDESK_ROOT relocates everything, mainly for tests and portable
	// installs.
	if root := os.Getenv("NODEDESK_ROOT"); root != "" {
		return root
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".nodedesk"
	}
	return filepath.Join(home, ".nodedesk")
}

// EnsureDirectories creates the nodedesk directories.
func EnsureDirectories() error {
	paths := DefaultPaths()
	for _, dir := range []string{paths.Root, paths.Cache, paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ResetPathsCache resets the cached paths, forcing reinitialization on next
// access. This is primarily useful for testing.
func ResetPathsCache() {
	pathsOnce = sync.Once{}
	defaultPaths = nil
}
