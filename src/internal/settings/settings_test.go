package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if *s != Default() {
		t.Errorf("settings = %+v, want defaults", s)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "tool_path: /opt/fnm/fnm\n" +
		"refresh_interval: 30s\n" +
		"env_concurrency: 4\n" +
		"undo_grace_window: 1m\n" +
		"log_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.ToolPath != "/opt/fnm/fnm" {
		t.Errorf("ToolPath = %q", s.ToolPath)
	}
	if s.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v", s.RefreshInterval)
	}
	if s.EnvConcurrency != 4 {
		t.Errorf("EnvConcurrency = %d", s.EnvConcurrency)
	}
	if s.UndoGraceWindow != time.Minute {
		t.Errorf("UndoGraceWindow = %v", s.UndoGraceWindow)
	}
	if s.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", s.LogLevel)
	}
	// Unset keys keep their defaults.
	if s.ManifestTTL != Default().ManifestTTL {
		t.Errorf("ManifestTTL = %v", s.ManifestTTL)
	}
}

func TestLoadFromMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("refresh_interval: [what\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom accepted malformed YAML")
	}
}

func TestNormalizeClampsNonsense(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("env_concurrency: -3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.EnvConcurrency != Default().EnvConcurrency {
		t.Errorf("EnvConcurrency = %d, want clamped default", s.EnvConcurrency)
	}
}

func TestPathsRootOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NODEDESK_ROOT", dir)
	ResetPathsCache()
	t.Cleanup(ResetPathsCache)

	paths := DefaultPaths()
	if paths.Root != dir {
		t.Errorf("Root = %q, want %q", paths.Root, dir)
	}
	if paths.Config != filepath.Join(dir, "config.yaml") {
		t.Errorf("Config = %q", paths.Config)
	}

	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cache")); err != nil {
		t.Errorf("cache dir missing: %v", err)
	}
}
