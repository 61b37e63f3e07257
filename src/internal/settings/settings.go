package settings

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Settings are the user-tunable knobs. Zero-config runs entirely on
// defaults; the config file and NODEDESK_* environment variables override
// per key.
type Settings struct {
	// ToolPath overrides executable discovery for the native environment.
	ToolPath string `mapstructure:"tool_path"`

	// RefreshInterval is how often the background catalog refresh runs.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	// EnvConcurrency caps concurrently running operations per environment.
	EnvConcurrency int `mapstructure:"env_concurrency"`

	// UndoGraceWindow is how long a completed uninstall stays undoable.
	UndoGraceWindow time.Duration `mapstructure:"undo_grace_window"`

	// Release manifest retrieval.
	ManifestIndexURL    string        `mapstructure:"manifest_index_url"`
	ManifestScheduleURL string        `mapstructure:"manifest_schedule_url"`
	ManifestTTL         time.Duration `mapstructure:"manifest_ttl"`
	// ManifestFile, when set, reads release data from a local file instead
	// of the network.
	ManifestFile string `mapstructure:"manifest_file"`

	LogLevel string `mapstructure:"log_level"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		RefreshInterval: 5 * time.Minute,
		EnvConcurrency:  2,
		UndoGraceWindow: 10 * time.Second,
		ManifestTTL:     24 * time.Hour,
		LogLevel:        "info",
	}
}

// Load reads settings from the config file and environment. A missing
// config file is not an error; a malformed one is.
func Load() (*Settings, error) {
	return LoadFrom(DefaultPaths().Config)
}

// LoadFrom reads settings from an explicit config file path.
func LoadFrom(path string) (*Settings, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("tool_path", defaults.ToolPath)
	v.SetDefault("refresh_interval", defaults.RefreshInterval)
	v.SetDefault("env_concurrency", defaults.EnvConcurrency)
	v.SetDefault("undo_grace_window", defaults.UndoGraceWindow)
	v.SetDefault("manifest_index_url", defaults.ManifestIndexURL)
	v.SetDefault("manifest_schedule_url", defaults.ManifestScheduleURL)
	v.SetDefault("manifest_ttl", defaults.ManifestTTL)
	v.SetDefault("manifest_file", defaults.ManifestFile)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix("NODEDESK")
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	s.normalize()
	return &s, nil
}

// normalize clamps nonsense values back to defaults instead of failing.
func (s *Settings) normalize() {
	defaults := Default()
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = defaults.RefreshInterval
	}
	if s.EnvConcurrency <= 0 {
		s.EnvConcurrency = defaults.EnvConcurrency
	}
	if s.UndoGraceWindow <= 0 {
		s.UndoGraceWindow = defaults.UndoGraceWindow
	}
	if s.ManifestTTL <= 0 {
		s.ManifestTTL = defaults.ManifestTTL
	}
	if s.LogLevel == "" {
		s.LogLevel = defaults.LogLevel
	}
}
