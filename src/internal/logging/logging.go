// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

const logFileName = "nodedesk.log"

// Init configures the default logger to stderr at the given level.
// Unknown level strings fall back to info.
func Init(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetReportTimestamp(true)
}

// InitWithFile additionally mirrors log output into logDir. Failure to open
// the file is reported but never fatal; stderr logging continues.
func InitWithFile(level, logDir string) error {
	Init(level)

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(logDir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}
