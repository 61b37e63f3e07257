package fnm

import (
	"strconv"
	"strings"
)

// Phase is the stage an install subprocess is currently in.
type Phase string

const (
	PhaseStarting    Phase = "starting"
	PhaseDownloading Phase = "downloading"
	PhaseExtracting  Phase = "extracting"
	PhaseInstalling  Phase = "installing"
	PhaseComplete    Phase = "complete"
	PhaseFailed      Phase = "failed"
)

// Progress is one incremental progress event parsed from an install stream.
// Percent is meaningful only when HasPercent is set; otherwise the phase is
// indeterminate.
type Progress struct {
	Phase           Phase
	HasPercent      bool
	Percent         float64
	BytesDownloaded uint64
	TotalBytes      uint64
	Err             string // set only for PhaseFailed
}

// ParseProgressLine classifies one line of install output. This is the only
// shape parsed incrementally: events must reach subscribers while the
// subprocess is still running. Lines that carry no progress information
// return ok=false and are ignored.
func ParseProgressLine(line string) (Progress, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Progress{}, false
	}

	if strings.HasPrefix(line, "Installing Node") {
		return Progress{Phase: PhaseDownloading}, true
	}

	if strings.Contains(line, "Downloading") {
		p := Progress{Phase: PhaseDownloading}
		if percent, ok := extractPercent(line); ok {
			p.HasPercent = true
			p.Percent = percent
		}
		if downloaded, total, ok := extractBytes(line); ok {
			p.BytesDownloaded = downloaded
			p.TotalBytes = total
		}
		return p, true
	}

	if strings.Contains(line, "Extracting") || strings.Contains(line, "extract") {
		return Progress{Phase: PhaseExtracting}, true
	}

	if strings.Contains(line, "Installing") {
		return Progress{Phase: PhaseInstalling}, true
	}

	if strings.Contains(line, "installed") || strings.Contains(line, "complete") || strings.Contains(line, "success") {
		return Progress{Phase: PhaseComplete, HasPercent: true, Percent: 100}, true
	}

	return Progress{}, false
}

// extractPercent finds a "NN%" token anywhere in the line.
func extractPercent(line string) (float64, bool) {
	for _, field := range strings.Fields(line) {
		if !strings.HasSuffix(field, "%") {
			continue
		}
		if percent, err := strconv.ParseFloat(strings.TrimSuffix(field, "%"), 64); err == nil {
			return percent, true
		}
	}
	return 0, false
}

// extractBytes finds a "12.3 MB/45.6 MB" style pair.
func extractBytes(line string) (uint64, uint64, bool) {
	before, after, found := strings.Cut(line, "/")
	if !found {
		return 0, 0, false
	}

	beforeFields := strings.Fields(before)
	afterFields := strings.Fields(after)
	if len(beforeFields) == 0 || len(afterFields) == 0 {
		return 0, 0, false
	}

	downloaded, ok := parseTrailingSize(beforeFields)
	if !ok {
		return 0, 0, false
	}
	total, ok := parseLeadingSize(afterFields)
	if !ok {
		return 0, 0, false
	}
	return downloaded, total, true
}

// parseTrailingSize reads a size from the end of a field list, accepting both
// "12.3MB" and "12.3 MB".
func parseTrailingSize(fields []string) (uint64, bool) {
	last := fields[len(fields)-1]
	if isSizeUnit(last) && len(fields) >= 2 {
		return parseByteSize(fields[len(fields)-2] + last)
	}
	return parseByteSize(last)
}

func parseLeadingSize(fields []string) (uint64, bool) {
	if len(fields) >= 2 && isSizeUnit(fields[1]) {
		return parseByteSize(fields[0] + fields[1])
	}
	return parseByteSize(fields[0])
}

func isSizeUnit(s string) bool {
	switch s {
	case "GB", "G", "MB", "M", "KB", "K", "B":
		return true
	}
	return false
}

func parseByteSize(s string) (uint64, bool) {
	s = strings.TrimSpace(s)

	multiplier := uint64(1)
	switch {
	case strings.HasSuffix(s, "GB") || strings.HasSuffix(s, "G"):
		multiplier = 1_000_000_000
		s = strings.TrimSuffix(strings.TrimSuffix(s, "GB"), "G")
	case strings.HasSuffix(s, "MB") || strings.HasSuffix(s, "M"):
		multiplier = 1_000_000
		s = strings.TrimSuffix(strings.TrimSuffix(s, "MB"), "M")
	case strings.HasSuffix(s, "KB") || strings.HasSuffix(s, "K"):
		multiplier = 1_000
		s = strings.TrimSuffix(strings.TrimSuffix(s, "KB"), "K")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return uint64(n * float64(multiplier)), true
}
