// Package manifest retrieves and caches the Node.js release metadata the
// update checker and the EOL display need: per major line, the latest
// published version, the LTS codename, and the end-of-life date. Data comes
// from the Node.js dist index plus the release schedule, layered behind
// sources so a network failure degrades to cached or embedded data instead
// of blocking anything.
package manifest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
)

// LineInfo is the release metadata for one major line.
type LineInfo struct {
	Latest      catalog.NodeVersion `json:"latest"`
	LTSCodename string              `json:"lts_codename,omitempty"`
	EndOfLife   time.Time           `json:"end_of_life,omitempty"`
}

// Manifest maps major lines to their release metadata. FetchedAt is when the
// underlying data was retrieved from the network; zero for the embedded
// snapshot.
type Manifest struct {
	Lines     map[int]LineInfo `json:"lines"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Latest returns the newest published version of a major line.
func (m *Manifest) Latest(major int) (catalog.NodeVersion, bool) {
	info, ok := m.Lines[major]
	return info.Latest, ok
}

// LTSCodename returns the line's LTS codename, empty for non-LTS lines.
func (m *Manifest) LTSCodename(major int) (string, bool) {
	info, ok := m.Lines[major]
	return info.LTSCodename, ok
}

// EndOfLife returns the line's scheduled end-of-life date. It satisfies
// catalog.EOLSchedule.
func (m *Manifest) EndOfLife(major int) (time.Time, bool) {
	info, ok := m.Lines[major]
	if !ok || info.EndOfLife.IsZero() {
		return time.Time{}, false
	}
	return info.EndOfLife, true
}

// Stale reports whether the data is older than ttl.
func (m *Manifest) Stale(ttl time.Duration, now time.Time) bool {
	return now.Sub(m.FetchedAt) > ttl
}

// distEntry is one record of the Node.js dist index. LTS is false for
// non-LTS releases and the codename string for LTS ones, so it needs a
// two-shape decode.
type distEntry struct {
	Version string          `json:"version"`
	LTS     json.RawMessage `json:"lts"`
}

func (e distEntry) codename() string {
	var name string
	if err := json.Unmarshal(e.LTS, &name); err != nil {
		return ""
	}
	return name
}

// ScheduleEntry is one record of the Node.js release schedule.
type ScheduleEntry struct {
	End      string `json:"end"`
	Codename string `json:"codename"`
}

// ParseDistIndex reduces the dist index to the latest version and codename
// per major line. Entries with unparseable versions are skipped; the index
// carries ancient pre-semver releases that no caller can act on.
func ParseDistIndex(data []byte) (map[int]LineInfo, error) {
	var entries []distEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse dist index: %w", err)
	}

	lines := make(map[int]LineInfo)
	for _, entry := range entries {
		version, err := catalog.ParseVersion(entry.Version)
		if err != nil {
			continue
		}

		info := lines[version.Major]
		if info.Latest.Less(version) {
			info.Latest = version
		}
		if name := entry.codename(); name != "" && info.LTSCodename == "" {
			info.LTSCodename = name
		}
		lines[version.Major] = info
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("dist index contained no usable entries")
	}
	return lines, nil
}

// ParseSchedule extracts end-of-life dates from the release schedule, keyed
// by major line. Non-integer keys ("v0.10" era lines) are skipped.
func ParseSchedule(data []byte) (map[int]ScheduleEntry, error) {
	var raw map[string]ScheduleEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse release schedule: %w", err)
	}

	out := make(map[int]ScheduleEntry, len(raw))
	for key, entry := range raw {
		major, err := strconv.Atoi(strings.TrimPrefix(key, "v"))
		if err != nil {
			continue
		}
		out[major] = entry
	}
	return out, nil
}

// Build merges the dist index lines with the schedule's EOL dates.
func Build(lines map[int]LineInfo, schedule map[int]ScheduleEntry, fetchedAt time.Time) *Manifest {
	for major, entry := range schedule {
		info, ok := lines[major]
		if !ok {
			continue
		}
		if end, err := time.Parse("2006-01-02", entry.End); err == nil {
			info.EndOfLife = end
		}
		if info.LTSCodename == "" {
			info.LTSCodename = entry.Codename
		}
		lines[major] = info
	}
	return &Manifest{Lines: lines, FetchedAt: fetchedAt}
}

// ParseManifest decodes a previously serialized Manifest (cache entries,
// embedded snapshot).
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Lines) == 0 {
		return nil, fmt.Errorf("manifest contained no release lines")
	}
	return &m, nil
}
