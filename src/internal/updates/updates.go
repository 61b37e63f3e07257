// Package updates compares what is installed against the published release
// lines and reports newer patches per major line.
package updates

import (
	"sort"
	"time"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/manifest"
)

// Update says a newer release exists on an installed major line.
type Update struct {
	Major     int
	Installed catalog.NodeVersion
	Latest    catalog.NodeVersion
}

// Report is the outcome of one update check. StaleData means the release
// manifest predates its TTL and the findings may lag reality; it is
// informational, never an error.
type Report struct {
	Updates   []Update
	StaleData bool
	CheckedAt time.Time
}

// Check compares the per-major installed maxima against the manifest. It is
// a pure function of its two snapshots: lines the manifest does not know
// yield nothing rather than guesses.
func Check(latestInstalled map[int]catalog.NodeVersion, m *manifest.Manifest) []Update {
	if m == nil {
		return nil
	}

	var out []Update
	for major, installed := range latestInstalled {
		published, ok := m.Latest(major)
		if !ok {
			continue
		}
		if installed.Less(published) {
			out = append(out, Update{Major: major, Installed: installed, Latest: published})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Major < out[j].Major })
	return out
}

// Run performs a check and wraps it in a Report with staleness assessed
// against ttl.
func Run(latestInstalled map[int]catalog.NodeVersion, m *manifest.Manifest, ttl time.Duration, now time.Time) Report {
	report := Report{CheckedAt: now}
	if m == nil {
		report.StaleData = true
		return report
	}
	report.Updates = Check(latestInstalled, m)
	report.StaleData = m.Stale(ttl, now)
	return report
}
