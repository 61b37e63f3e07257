package updates

import (
	"testing"
	"time"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/manifest"
)

func fixtureManifest(fetchedAt time.Time) *manifest.Manifest {
	return &manifest.Manifest{
		Lines: map[int]manifest.LineInfo{
			18: {Latest: catalog.MustParseVersion("18.20.4")},
			20: {Latest: catalog.MustParseVersion("20.11.1")},
		},
		FetchedAt: fetchedAt,
	}
}

func TestCheck(t *testing.T) {
	installed := map[int]catalog.NodeVersion{
		18: catalog.MustParseVersion("18.16.0"), // behind
		20: catalog.MustParseVersion("20.11.1"), // current
		99: catalog.MustParseVersion("99.0.0"),  // unknown line
	}

	got := Check(installed, fixtureManifest(time.Now()))

	if len(got) != 1 {
		t.Fatalf("Check = %+v, want exactly one update", got)
	}
	want := Update{
		Major:     18,
		Installed: catalog.MustParseVersion("18.16.0"),
		Latest:    catalog.MustParseVersion("18.20.4"),
	}
	if got[0] != want {
		t.Errorf("Check[0] = %+v, want %+v", got[0], want)
	}
}

func TestCheckNilManifest(t *testing.T) {
	installed := map[int]catalog.NodeVersion{18: catalog.MustParseVersion("18.16.0")}
	if got := Check(installed, nil); got != nil {
		t.Errorf("Check with nil manifest = %v, want nil", got)
	}
}

func TestCheckOrderedByMajor(t *testing.T) {
	m := &manifest.Manifest{Lines: map[int]manifest.LineInfo{
		14: {Latest: catalog.MustParseVersion("14.21.3")},
		16: {Latest: catalog.MustParseVersion("16.20.2")},
		18: {Latest: catalog.MustParseVersion("18.20.4")},
	}}
	installed := map[int]catalog.NodeVersion{
		18: catalog.MustParseVersion("18.0.0"),
		14: catalog.MustParseVersion("14.0.0"),
		16: catalog.MustParseVersion("16.0.0"),
	}

	got := Check(installed, m)
	if len(got) != 3 {
		t.Fatalf("Check = %+v, want 3 updates", got)
	}
	for i, major := range []int{14, 16, 18} {
		if got[i].Major != major {
			t.Errorf("Check[%d].Major = %d, want %d", i, got[i].Major, major)
		}
	}
}

func TestRunFlagsStaleData(t *testing.T) {
	now := time.Now()
	installed := map[int]catalog.NodeVersion{18: catalog.MustParseVersion("18.16.0")}

	fresh := Run(installed, fixtureManifest(now.Add(-time.Hour)), 24*time.Hour, now)
	if fresh.StaleData {
		t.Error("fresh manifest flagged stale")
	}
	if len(fresh.Updates) != 1 {
		t.Errorf("fresh.Updates = %+v, want one", fresh.Updates)
	}

	stale := Run(installed, fixtureManifest(now.Add(-48*time.Hour)), 24*time.Hour, now)
	if !stale.StaleData {
		t.Error("old manifest not flagged stale")
	}
	if len(stale.Updates) != 1 {
		t.Error("staleness suppressed findings; it must only flag them")
	}

	missing := Run(installed, nil, 24*time.Hour, now)
	if !missing.StaleData || len(missing.Updates) != 0 {
		t.Errorf("missing manifest report = %+v", missing)
	}
}
