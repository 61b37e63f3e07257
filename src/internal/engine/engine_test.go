package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/manifest"
	"github.com/nodedesk/nodedesk/src/internal/opqueue"
	"github.com/nodedesk/nodedesk/src/internal/settings"
)

func writeManifestFixture(t *testing.T, fetchedAt time.Time) string {
	t.Helper()
	m := &manifest.Manifest{
		Lines: map[int]manifest.LineInfo{
			18: {
				Latest:      catalog.MustParseVersion("18.20.4"),
				LTSCodename: "Hydrogen",
				EndOfLife:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
			},
		},
		FetchedAt: fetchedAt,
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "releases.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestEngine(t *testing.T, fetchedAt time.Time) *Engine {
	t.Helper()
	cfg := settings.Default()
	cfg.ManifestFile = writeManifestFixture(t, fetchedAt)
	cfg.RefreshInterval = time.Hour // keep background refresh out of tests

	e := New(&cfg)
	e.Start(context.Background())
	t.Cleanup(e.Stop)
	return e
}

func TestSnapshotAlwaysHasNativeEnvironment(t *testing.T) {
	e := newTestEngine(t, time.Now())

	snap := e.Snapshot()
	if len(snap.Environments) == 0 {
		t.Fatal("snapshot has no environments")
	}
	if snap.Environments[0].Env.ID != environ.NativeID {
		t.Errorf("first environment = %s, want native", snap.Environments[0].Env.ID)
	}
	if snap.Environments[0].HasData {
		t.Error("unrefreshed environment claims catalog data")
	}
}

func TestSubmitUnknownEnvironmentRejected(t *testing.T) {
	e := newTestEngine(t, time.Now())

	_, err := e.Submit(opqueue.KindInstall, environ.WSLID("Ghost"), catalog.MustParseVersion("18.16.0"))
	if !environ.IsEnvironmentUnavailable(err) {
		t.Errorf("Submit: %v, want ErrEnvironmentUnavailable", err)
	}
}

func TestManifestFromFileSource(t *testing.T) {
	e := newTestEngine(t, time.Now())

	m, err := e.Manifest(context.Background())
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if latest, ok := m.Latest(18); !ok || latest != catalog.MustParseVersion("18.20.4") {
		t.Errorf("Latest(18) = %v, %v", latest, ok)
	}
}

func TestManifestStaleFlagged(t *testing.T) {
	e := newTestEngine(t, time.Now().Add(-72*time.Hour))

	m, err := e.Manifest(context.Background())
	if m == nil {
		t.Fatalf("Manifest returned no data: %v", err)
	}
	if !manifest.IsStale(err) {
		t.Errorf("Manifest error = %v, want ErrStale", err)
	}
}

func TestCheckUpdatesDegradesWithoutInstalledData(t *testing.T) {
	e := newTestEngine(t, time.Now())

	report := e.CheckUpdates(context.Background(), environ.NativeID)
	if len(report.Updates) != 0 {
		t.Errorf("updates with no installed data = %+v", report.Updates)
	}
	if report.StaleData {
		t.Error("fresh manifest flagged stale")
	}
}

func TestEOLStatus(t *testing.T) {
	e := newTestEngine(t, time.Now())

	// The fixture's v18 line ended 2025-04-30; relative to the current
	// clock this is in the past.
	if got := e.EOLStatus(context.Background(), catalog.MustParseVersion("18.16.0")); got != catalog.SupportEnded {
		t.Errorf("EOLStatus(v18.16.0) = %v, want ended", got)
	}
	if got := e.EOLStatus(context.Background(), catalog.MustParseVersion("99.0.0")); got != catalog.SupportUnknown {
		t.Errorf("EOLStatus(v99.0.0) = %v, want unknown", got)
	}
}
