package manifest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
)

// stubSource counts calls and serves a fixed manifest or error.
type stubSource struct {
	manifest *Manifest
	err      error
	calls    int
}

func (s *stubSource) GetManifest(context.Context) (*Manifest, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.manifest, nil
}

func testManifest(fetchedAt time.Time) *Manifest {
	return &Manifest{
		Lines: map[int]LineInfo{
			20: {Latest: catalog.MustParseVersion("20.11.1"), LTSCodename: "Iron"},
		},
		FetchedAt: fetchedAt,
	}
}

func TestCachedSourceServesFromDisk(t *testing.T) {
	now := time.Now()
	stub := &stubSource{manifest: testManifest(now)}
	cached := NewCachedSource(stub, t.TempDir(), time.Hour)

	for i := 0; i < 3; i++ {
		m, err := cached.GetManifest(context.Background())
		if err != nil {
			t.Fatalf("GetManifest #%d: %v", i, err)
		}
		if _, ok := m.Latest(20); !ok {
			t.Fatalf("GetManifest #%d returned wrong manifest: %+v", i, m)
		}
	}

	if stub.calls != 1 {
		t.Errorf("underlying source called %d times, want 1", stub.calls)
	}
}

func TestCachedSourceExpiryRefetches(t *testing.T) {
	stale := testManifest(time.Now().Add(-2 * time.Hour))
	stub := &stubSource{manifest: stale}
	cached := NewCachedSource(stub, t.TempDir(), time.Hour)

	if _, err := cached.GetManifest(context.Background()); err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	// The cached entry itself is already past TTL, so the next call must go
	// back to the source.
	if _, err := cached.GetManifest(context.Background()); err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("underlying source called %d times, want 2", stub.calls)
	}
}

func TestCachedSourceDegradesToExpiredEntry(t *testing.T) {
	dir := t.TempDir()
	stale := testManifest(time.Now().Add(-2 * time.Hour))
	stub := &stubSource{manifest: stale}
	cached := NewCachedSource(stub, dir, time.Hour)

	if _, err := cached.GetManifest(context.Background()); err != nil {
		t.Fatalf("priming GetManifest: %v", err)
	}

	stub.err = errors.New("network down")
	m, err := cached.GetManifest(context.Background())
	if err != nil {
		t.Fatalf("GetManifest with dead source: %v, want the expired cache entry", err)
	}
	if _, ok := m.Latest(20); !ok {
		t.Errorf("degraded manifest = %+v", m)
	}
}

func TestCachedSourceForceRefresh(t *testing.T) {
	now := time.Now()
	stub := &stubSource{manifest: testManifest(now)}
	cached := NewCachedSource(stub, t.TempDir(), time.Hour)

	if _, err := cached.GetManifest(context.Background()); err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if _, err := cached.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("underlying source called %d times, want 2", stub.calls)
	}
}

func TestFallbackSource(t *testing.T) {
	good := testManifest(time.Now())
	primary := &stubSource{err: errors.New("unreachable")}
	fallback := &stubSource{manifest: good}

	m, err := NewFallbackSource(primary, fallback).GetManifest(context.Background())
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if _, ok := m.Latest(20); !ok {
		t.Errorf("fallback manifest = %+v", m)
	}

	// Primary recovers: fallback must not be consulted again.
	primary.err = nil
	primary.manifest = good
	fallbackCalls := fallback.calls
	if _, err := NewFallbackSource(primary, fallback).GetManifest(context.Background()); err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if fallback.calls != fallbackCalls {
		t.Error("fallback consulted even though primary succeeded")
	}
}
