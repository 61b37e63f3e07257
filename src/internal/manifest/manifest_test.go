package manifest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
)

const distIndexFixture = `[
  {"version": "v22.5.1", "date": "2024-07-19", "lts": false},
  {"version": "v20.11.1", "date": "2024-02-13", "lts": "Iron"},
  {"version": "v20.11.0", "date": "2024-01-09", "lts": "Iron"},
  {"version": "v18.19.1", "date": "2024-02-14", "lts": "Hydrogen"},
  {"version": "v0.10.48", "date": "2016-10-18", "lts": false}
]`

const scheduleFixture = `{
  "v0.10": {"start": "2013-03-11", "end": "2016-10-31"},
  "v18": {"start": "2022-04-19", "end": "2025-04-30", "codename": "Hydrogen"},
  "v20": {"start": "2023-04-18", "end": "2026-04-30", "codename": "Iron"},
  "v22": {"start": "2024-04-23", "end": "2027-04-30"}
}`

func TestParseDistIndex(t *testing.T) {
	lines, err := ParseDistIndex([]byte(distIndexFixture))
	if err != nil {
		t.Fatalf("ParseDistIndex: %v", err)
	}

	if got := lines[20].Latest; got != catalog.MustParseVersion("20.11.1") {
		t.Errorf("lines[20].Latest = %v, want v20.11.1", got)
	}
	if got := lines[20].LTSCodename; got != "Iron" {
		t.Errorf("lines[20].LTSCodename = %q, want Iron", got)
	}
	if got := lines[22].LTSCodename; got != "" {
		t.Errorf("lines[22].LTSCodename = %q, want empty for non-LTS", got)
	}
	if _, ok := lines[0]; ok {
		t.Error("pre-semver era line survived parsing")
	}
}

func TestParseDistIndexRejectsEmpty(t *testing.T) {
	if _, err := ParseDistIndex([]byte(`[]`)); err == nil {
		t.Error("ParseDistIndex accepted an empty index")
	}
	if _, err := ParseDistIndex([]byte(`{`)); err == nil {
		t.Error("ParseDistIndex accepted malformed JSON")
	}
}

func TestBuildMergesSchedule(t *testing.T) {
	lines, err := ParseDistIndex([]byte(distIndexFixture))
	if err != nil {
		t.Fatalf("ParseDistIndex: %v", err)
	}
	schedule, err := ParseSchedule([]byte(scheduleFixture))
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}

	fetched := time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC)
	m := Build(lines, schedule, fetched)

	end, ok := m.EndOfLife(18)
	if !ok || !end.Equal(time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("EndOfLife(18) = %v, %v", end, ok)
	}
	if _, ok := m.EndOfLife(99); ok {
		t.Error("EndOfLife(99) reported a date for an unknown line")
	}
	if latest, ok := m.Latest(22); !ok || latest != catalog.MustParseVersion("22.5.1") {
		t.Errorf("Latest(22) = %v, %v", latest, ok)
	}
	if m.Stale(DefaultCacheTTL, fetched.Add(time.Hour)) {
		t.Error("fresh manifest reported stale")
	}
	if !m.Stale(DefaultCacheTTL, fetched.Add(48*time.Hour)) {
		t.Error("two-day-old manifest not reported stale")
	}
}

func TestParseManifestRoundTrip(t *testing.T) {
	lines, _ := ParseDistIndex([]byte(distIndexFixture))
	schedule, _ := ParseSchedule([]byte(scheduleFixture))
	m := Build(lines, schedule, time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC))

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if !got.FetchedAt.Equal(m.FetchedAt) || len(got.Lines) != len(m.Lines) {
		t.Errorf("round trip lost data: %+v", got)
	}
}

func TestEmbeddedSnapshotParses(t *testing.T) {
	m, err := NewEmbeddedSource().GetManifest(context.Background())
	if err != nil {
		t.Fatalf("embedded snapshot: %v", err)
	}
	if len(m.Lines) == 0 {
		t.Fatal("embedded snapshot has no release lines")
	}
	if !m.FetchedAt.IsZero() {
		t.Error("embedded snapshot claims a fetch time")
	}
}
