// Package catalog holds the typed model of Node.js versions and the cached
// per-environment view of what is installed where. Snapshots are replaced
// wholesale on refresh and never partially mutated; readers always see either
// the previous complete state or the next one.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nodedesk/nodedesk/src/internal/environ"
)

// Source lists versions for one environment. *fnm.Client satisfies it.
type Source interface {
	ListInstalled(ctx context.Context) ([]InstalledVersion, []string, error)
	ListRemote(ctx context.Context) ([]RemoteVersion, error)
	Current(ctx context.Context) (NodeVersion, bool, error)
}

// InstalledSet is one environment's installed versions at a point in time.
// Stale means the last refresh attempt failed and the data predates it.
type InstalledSet struct {
	Versions   []InstalledVersion
	Current    NodeVersion
	HasCurrent bool
	FetchedAt  time.Time
	Stale      bool
}

// Clone returns an independent copy.
func (s InstalledSet) Clone() InstalledSet {
	out := s
	out.Versions = append([]InstalledVersion(nil), s.Versions...)
	return out
}

// Has reports whether the exact version is in the set.
func (s InstalledSet) Has(v NodeVersion) bool {
	for _, iv := range s.Versions {
		if iv.Version == v {
			return true
		}
	}
	return false
}

// Default returns the default-flagged version, if any.
func (s InstalledSet) Default() (NodeVersion, bool) {
	for _, iv := range s.Versions {
		if iv.IsDefault {
			return iv.Version, true
		}
	}
	return NodeVersion{}, false
}

// RemoteSet is the cached installable-version listing.
type RemoteSet struct {
	Versions  []RemoteVersion
	FetchedAt time.Time
	Stale     bool
}

// Clone returns an independent copy.
func (s RemoteSet) Clone() RemoteSet {
	out := s
	out.Versions = append([]RemoteVersion(nil), s.Versions...)
	return out
}

// seqGate implements completion-order conflict resolution: each refresh
// takes a ticket at start and applies its result only if no later-started
// refresh has already landed.
type seqGate struct {
	nextSeq uint64
	applied uint64
}

func (g *seqGate) ticket() uint64 {
	g.nextSeq++
	return g.nextSeq
}

func (g *seqGate) accept(seq uint64) bool {
	if seq < g.applied {
		return false
	}
	g.applied = seq
	return true
}

type installedEntry struct {
	set InstalledSet
	seqGate
}

// Catalog caches per-environment installed sets and one shared remote set.
// Concurrent refreshes of the same environment resolve by completion order:
// a refresh that started before an already-applied one is discarded, so the
// cache never moves backwards in time.
type Catalog struct {
	mu         sync.Mutex
	installed  map[environ.ID]*installedEntry
	remote     RemoteSet
	remoteGate seqGate
	now        func() time.Time
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{
		installed: make(map[environ.ID]*installedEntry),
		now:       time.Now,
	}
}

func (c *Catalog) entry(env environ.ID) *installedEntry {
	e, ok := c.installed[env]
	if !ok {
		e = &installedEntry{}
		c.installed[env] = e
	}
	return e
}

// Refresh replaces the environment's installed set from the source. On
// failure the prior snapshot is kept and marked Stale. A refresh superseded
// by a newer one that completed first is discarded silently.
func (c *Catalog) Refresh(ctx context.Context, env environ.ID, src Source) error {
	c.mu.Lock()
	e := c.entry(env)
	seq := e.ticket()
	c.mu.Unlock()

	versions, _, err := src.ListInstalled(ctx)
	var current NodeVersion
	hasCurrent := false
	if err == nil {
		var none bool
		current, none, err = src.Current(ctx)
		hasCurrent = err == nil && !none
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !e.accept(seq) {
		log.Debug("discarding superseded refresh", "env", env, "seq", seq)
		return nil
	}

	if err != nil {
		e.set.Stale = true
		return err
	}

	e.set = InstalledSet{
		Versions:   versions,
		Current:    current,
		HasCurrent: hasCurrent,
		FetchedAt:  c.now(),
	}
	return nil
}

// RefreshRemote replaces the remote set, with the same completion-order
// and stale-on-failure rules as Refresh.
func (c *Catalog) RefreshRemote(ctx context.Context, src Source) error {
	c.mu.Lock()
	seq := c.remoteGate.ticket()
	c.mu.Unlock()

	versions, err := src.ListRemote(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.remoteGate.accept(seq) {
		return nil
	}

	if err != nil {
		c.remote.Stale = true
		return err
	}

	c.remote = RemoteSet{Versions: versions, FetchedAt: c.now()}
	return nil
}

// Installed returns a snapshot of the environment's installed set. ok is
// false when the environment has never been refreshed.
func (c *Catalog) Installed(env environ.ID) (InstalledSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.installed[env]
	if !ok || e.applied == 0 {
		return InstalledSet{}, false
	}
	return e.set.Clone(), true
}

// Remote returns a snapshot of the remote set.
func (c *Catalog) Remote() (RemoteSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remoteGate.applied == 0 {
		return RemoteSet{}, false
	}
	return c.remote.Clone(), true
}

// MarkStale flags the environment's set without touching its contents, for
// callers that know the cache no longer reflects reality (e.g. a mutation
// succeeded but the follow-up refresh has not landed yet).
func (c *Catalog) MarkStale(env environ.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.installed[env]; ok {
		e.set.Stale = true
	}
}

// IsCurrent reports whether v is the environment's active default.
func (c *Catalog) IsCurrent(env environ.ID, v NodeVersion) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.installed[env]
	if !ok {
		return false
	}
	return e.set.HasCurrent && e.set.Current == v
}

// LatestInstalledPerMajor maps each installed major line to its highest
// installed patch in the environment.
func (c *Catalog) LatestInstalledPerMajor(env environ.ID) map[int]NodeVersion {
	set, ok := c.Installed(env)
	if !ok {
		return nil
	}
	return LatestPerMajor(set.Versions)
}

// LatestPerMajor reduces an installed listing to its per-major maxima.
func LatestPerMajor(versions []InstalledVersion) map[int]NodeVersion {
	latest := make(map[int]NodeVersion, len(versions))
	for _, iv := range versions {
		if best, ok := latest[iv.Version.Major]; !ok || best.Less(iv.Version) {
			latest[iv.Version.Major] = iv.Version
		}
	}
	return latest
}

// PruneCandidates selects the prune candidates for the environment's
// installed set, if one is cached.
func (c *Catalog) PruneCandidates(env environ.ID) []NodeVersion {
	set, ok := c.Installed(env)
	if !ok {
		return nil
	}
	return PruneCandidates(set)
}

// PruneCandidates selects the versions a cleanup pass would uninstall:
// installed, not the default, and not the highest patch of their major line.
func PruneCandidates(set InstalledSet) []NodeVersion {
	latest := LatestPerMajor(set.Versions)

	var out []NodeVersion
	for _, iv := range set.Versions {
		if iv.IsDefault {
			continue
		}
		if latest[iv.Version.Major] == iv.Version {
			continue
		}
		out = append(out, iv.Version)
	}
	SortVersions(out)
	return out
}

// SortVersions orders versions ascending in place.
func SortVersions(versions []NodeVersion) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
}
