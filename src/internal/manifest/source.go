package manifest

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Source retrieves a release manifest from some backend. Implementations
// include the remote Node.js endpoints, a disk cache, and the embedded
// snapshot.
type Source interface {
	GetManifest(ctx context.Context) (*Manifest, error)
}

// ErrStale signals that only outdated release data was available. Callers
// keep using the manifest they have and surface the flag; staleness never
// blocks an action.
type ErrStale struct {
	FetchedAt time.Time
}

func (e *ErrStale) Error() string {
	if e.FetchedAt.IsZero() {
		return "release data is the embedded snapshot; remote refresh has never succeeded"
	}
	return fmt.Sprintf("release data is stale (fetched %s)", e.FetchedAt.Format(time.RFC3339))
}

// IsStale checks if an error indicates outdated release data.
func IsStale(err error) bool {
	var target *ErrStale
	return errors.As(err, &target)
}
