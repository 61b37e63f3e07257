package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Remote endpoints. The dist index lists every published release; the
// release schedule carries per-line support dates.
const (
	DefaultIndexURL    = "https://nodejs.org/dist/index.json"
	DefaultScheduleURL = "https://raw.githubusercontent.com/nodejs/Release/main/schedule.json"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response is read. The dist index is a
// couple of megabytes; anything past this is not the document we expect.
const maxResponseBytes = 32 << 20

// HTTPSource builds manifests from the remote Node.js endpoints.
type HTTPSource struct {
	indexURL    string
	scheduleURL string
	httpClient  *http.Client
	now         func() time.Time
}

// NewHTTPSource creates a Source that fetches from the given endpoints.
func NewHTTPSource(indexURL, scheduleURL string) *HTTPSource {
	return &HTTPSource{
		indexURL:    indexURL,
		scheduleURL: scheduleURL,
		httpClient:  &http.Client{Timeout: DefaultHTTPTimeout},
		now:         time.Now,
	}
}

// NewHTTPSourceWithClient creates an HTTPSource with a custom HTTP client.
// This is useful for testing or custom timeout/transport configuration.
func NewHTTPSourceWithClient(indexURL, scheduleURL string, client *http.Client) *HTTPSource {
	return &HTTPSource{
		indexURL:    indexURL,
		scheduleURL: scheduleURL,
		httpClient:  client,
		now:         time.Now,
	}
}

// GetManifest fetches the dist index and the release schedule and merges
// them. A schedule failure is tolerated; EOL dates are an enrichment, the
// index alone still yields a usable manifest.
func (s *HTTPSource) GetManifest(ctx context.Context) (*Manifest, error) {
	indexData, err := s.fetch(ctx, s.indexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dist index: %w", err)
	}
	lines, err := ParseDistIndex(indexData)
	if err != nil {
		return nil, err
	}

	var schedule map[int]ScheduleEntry
	if scheduleData, err := s.fetch(ctx, s.scheduleURL); err == nil {
		schedule, _ = ParseSchedule(scheduleData)
	}

	return Build(lines, schedule, s.now()), nil
}

func (s *HTTPSource) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}
