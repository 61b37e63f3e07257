package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
)

func TestHTTPSourceGetManifest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(distIndexFixture))
	})
	mux.HandleFunc("/schedule.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(scheduleFixture))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewHTTPSourceWithClient(srv.URL+"/index.json", srv.URL+"/schedule.json", srv.Client())

	m, err := src.GetManifest(context.Background())
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if latest, ok := m.Latest(20); !ok || latest != catalog.MustParseVersion("20.11.1") {
		t.Errorf("Latest(20) = %v, %v", latest, ok)
	}
	if _, ok := m.EndOfLife(18); !ok {
		t.Error("schedule data was not merged")
	}
	if m.FetchedAt.IsZero() {
		t.Error("FetchedAt not stamped")
	}
}

func TestHTTPSourceScheduleFailureTolerated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(distIndexFixture))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewHTTPSourceWithClient(srv.URL+"/index.json", srv.URL+"/missing.json", srv.Client())

	m, err := src.GetManifest(context.Background())
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if _, ok := m.Latest(20); !ok {
		t.Error("index data missing")
	}
	if _, ok := m.EndOfLife(18); ok {
		t.Error("EndOfLife reported without schedule data")
	}
}

func TestHTTPSourceIndexFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	src := NewHTTPSourceWithClient(srv.URL+"/index.json", srv.URL+"/schedule.json", srv.Client())
	if _, err := src.GetManifest(context.Background()); err == nil {
		t.Error("GetManifest succeeded against a 404 index")
	}
}
