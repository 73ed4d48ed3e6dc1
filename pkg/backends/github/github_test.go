package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gh "github.com/google/go-github/v73/github"
)

func newTestBackend(t *testing.T, cfg *Config, handler http.Handler) (*Backend, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewBackend("github_test", cfg)
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	backend := b.(*Backend)

	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	client := gh.NewClient(nil)
	client.BaseURL = base
	backend.client = client
	return backend, srv
}

func TestSearchUsers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/users", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "alice" {
			t.Errorf("expected unquoted query, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{
			"total_count": 1,
			"items": [{"login": "alice", "html_url": "https://github.com/alice"}]
		}`)); err != nil {
			t.Fatal(err)
		}
	})

	b, _ := newTestBackend(t, &Config{MaxResults: 5}, mux)
	candidates, err := b.Search(context.Background(), `"alice"`)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Title != "alice" || candidates[0].Link != "https://github.com/alice" {
		t.Errorf("unexpected candidate: %+v", candidates[0])
	}
}

func TestSearchReposIncluded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"total_count": 0, "items": []}`)); err != nil {
			t.Fatal(err)
		}
	})
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{
			"total_count": 1,
			"items": [{"full_name": "alice/dotfiles", "html_url": "https://github.com/alice/dotfiles"}]
		}`)); err != nil {
			t.Fatal(err)
		}
	})

	b, _ := newTestBackend(t, &Config{MaxResults: 5, SearchRepos: true}, mux)
	candidates, err := b.Search(context.Background(), "alice")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "alice/dotfiles" {
		t.Errorf("expected repository hit, got %+v", candidates)
	}
}

func TestSearchAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	b, _ := newTestBackend(t, nil, mux)
	if _, err := b.Search(context.Background(), "alice"); err == nil {
		t.Error("expected error from rate-limited API")
	}
}
