package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msnfinder/msnfinder/pkg/core"
)

func newCrawlSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		page := `<html><body>
			<div class="item"><h2>First hit</h2><a href="/posts/1">open</a></div>
			<div class="item"><h2>Second hit</h2><a href="/posts/2">open</a></div>
			<a href="/profile/alice">profile link</a>
			<a href="/unrelated">boring</a>
			<a class="next" href="/page/2">next</a>
		</body></html>`
		if _, err := w.Write([]byte(page)); err != nil {
			t.Fatal(err)
		}
	})
	mux.HandleFunc("/page/2", func(w http.ResponseWriter, r *http.Request) {
		page := `<html><body>
			<div class="item"><h2>Third hit</h2><a href="/posts/3">open</a></div>
			<a href="/profile/broken">profile link</a>
		</body></html>`
		if _, err := w.Write([]byte(page)); err != nil {
			t.Fatal(err)
		}
	})
	mux.HandleFunc("/profile/alice", func(w http.ResponseWriter, r *http.Request) {
		page := `<html><body>
			<div class="detail"><h1>Alice Smith</h1><p>Lives in Melbourne.</p></div>
		</body></html>`
		if _, err := w.Write([]byte(page)); err != nil {
			t.Fatal(err)
		}
	})
	mux.HandleFunc("/profile/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return httptest.NewServer(mux)
}

func collect(t *testing.T, c *Crawler) []core.Result {
	t.Helper()
	var results []core.Result
	if err := c.Crawl(context.Background(), func(r core.Result) {
		results = append(results, r)
	}); err != nil {
		t.Fatalf("crawl: %v", err)
	}
	return results
}

func TestCrawlEmitsItemsAndFollowsPagination(t *testing.T) {
	srv := newCrawlSite(t)
	defer srv.Close()

	c, err := New(Config{Seeds: []string{srv.URL + "/"}, Keywords: []string{"profile"}}, nil)
	if err != nil {
		t.Fatalf("creating crawler: %v", err)
	}
	results := collect(t, c)

	titles := make(map[string]core.Result)
	for _, r := range results {
		titles[r.Title] = r
	}
	for _, want := range []string{"First hit", "Second hit", "Third hit", "Alice Smith"} {
		if _, ok := titles[want]; !ok {
			t.Errorf("missing result %q in %v", want, titles)
		}
	}
	// The broken profile branch must not have aborted the crawl: the third
	// hit lives on the page that also links the broken profile.
	if _, ok := titles["Third hit"]; !ok {
		t.Error("branch failure aborted siblings")
	}
}

func TestCrawlItemsAlwaysQualify(t *testing.T) {
	srv := newCrawlSite(t)
	defer srv.Close()

	c, err := New(Config{Seeds: []string{srv.URL + "/"}, Keywords: []string{"profile"}}, nil)
	if err != nil {
		t.Fatalf("creating crawler: %v", err)
	}
	for _, r := range collect(t, c) {
		if r.Score != 100 {
			t.Errorf("crawler result %q has score %d, want 100", r.Title, r.Score)
		}
		if r.Source != "crawler" {
			t.Errorf("unexpected source %q", r.Source)
		}
	}
}

func TestCrawlDetailContent(t *testing.T) {
	srv := newCrawlSite(t)
	defer srv.Close()

	c, err := New(Config{Seeds: []string{srv.URL + "/"}, Keywords: []string{"profile"}}, nil)
	if err != nil {
		t.Fatalf("creating crawler: %v", err)
	}
	for _, r := range collect(t, c) {
		if r.Title == "Alice Smith" {
			if r.Detail == "" {
				t.Error("detail page result has no content")
			}
			return
		}
	}
	t.Fatal("detail result not emitted")
}

func TestCrawlVisitedSetPreventsLoops(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits++
		// Page paginates to itself.
		page := `<html><body>
			<div class="item"><h2>Only hit</h2><a href="/x">open</a></div>
			<a class="next" href="/">next</a>
		</body></html>`
		if _, err := w.Write([]byte(page)); err != nil {
			t.Fatal(err)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(Config{Seeds: []string{srv.URL + "/"}}, nil)
	if err != nil {
		t.Fatalf("creating crawler: %v", err)
	}
	results := collect(t, c)
	if hits != 1 {
		t.Errorf("self-referencing page fetched %d times", hits)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestCrawlCancellation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		page := `<html><body><a class="next" href="/"></a></body></html>`
		time.Sleep(10 * time.Millisecond)
		if _, err := w.Write([]byte(page)); err != nil {
			t.Fatal(err)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := New(Config{Seeds: []string{srv.URL + "/"}}, nil)
	if err != nil {
		t.Fatalf("creating crawler: %v", err)
	}
	if err := c.Crawl(ctx, func(core.Result) {}); err == nil {
		t.Error("expected context error from cancelled crawl")
	}
}

func TestConfigRequiresSeeds(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error without seeds")
	}
	if _, err := New(Config{Seeds: []string{"not a url"}}, nil); err == nil {
		t.Error("expected error for relative seed")
	}
}

func TestKeywordMatchingIsCaseInsensitive(t *testing.T) {
	srv := newCrawlSite(t)
	defer srv.Close()

	// The site links /profile/alice in lowercase; an uppercase keyword
	// must still match it.
	c, err := New(Config{Seeds: []string{srv.URL + "/"}, Keywords: []string{"PROFILE"}}, nil)
	if err != nil {
		t.Fatalf("creating crawler: %v", err)
	}
	for _, r := range collect(t, c) {
		if r.Title == "Alice Smith" {
			return
		}
	}
	t.Error("uppercase keyword did not match lowercase link")
}

func TestCustomRelevancePredicate(t *testing.T) {
	srv := newCrawlSite(t)
	defer srv.Close()

	// Predicate rejecting everything: no detail pages fetched.
	c, err := New(Config{Seeds: []string{srv.URL + "/"}}, func(string) bool { return false })
	if err != nil {
		t.Fatalf("creating crawler: %v", err)
	}
	for _, r := range collect(t, c) {
		if r.Detail != "" {
			t.Errorf("detail page fetched despite predicate: %q", r.Title)
		}
	}
}
