package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const resultPage = `<html><body>
<div class="g">
  <a href="/url?q=https://example.com/alice&amp;sa=U"><h3>Alice Smith | Example</h3></a>
</div>
<div class="g">
  <a href="https://social.example/alice"><h3>alice (@alice)</h3></a>
</div>
<div class="g">
  <a href="https://no-title.example"></a>
</div>
</body></html>`

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("missing query parameter")
		}
		if _, err := w.Write([]byte(resultPage)); err != nil {
			t.Fatal(err)
		}
	}))
	defer srv.Close()

	b, err := NewBackend("google_test", &Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}

	candidates, err := b.Search(context.Background(), `"alice"`)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates (title-less block skipped), got %d", len(candidates))
	}
	if candidates[0].Link != "https://example.com/alice" {
		t.Errorf("redirect link not unwrapped: %s", candidates[0].Link)
	}
	if candidates[0].Title != "Alice Smith | Example" {
		t.Errorf("unexpected title: %s", candidates[0].Title)
	}
}

func TestSearchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	b, err := NewBackend("google_test", &Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	if _, err := b.Search(context.Background(), "x"); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestSearchEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("<html><body></body></html>")); err != nil {
			t.Fatal(err)
		}
	}))
	defer srv.Close()

	b, err := NewBackend("google_test", &Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	candidates, err := b.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("structure mismatch must not be an error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestMaxResults(t *testing.T) {
	page := "<html><body>"
	for i := 0; i < 10; i++ {
		page += `<div class="g"><a href="https://example.com/p"><h3>hit</h3></a></div>`
	}
	page += "</body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(page)); err != nil {
			t.Fatal(err)
		}
	}))
	defer srv.Close()

	b, err := NewBackend("google_test", &Config{BaseURL: srv.URL, MaxResults: 3})
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	candidates, err := b.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(candidates) != 3 {
		t.Errorf("expected max_results to cap at 3, got %d", len(candidates))
	}
}
