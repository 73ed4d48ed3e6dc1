package duckduckgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const resultPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Falice&amp;rut=abc">Alice Smith - Example</a>
</div>
<div class="result">
  <a class="result__a" href="https://social.example/alice">alice profile</a>
</div>
</body></html>`

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(resultPage)); err != nil {
			t.Fatal(err)
		}
	}))
	defer srv.Close()

	b, err := NewBackend("ddg_test", &Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}

	candidates, err := b.Search(context.Background(), `"alice"`)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Link != "https://example.com/alice" {
		t.Errorf("uddg redirect not unwrapped: %s", candidates[0].Link)
	}
	if candidates[1].Title != "alice profile" {
		t.Errorf("unexpected title: %s", candidates[1].Title)
	}
}

func TestSearchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	b, err := NewBackend("ddg_test", &Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	if _, err := b.Search(context.Background(), "x"); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.BaseURL == "" || cfg.MaxResults != 20 || cfg.UserAgent == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
