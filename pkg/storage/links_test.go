package storage

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *LinkStore {
	t.Helper()
	store, err := NewLinkStore(filepath.Join(t.TempDir(), "links.db"))
	if err != nil {
		t.Fatalf("creating link store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return store
}

func TestRecordAndListLinks(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordLink("https://example.com/a", "A", "google", "run-1"); err != nil {
		t.Fatalf("recording link: %v", err)
	}
	if err := store.RecordLink("https://example.com/b", "B", "duckduckgo", "run-1"); err != nil {
		t.Fatalf("recording link: %v", err)
	}

	links, err := store.Links(0)
	if err != nil {
		t.Fatalf("listing links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
}

func TestRecordLinkUpsert(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordLink("https://example.com/a", "A", "google", "run-1"); err != nil {
		t.Fatal(err)
	}
	// Same URL from a later run: hits bump, original run kept.
	if err := store.RecordLink("https://example.com/a", "A again", "duckduckgo", "run-2"); err != nil {
		t.Fatal(err)
	}

	links, err := store.Links(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link after upsert, got %d", len(links))
	}
	if links[0].Hits != 2 {
		t.Errorf("hits = %d, want 2", links[0].Hits)
	}
	if links[0].RunID != "run-1" {
		t.Errorf("run_id = %q, want run-1 (first recorder wins)", links[0].RunID)
	}
	if links[0].Title != "A" {
		t.Errorf("title = %q, want original title", links[0].Title)
	}
}

func TestRecordLinkIgnoresEmptyURL(t *testing.T) {
	store := newTestStore(t)
	if err := store.RecordLink("", "x", "google", "run-1"); err != nil {
		t.Fatalf("empty URL should be a no-op, got %v", err)
	}
	n, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestLinksForRun(t *testing.T) {
	store := newTestStore(t)

	for _, l := range []struct{ url, run string }{
		{"https://example.com/1", "run-1"},
		{"https://example.com/2", "run-1"},
		{"https://example.com/3", "run-2"},
	} {
		if err := store.RecordLink(l.url, "", "google", l.run); err != nil {
			t.Fatal(err)
		}
	}

	links, err := store.LinksForRun("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 {
		t.Errorf("expected 2 links for run-1, got %d", len(links))
	}
}

func TestLinksLimit(t *testing.T) {
	store := newTestStore(t)
	for _, url := range []string{"https://a.test", "https://b.test", "https://c.test"} {
		if err := store.RecordLink(url, "", "google", "run-1"); err != nil {
			t.Fatal(err)
		}
	}
	links, err := store.Links(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 {
		t.Errorf("expected limit of 2, got %d", len(links))
	}
}
