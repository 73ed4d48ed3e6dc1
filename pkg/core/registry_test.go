package core

import (
	"context"
	"testing"
)

type fakeBackend struct {
	name   string
	config interface{}
	closed bool
}

func (f *fakeBackend) Type() string { return "fake" }
func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) Search(ctx context.Context, query string) ([]Candidate, error) {
	return []Candidate{{Title: "hit for " + query, Link: "https://example.com"}}, nil
}
func (f *fakeBackend) ConfigType() interface{}            { return &fakeConfig{} }
func (f *fakeBackend) SetConfig(config interface{}) error { f.config = config; return nil }
func (f *fakeBackend) GetConfig() interface{}             { return f.config }
func (f *fakeBackend) Close() error                       { f.closed = true; return nil }
func (f *fakeBackend) Factory(instanceName string, config interface{}) (Backend, error) {
	return &fakeBackend{name: instanceName, config: config}, nil
}

type fakeConfig struct{}

func (c *fakeConfig) Validate() error { return nil }

func TestRegistryCreateBackend(t *testing.T) {
	registry := NewRegistry()
	if err := registry.RegisterPrototype("fake", &fakeBackend{}); err != nil {
		t.Fatalf("registering prototype: %v", err)
	}

	if err := registry.CreateBackend("fake_one", "fake", &fakeConfig{}); err != nil {
		t.Fatalf("creating backend: %v", err)
	}

	b, err := registry.GetBackend("fake_one")
	if err != nil {
		t.Fatalf("getting backend: %v", err)
	}
	if b.Name() != "fake_one" {
		t.Errorf("expected instance name fake_one, got %s", b.Name())
	}
}

func TestRegistryUnknownPrototype(t *testing.T) {
	registry := NewRegistry()
	if err := registry.CreateBackend("x", "missing", nil); err == nil {
		t.Fatal("expected error for unknown prototype")
	}
}

func TestRegistryDuplicatePrototype(t *testing.T) {
	registry := NewRegistry()
	if err := registry.RegisterPrototype("fake", &fakeBackend{}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := registry.RegisterPrototype("fake", &fakeBackend{}); err == nil {
		t.Fatal("expected error registering duplicate prototype")
	}
}

func TestRegistryReplaceClosesExisting(t *testing.T) {
	registry := NewRegistry()
	if err := registry.RegisterPrototype("fake", &fakeBackend{}); err != nil {
		t.Fatalf("registering prototype: %v", err)
	}
	if err := registry.CreateBackend("dup", "fake", nil); err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	first, _ := registry.GetBackend("dup")
	if err := registry.CreateBackend("dup", "fake", nil); err != nil {
		t.Fatalf("re-creating backend: %v", err)
	}
	if !first.(*fakeBackend).closed {
		t.Error("expected replaced backend to be closed")
	}
}

func TestRegistryClose(t *testing.T) {
	registry := NewRegistry()
	if err := registry.RegisterPrototype("fake", &fakeBackend{}); err != nil {
		t.Fatalf("registering prototype: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		if err := registry.CreateBackend(name, "fake", nil); err != nil {
			t.Fatalf("creating backend %s: %v", name, err)
		}
	}
	if err := registry.Close(); err != nil {
		t.Fatalf("closing registry: %v", err)
	}
	if got := len(registry.ListBackends()); got != 0 {
		t.Errorf("expected empty registry after close, got %d backends", got)
	}
}
