package core

import (
	"context"
)

// Backend represents one external search source that can be queried with a
// free-text term and returns candidate evidence items.
//
// Backends are self-contained units that:
// - Know how to query their specific source (search result page, API, etc.)
// - Manage their own configuration and lifecycle
// - Never score or filter candidates; scoring is the orchestrator's job
//
// Key concepts:
// - Type vs Name: Type is the backend category (e.g. "google"), Name is the
//   configured instance (e.g. "google_au" for a region-pinned instance)
// - Prototype registration: backends register themselves during init() so the
//   binary only carries the backends it imports
//
// Registration pattern:
//
//	func init() {
//		core.RegisterBackendPrototype("myengine", &Backend{})
//	}
type Backend interface {
	// Type returns the backend type identifier (e.g. "google", "duckduckgo").
	// Used for factory registration and configuration matching.
	Type() string

	// Name returns the unique instance name for this backend. This is what
	// shows up as the source of a result.
	Name() string

	// Search queries the source with the given term and returns raw
	// candidates. A non-nil error indicates a transport failure (unreachable
	// host, non-2xx status). An empty slice with a nil error is a valid
	// outcome: the source answered but had nothing.
	//
	// Implementations must respect context cancellation; an in-flight call
	// is allowed to finish but should not start new network round trips once
	// ctx is done.
	Search(ctx context.Context, query string) ([]Candidate, error)

	// ConfigType returns a pointer to an empty configuration struct of the
	// type SetConfig expects.
	ConfigType() interface{}

	// SetConfig updates the backend configuration, validating it first.
	SetConfig(config interface{}) error

	// GetConfig returns the current configuration.
	GetConfig() interface{}

	// Close releases any resources held by the backend.
	Close() error

	// Factory creates a new instance of this backend type. Called by the
	// registry when instantiating configured backends. The returned backend
	// must be ready to use.
	Factory(instanceName string, config interface{}) (Backend, error)
}
