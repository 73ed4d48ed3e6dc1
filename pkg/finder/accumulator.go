package finder

import (
	"sync"

	"github.com/msnfinder/msnfinder/pkg/core"
)

// Accumulator is the shared, order-preserving collection of accepted
// results plus a deduplicated set of useful links. One orchestrator run
// appends while any number of readers snapshot; snapshots are always
// prefix-consistent with the writer's append order.
//
// The link set is a side index only: it is recorded, never consulted to
// skip fetches during a run.
type Accumulator struct {
	mu      sync.RWMutex
	results []core.Result
	links   map[string]struct{}
	// linkOrder keeps first-seen order so Links() is deterministic.
	linkOrder []string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		links: make(map[string]struct{}),
	}
}

// Append adds an accepted result. Appends are atomic with respect to
// length: no reader ever observes a partially stored result.
func (a *Accumulator) Append(r core.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, r)
}

// Snapshot returns a copy of the accepted results in discovery order.
func (a *Accumulator) Snapshot() []core.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]core.Result, len(a.results))
	copy(out, a.results)
	return out
}

// Len returns the current number of accepted results.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.results)
}

// RecordLink adds a link to the useful-link set. Recording an already-seen
// link is a no-op.
func (a *Accumulator) RecordLink(link string) {
	if link == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, seen := a.links[link]; seen {
		return
	}
	a.links[link] = struct{}{}
	a.linkOrder = append(a.linkOrder, link)
}

// LinkSeen reports whether a link is already in the useful-link set.
func (a *Accumulator) LinkSeen(link string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, seen := a.links[link]
	return seen
}

// Links returns the useful links in first-seen order.
func (a *Accumulator) Links() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]string, len(a.linkOrder))
	copy(out, a.linkOrder)
	return out
}

// Reset clears results and links. Called exactly once per run, at start,
// never mid-run.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = nil
	a.links = make(map[string]struct{})
	a.linkOrder = nil
}
