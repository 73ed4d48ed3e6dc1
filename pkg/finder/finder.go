package finder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/log"
)

// Mode is the termination policy of a run.
type Mode string

const (
	// ModeEndless runs until externally stopped.
	ModeEndless Mode = "endless"
	// ModeLimited stops once match_count results have been accepted.
	ModeLimited Mode = "limited"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEndless, ModeLimited:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q (want %q or %q)", s, ModeEndless, ModeLimited)
}

// Params configures one orchestration run.
type Params struct {
	// Input is the raw whitespace-joined subject description.
	Input string
	Mode  Mode
	// MatchCount is the limited-mode threshold. With 0 the run stops on the
	// first accepted result.
	MatchCount int
	// MinScore is the acceptance threshold. Values above the scoring range
	// are legal and simply never match.
	MinScore int
}

func (p Params) validate() error {
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.MatchCount < 0 {
		return fmt.Errorf("match count must be >= 0, got %d", p.MatchCount)
	}
	if p.MinScore < 0 {
		return fmt.Errorf("min score must be >= 0, got %d", p.MinScore)
	}
	return nil
}

// ScorerFactory builds a scoring policy for one run from the run's token
// texts. The policy itself is external and replaceable.
type ScorerFactory func(terms []string) core.Scorer

// Options configures a Finder.
type Options struct {
	// MaxRetries bounds attempts per (token, backend) pair. Default 5.
	MaxRetries int
	// RetryDelay is the fixed inter-attempt delay, applied after every
	// backend round whether it succeeded or not. Default 1s.
	RetryDelay time.Duration
}

// Finder orchestrates search runs over an ordered list of backends. It owns
// all run state explicitly: the accumulator, the cancellation flag and the
// retry counters live here, shared with callers only through the small
// thread-safe surface below. At most one run is active at a time; starting
// a second run while one is active is rejected.
type Finder struct {
	backends   []core.Backend
	newScorer  ScorerFactory
	acc        *Accumulator
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger

	mu        sync.Mutex
	running   bool
	runID     string
	stopCh    chan struct{}
	stopOnce  *sync.Once
	doneCh    chan struct{}
	listeners []func(core.Result)
	// attempts tracks per-(token, backend) attempt counts for the current
	// run. Counts only grow within a run; a new run starts a fresh map.
	attempts map[string]int
}

// New creates a Finder querying the given backends in slice order.
func New(backends []core.Backend, newScorer ScorerFactory, opts Options) (*Finder, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("no backends configured")
	}
	if newScorer == nil {
		return nil, fmt.Errorf("no scorer factory configured")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &Finder{
		backends:   backends,
		newScorer:  newScorer,
		acc:        NewAccumulator(),
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     log.ForService("finder"),
	}, nil
}

// OnResult registers a listener invoked for every accepted result, in
// append order. Listeners must be registered before Start and must not
// block.
func (f *Finder) OnResult(fn func(core.Result)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Start begins a run in the background. Configuration errors (invalid mode,
// negative thresholds, empty input) are reported synchronously and no
// background work starts. A Start while another run is active is rejected.
func (f *Finder) Start(ctx context.Context, p Params) error {
	if err := p.validate(); err != nil {
		return err
	}
	tokens, err := Normalize(p.Input)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return fmt.Errorf("a run is already active")
	}
	f.running = true
	f.runID = uuid.New().String()
	f.stopCh = make(chan struct{})
	f.stopOnce = &sync.Once{}
	f.doneCh = make(chan struct{})
	f.attempts = make(map[string]int)
	f.acc.Reset()

	f.logger.Infof("run %s starting: %d tokens, %d backends, mode=%s match_count=%d min_score=%d",
		f.runID, len(tokens), len(f.backends), p.Mode, p.MatchCount, p.MinScore)

	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Text
	}
	scorer := f.newScorer(terms)

	go f.run(ctx, tokens, scorer, p, f.stopCh, f.doneCh)
	return nil
}

// Stop deactivates the cancellation flag and returns the current snapshot.
// Idempotent: stopping twice yields the same observable snapshot.
func (f *Finder) Stop() []core.Result {
	f.mu.Lock()
	stopOnce, stopCh := f.stopOnce, f.stopCh
	f.mu.Unlock()

	if stopOnce != nil {
		stopOnce.Do(func() {
			close(stopCh)
			f.logger.Infof("stop requested")
		})
	}
	return f.acc.Snapshot()
}

// Results returns the accepted results so far, in discovery order.
func (f *Finder) Results() []core.Result {
	return f.acc.Snapshot()
}

// Links returns the deduplicated useful links recorded so far.
func (f *Finder) Links() []string {
	return f.acc.Links()
}

// Running reports whether a run is currently active.
func (f *Finder) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// RunID returns the identifier of the current (or most recent) run.
func (f *Finder) RunID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runID
}

// Wait blocks until the current run finishes. Returns immediately if no run
// was ever started.
func (f *Finder) Wait() {
	f.mu.Lock()
	done := f.doneCh
	f.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (f *Finder) run(ctx context.Context, tokens []Token, scorer core.Scorer, p Params, stopCh, doneCh chan struct{}) {
	defer func() {
		f.mu.Lock()
		f.running = false
		f.mu.Unlock()
		close(doneCh)
		f.logger.Infof("run finished with %d results", f.acc.Len())
	}()

	for _, token := range tokens {
		for _, backend := range f.backends {
			if done := f.searchPair(ctx, token, backend, scorer, p, stopCh); done {
				return
			}
		}
	}

	// Every (token, backend) pair has either produced results or exhausted
	// its retry budget; budgets never reset within a run. A limited run is
	// complete here. An endless run only ends through the cancellation
	// flag, so it stays idle until that happens.
	if p.Mode == ModeEndless {
		f.logger.Infof("all tokens exhausted, endless run waiting for stop")
		for f.sleep(ctx, stopCh) {
		}
	}
}

// searchPair runs the retry loop for one (token, backend) pair. It returns
// true when the whole run must terminate: limited-mode threshold reached or
// cancellation observed.
func (f *Finder) searchPair(ctx context.Context, token Token, backend core.Backend, scorer core.Scorer, p Params, stopCh chan struct{}) bool {
	blog := log.ForService(backend.Name())
	retries := 0

	for {
		// Cancellation is polled here, at the attempt boundary; an
		// in-flight call below is allowed to finish.
		if cancelled(ctx, stopCh) {
			blog.Infof("cancelled before attempting %q", token.Text)
			return true
		}

		blog.Debugf("searching for %s", token.ExactQuery)
		f.countAttempt(token.Text, backend.Name())
		candidates, err := backend.Search(ctx, token.ExactQuery)

		found := false
		if err != nil {
			blog.Errorf("search for %q failed: %v", token.Text, err)
		} else {
			for _, c := range candidates {
				score := scorer.Score(c)
				if score < p.MinScore {
					continue
				}
				r := core.Result{
					Source:  backend.Name(),
					Title:   c.Title,
					Link:    c.Link,
					Score:   score,
					FoundAt: time.Now().UTC(),
				}
				f.acc.Append(r)
				f.acc.RecordLink(c.Link)
				f.notify(r)
				found = true
				blog.Debugf("accepted %q score=%d link=%s", c.Title, score, c.Link)

				if p.Mode == ModeLimited && f.acc.Len() >= p.MatchCount {
					f.logger.Infof("reached match count limit: %d", p.MatchCount)
					return true
				}
			}
		}

		advance := false
		if found {
			// Qualifying results end the retry loop for this pair.
			advance = true
		} else {
			retries++
			if err == nil {
				blog.Warnf("no qualifying results for %q (attempt %d/%d)", token.Text, retries, f.maxRetries)
			}
			if retries >= f.maxRetries {
				blog.Errorf("max retries reached for %q, moving on", token.Text)
				advance = true
			}
		}

		// The delay applies after every round, successful or not, to avoid
		// hammering the backend.
		if !f.sleep(ctx, stopCh) {
			return true
		}
		if advance {
			return false
		}
	}
}

// sleep waits the inter-attempt delay. Returns false when cancellation was
// observed during the wait.
func (f *Finder) sleep(ctx context.Context, stopCh chan struct{}) bool {
	timer := time.NewTimer(f.retryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (f *Finder) countAttempt(token, backend string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[token+"|"+backend]++
}

// AttemptCounts returns a copy of the per-(token, backend) attempt counters
// for the current run, keyed "token|backend".
func (f *Finder) AttemptCounts() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.attempts))
	for k, v := range f.attempts {
		out[k] = v
	}
	return out
}

func (f *Finder) notify(r core.Result) {
	f.mu.Lock()
	listeners := f.listeners
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(r)
	}
}

func cancelled(ctx context.Context, stopCh chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
