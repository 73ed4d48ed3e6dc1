package core

import (
	"fmt"
	"time"
)

// Candidate is a raw item returned by a backend or discovered by the
// crawler: a title and a link, nothing more. Candidates have no score; the
// scoring policy turns a candidate into a Result.
type Candidate struct {
	Title string
	Link  string
}

// Result is a scored, accepted candidate. Results are immutable once
// created: the score is assigned exactly once, when the orchestrator (or the
// crawler, which uses a fixed maximal score) constructs the value.
type Result struct {
	// Source is the backend instance name (or crawler name) that produced
	// this result.
	Source string `json:"source"`
	Title  string `json:"title"`
	Link   string `json:"link"`
	Score  int    `json:"score"`
	// Detail carries extracted detail-page content for crawler results.
	// Empty for search backend results.
	Detail string `json:"detail,omitempty"`
	// FoundAt records discovery time. Informational only; ordering is by
	// discovery sequence, never by time or score.
	FoundAt time.Time `json:"found_at"`
}

// Summary returns a one-line description of the result for compact display.
func (r Result) Summary() string {
	return fmt.Sprintf("[%s] %s (%d) %s", r.Source, r.Title, r.Score, r.Link)
}

// Scorer assigns a relevance score in [0, 100] to a candidate. The scoring
// policy is external and replaceable; no statistical meaning is promised.
type Scorer interface {
	Score(c Candidate) int
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(c Candidate) int

func (f ScorerFunc) Score(c Candidate) int { return f(c) }

// Relevance decides whether an outbound link is worth following as a detail
// page during a crawl.
type Relevance func(url string) bool
