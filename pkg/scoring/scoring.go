// Package scoring provides the default relevance scoring policy. The policy
// is deliberately simple and replaceable: anything implementing core.Scorer
// can be swapped in, and no statistical meaning is attached to the numbers
// beyond "higher matched more query terms".
package scoring

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/msnfinder/msnfinder/pkg/core"
)

// MaxScore is the upper bound of the scoring range.
const MaxScore = 100

var folder = cases.Fold()

// KeywordScorer scores a candidate by the fraction of query terms found in
// its folded title and link. Matching is case- and width-insensitive via
// Unicode case folding, so "Alice" matches "ALICE" and "alice".
type KeywordScorer struct {
	terms []string
}

// NewKeywordScorer builds a scorer for the given query terms. Terms are
// folded once up front.
func NewKeywordScorer(terms []string) *KeywordScorer {
	folded := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		folded = append(folded, folder.String(term))
	}
	return &KeywordScorer{terms: folded}
}

// Score returns 0-100 depending on how many query terms appear in the
// candidate's title or link. A candidate matching every term scores 100; one
// matching none scores 0.
func (s *KeywordScorer) Score(c core.Candidate) int {
	if len(s.terms) == 0 {
		return 0
	}

	haystack := folder.String(c.Title + " " + c.Link)
	matched := 0
	for _, term := range s.terms {
		if strings.Contains(haystack, term) {
			matched++
		}
	}
	return matched * MaxScore / len(s.terms)
}

// Fixed returns a scorer that assigns the same score to every candidate.
// Fixed(MaxScore) accepts everything; useful in tests and for producers
// whose items always qualify.
func Fixed(score int) core.Scorer {
	return core.ScorerFunc(func(core.Candidate) int { return score })
}

// Fold exposes the scorer's case folding so other packages can match
// strings the same way the scorer does.
func Fold(s string) string {
	return folder.String(s)
}
