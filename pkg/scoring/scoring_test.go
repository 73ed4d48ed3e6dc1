package scoring

import (
	"testing"

	"github.com/msnfinder/msnfinder/pkg/core"
)

func TestKeywordScorerFullMatch(t *testing.T) {
	s := NewKeywordScorer([]string{"alice", "melbourne"})
	got := s.Score(core.Candidate{
		Title: "Alice Smith - Melbourne",
		Link:  "https://example.com/alice",
	})
	if got != MaxScore {
		t.Errorf("expected %d for full match, got %d", MaxScore, got)
	}
}

func TestKeywordScorerPartialMatch(t *testing.T) {
	s := NewKeywordScorer([]string{"alice", "sydney"})
	got := s.Score(core.Candidate{Title: "Alice Smith", Link: "https://example.com"})
	if got != 50 {
		t.Errorf("expected 50 for half match, got %d", got)
	}
}

func TestKeywordScorerNoMatch(t *testing.T) {
	s := NewKeywordScorer([]string{"zzz"})
	got := s.Score(core.Candidate{Title: "unrelated", Link: "https://example.com"})
	if got != 0 {
		t.Errorf("expected 0 for no match, got %d", got)
	}
}

func TestKeywordScorerCaseFolding(t *testing.T) {
	s := NewKeywordScorer([]string{"ALICE"})
	got := s.Score(core.Candidate{Title: "alice profile", Link: ""})
	if got != MaxScore {
		t.Errorf("folding failed: expected %d, got %d", MaxScore, got)
	}
}

func TestKeywordScorerEmptyTerms(t *testing.T) {
	s := NewKeywordScorer(nil)
	if got := s.Score(core.Candidate{Title: "anything"}); got != 0 {
		t.Errorf("expected 0 with no terms, got %d", got)
	}
}

func TestFixedScorer(t *testing.T) {
	s := Fixed(MaxScore)
	if got := s.Score(core.Candidate{}); got != MaxScore {
		t.Errorf("expected %d, got %d", MaxScore, got)
	}
}
