package finder

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeTokenCount(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"alice", 1},
		{"alice 555-0100", 2},
		{"  @alice  555-0100   alice@example.com ", 3},
		{"alice smith 12 main st melbourne", 6},
	}
	for _, tc := range cases {
		tokens, err := Normalize(tc.input)
		if err != nil {
			t.Errorf("Normalize(%q): %v", tc.input, err)
			continue
		}
		if len(tokens) != tc.want {
			t.Errorf("Normalize(%q): expected %d tokens, got %d", tc.input, tc.want, len(tokens))
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		if _, err := Normalize(input); !errors.Is(err, ErrNoTokens) {
			t.Errorf("Normalize(%q): expected ErrNoTokens, got %v", input, err)
		}
	}
}

func TestNormalizeExactQueryQuotesToken(t *testing.T) {
	tokens, err := Normalize("alice")
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].ExactQuery != `"alice"` {
		t.Errorf("expected quoted token, got %s", tokens[0].ExactQuery)
	}
}

func TestNormalizeURLKeepsTrailingSegment(t *testing.T) {
	tokens, err := Normalize("https://instagram.com/alice.smith")
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].ExactQuery != `"alice.smith"` {
		t.Errorf("expected trailing segment, got %s", tokens[0].ExactQuery)
	}
	if !strings.Contains(tokens[0].Text, "instagram.com") {
		t.Errorf("token text should stay verbatim, got %s", tokens[0].Text)
	}
}
