package finder

import (
	"errors"
	"strings"
)

// ErrNoTokens is returned when the raw input contains nothing searchable.
// A run must not start in that case.
var ErrNoTokens = errors.New("no search tokens in input")

// Token is one independent search term derived from the raw input. Tokens
// are immutable and live for exactly one run.
type Token struct {
	// Text is the token verbatim as it appeared in the input.
	Text string
	// ExactQuery is the phrase-search form: the substring after the token's
	// last path separator, quoted. For plain words this is just the quoted
	// word; for URLs it isolates the trailing handle or slug.
	ExactQuery string
}

// Normalize splits a raw multi-field input string into search tokens. The
// input is the whitespace-joined concatenation of whatever subject fields
// the caller has (handle, phone, email, name, address); empty fields
// collapse away, and each remaining whitespace-separated piece becomes one
// token.
func Normalize(raw string) ([]Token, error) {
	pieces := strings.Fields(strings.TrimSpace(raw))
	if len(pieces) == 0 {
		return nil, ErrNoTokens
	}

	tokens := make([]Token, 0, len(pieces))
	for _, piece := range pieces {
		keyword := piece
		if idx := strings.LastIndex(piece, "/"); idx != -1 {
			keyword = piece[idx+1:]
		}
		tokens = append(tokens, Token{
			Text:       piece,
			ExactQuery: `"` + keyword + `"`,
		})
	}
	return tokens, nil
}
