// Package spell maps tokens to their nearest lexicon entry by edit distance.
//
// Ties between entries at the same distance go to the entry that appears
// first in the lexicon. Both implementations honour that rule, so they always
// return the same word.
package spell

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/maastricht-university/emotion-dataset/lexicon"
)

// Match is the outcome of correcting one token.
type Match struct {
	Word     string
	Distance int
}

// Changed reports whether correction replaced the token.
func (m Match) Changed(token string) bool { return m.Word != token }

type Corrector interface {
	Correct(token string) Match
}

// New returns the corrector named by kind: "linear" or "bktree".
func New(kind string, lex *lexicon.Lexicon) (Corrector, error) {
	switch kind {
	case "linear":
		return NewLinear(lex), nil
	case "bktree", "":
		return NewBKTree(lex), nil
	}
	return nil, fmt.Errorf("unknown spell index %q", kind)
}

func distance(a, b string) int { return levenshtein.ComputeDistance(a, b) }

// Linear scans the whole lexicon for every token.
type Linear struct {
	lex *lexicon.Lexicon
}

func NewLinear(lex *lexicon.Lexicon) *Linear { return &Linear{lex: lex} }

func (c *Linear) Correct(token string) Match {
	n := c.lex.Len()
	if n == 0 {
		return Match{Word: token}
	}
	if c.lex.Contains(token) {
		return Match{Word: token}
	}
	best := Match{Word: c.lex.At(0), Distance: distance(token, c.lex.At(0))}
	for i := 1; i < n; i++ {
		w := c.lex.At(i)
		if d := distance(token, w); d < best.Distance {
			best = Match{Word: w, Distance: d}
		}
	}
	return best
}
