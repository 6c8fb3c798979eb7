// Package lexicon loads the reference vocabulary used for spell correction.
//
// A Lexicon is built once per run and is read-only afterwards; it is passed
// explicitly to whatever needs it.
package lexicon

import (
	"encoding/json"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Lexicon is an ordered set of words. Order is the order of first appearance
// in the source and decides ties during correction.
type Lexicon struct {
	words []string
	index map[string]int
}

// New builds a lexicon from words, trimming and NFC-normalizing each entry and
// dropping blanks and repeats.
func New(words []string) *Lexicon {
	l := &Lexicon{index: make(map[string]int, len(words))}
	for _, w := range words {
		w = norm.NFC.String(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := l.index[w]; dup {
			continue
		}
		l.index[w] = len(l.words)
		l.words = append(l.words, w)
	}
	return l
}

// Empty returns a lexicon with no words; correction against it is the identity.
func Empty() *Lexicon { return New(nil) }

func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.words)
}

// At returns the i-th word in source order.
func (l *Lexicon) At(i int) string { return l.words[i] }

func (l *Lexicon) Contains(w string) bool {
	if l == nil {
		return false
	}
	_, ok := l.index[w]
	return ok
}

// Words returns a copy of the entries in source order.
func (l *Lexicon) Words() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.words))
	copy(out, l.words)
	return out
}

// WriteJSON writes the entries as a JSON array.
func (l *Lexicon) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	words := l.Words()
	if words == nil {
		words = []string{}
	}
	return enc.Encode(words)
}
