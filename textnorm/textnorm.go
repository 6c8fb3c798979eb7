// Package textnorm cleans transcripts for the target script and corrects each
// token against the lexicon.
package textnorm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/maastricht-university/emotion-dataset/spell"
)

// Range is an inclusive span of code points that belong to the target script.
type Range struct {
	Lo, Hi rune
}

// Tamil covers the Tamil block from the anusvara to the numeral symbols.
var Tamil = []Range{{Lo: 0x0B82, Hi: 0x0BFA}}

// ParseRanges reads ranges written as "0B82-0BFA" (hex code points).
func ParseRanges(specs []string) ([]Range, error) {
	out := make([]Range, 0, len(specs))
	for _, s := range specs {
		lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
		if !ok {
			hi = lo
		}
		l, err := parseRune(lo)
		if err != nil {
			return nil, fmt.Errorf("script range %q: %w", s, err)
		}
		h, err := parseRune(hi)
		if err != nil {
			return nil, fmt.Errorf("script range %q: %w", s, err)
		}
		if h < l {
			return nil, fmt.Errorf("script range %q: end before start", s)
		}
		out = append(out, Range{Lo: l, Hi: h})
	}
	return out, nil
}

func parseRune(s string) (rune, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "U+"), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return rune(v), nil
}

// Result is a normalized transcript. An empty Text means no token survived
// filtering, which is not an error.
type Result struct {
	Text      string
	Tokens    int
	Corrected int
}

func (r Result) Empty() bool { return r.Tokens == 0 }

// Normalizer is safe for concurrent use once built.
type Normalizer struct {
	ranges    []Range
	corrector spell.Corrector
	lang      language.Tag
}

// New builds a normalizer keeping runes in ranges. A nil corrector leaves
// tokens as they are.
func New(ranges []Range, c spell.Corrector, lang string) *Normalizer {
	tag := language.Und
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			tag = t
		}
	}
	return &Normalizer{ranges: ranges, corrector: c, lang: tag}
}

// Normalize lowercases, drops out-of-script characters, tokenizes and
// spell-corrects s, joining tokens with single spaces.
func (n *Normalizer) Normalize(s string) Result {
	s = cases.Lower(n.lang).String(s)
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || n.inScript(r) {
			return r
		}
		return -1
	}, s)

	tokens := Tokenize(s)
	if len(tokens) == 0 {
		return Result{}
	}

	res := Result{Tokens: len(tokens)}
	if n.corrector != nil {
		for i, tok := range tokens {
			m := n.corrector.Correct(tok)
			if m.Changed(tok) {
				res.Corrected++
			}
			tokens[i] = m.Word
		}
	}
	res.Text = strings.Join(tokens, " ")
	return res
}

// NormalizeLines normalizes each utterance separately and drops the ones that
// come out empty.
func (n *Normalizer) NormalizeLines(lines []string) ([]string, Result) {
	var (
		out   []string
		total Result
	)
	for _, l := range lines {
		r := n.Normalize(l)
		if r.Empty() {
			continue
		}
		out = append(out, r.Text)
		total.Tokens += r.Tokens
		total.Corrected += r.Corrected
	}
	total.Text = strings.Join(out, " ")
	return out, total
}

func (n *Normalizer) inScript(r rune) bool {
	for _, rg := range n.ranges {
		if r >= rg.Lo && r <= rg.Hi {
			return true
		}
	}
	return false
}

// Tokenize splits on whitespace and isolates symbol and punctuation runes as
// tokens of their own. Combining vowel signs and viramas stay attached to the
// consonant they follow.
func Tokenize(s string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			out = append(out, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
