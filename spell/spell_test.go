package spell

import (
	"math/rand"
	"testing"

	"github.com/maastricht-university/emotion-dataset/lexicon"
)

func correctors(lex *lexicon.Lexicon) map[string]Corrector {
	return map[string]Corrector{
		"linear": NewLinear(lex),
		"bktree": NewBKTree(lex),
	}
}

func TestEmptyLexiconIsIdentity(t *testing.T) {
	for name, c := range correctors(lexicon.Empty()) {
		for _, tok := range []string{"", "வீடு", "abc"} {
			if got := c.Correct(tok); got.Word != tok || got.Distance != 0 {
				t.Fatalf("%s: Correct(%q) = %+v", name, tok, got)
			}
		}
	}
}

func TestKnownWordIsKept(t *testing.T) {
	lex := lexicon.New([]string{"அம்மா", "அப்பா", "வீடு"})
	for name, c := range correctors(lex) {
		got := c.Correct("அப்பா")
		if got.Word != "அப்பா" || got.Distance != 0 || got.Changed("அப்பா") {
			t.Fatalf("%s: got %+v", name, got)
		}
	}
}

func TestNearestWord(t *testing.T) {
	lex := lexicon.New([]string{"kitten", "sitting", "mitten"})
	for name, c := range correctors(lex) {
		if got := c.Correct("sittin"); got.Word != "sitting" || got.Distance != 1 {
			t.Fatalf("%s: got %+v", name, got)
		}
	}
}

func TestTieGoesToFirstInLexicon(t *testing.T) {
	// "bat" is one edit away from both; "cat" comes first.
	lex := lexicon.New([]string{"zzz", "cat", "hat"})
	for name, c := range correctors(lex) {
		if got := c.Correct("bat"); got.Word != "cat" {
			t.Fatalf("%s: tie resolved to %q, want cat", name, got.Word)
		}
	}

	lex = lexicon.New([]string{"hat", "cat"})
	for name, c := range correctors(lex) {
		if got := c.Correct("bat"); got.Word != "hat" {
			t.Fatalf("%s: tie resolved to %q, want hat", name, got.Word)
		}
	}
}

func TestNewRejectsUnknownIndex(t *testing.T) {
	if _, err := New("trie", lexicon.Empty()); err == nil {
		t.Fatal("expected error")
	}
}

// reference is the brute-force definition: minimum distance, lowest index.
func reference(lex *lexicon.Lexicon, tok string) Match {
	best := Match{Word: tok}
	for i := 0; i < lex.Len(); i++ {
		d := distance(tok, lex.At(i))
		if i == 0 || d < best.Distance {
			best = Match{Word: lex.At(i), Distance: d}
		}
	}
	return best
}

func TestImplementationsAgreeWithReference(t *testing.T) {
	alphabet := []rune("கசடதபறஅஇஉாிு")
	rng := rand.New(rand.NewSource(7))
	word := func() string {
		n := 1 + rng.Intn(6)
		r := make([]rune, n)
		for i := range r {
			r[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(r)
	}

	for round := 0; round < 20; round++ {
		words := make([]string, 1+rng.Intn(60))
		for i := range words {
			words[i] = word()
		}
		lex := lexicon.New(words)
		cs := correctors(lex)

		for q := 0; q < 50; q++ {
			tok := word()
			want := reference(lex, tok)
			if !lex.Contains(want.Word) {
				t.Fatalf("reference returned non-member %q", want.Word)
			}
			for name, c := range cs {
				got := c.Correct(tok)
				if got != want {
					t.Fatalf("round %d %s: Correct(%q) = %+v, want %+v", round, name, tok, got, want)
				}
				if (got.Word == tok) != (lex.Contains(tok)) {
					t.Fatalf("%s: unchanged iff member violated for %q", name, tok)
				}
			}
		}
	}
}
