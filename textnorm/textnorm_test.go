package textnorm

import (
	"reflect"
	"testing"

	"github.com/maastricht-university/emotion-dataset/lexicon"
	"github.com/maastricht-university/emotion-dataset/spell"
)

func newTamil(words ...string) *Normalizer {
	return New(Tamil, spell.NewLinear(lexicon.New(words)), "ta-IN")
}

func TestNormalizeEmptyAndOutOfScript(t *testing.T) {
	n := newTamil("வீடு")
	for _, in := range []string{"", "   ", "Hello, World 123!", "\t\n"} {
		res := n.Normalize(in)
		if !res.Empty() || res.Text != "" {
			t.Fatalf("Normalize(%q) = %+v, want empty", in, res)
		}
	}
}

func TestNormalizeStripsForeignCharacters(t *testing.T) {
	n := New(Tamil, nil, "ta")
	res := n.Normalize("Hello வீடு,  abc  அம்மா!!")
	if res.Text != "வீடு அம்மா" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Tokens != 2 || res.Corrected != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestNormalizeCorrectsTokens(t *testing.T) {
	n := newTamil("அம்மா", "வீடு")
	// "அமமா" drops the virama and is one edit from "அம்மா".
	res := n.Normalize("அமமா வீடு")
	if res.Text != "அம்மா வீடு" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Corrected != 1 || res.Tokens != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestNormalizeLowercasesBeforeFiltering(t *testing.T) {
	n := New([]Range{{Lo: 'a', Hi: 'z'}}, nil, "en")
	if got := n.Normalize("ABC déf").Text; got != "abc df" {
		t.Fatalf("text = %q", got)
	}
}

func TestNormalizeLinesDropsEmpty(t *testing.T) {
	n := New(Tamil, nil, "ta")
	lines, total := n.NormalizeLines([]string{"வீடு", "hello", "அம்மா  பால்"})
	if !reflect.DeepEqual(lines, []string{"வீடு", "அம்மா பால்"}) {
		t.Fatalf("lines = %v", lines)
	}
	if total.Tokens != 3 || total.Text != "வீடு அம்மா பால்" {
		t.Fatalf("total = %+v", total)
	}
}

func TestTokenizeIsolatesSymbols(t *testing.T) {
	got := Tokenize("ரூ௹100 வீடு")
	want := []string{"ரூ", "௹", "100", "வீடு"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
}

func TestParseRanges(t *testing.T) {
	got, err := ParseRanges([]string{"0B82-0BFA", "U+0061-U+007A", "0x20"})
	if err != nil {
		t.Fatalf("ParseRanges() error = %v", err)
	}
	want := []Range{{0x0B82, 0x0BFA}, {0x61, 0x7A}, {0x20, 0x20}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges = %v, want %v", got, want)
	}
	if _, err := ParseRanges([]string{"0BFA-0B82"}); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, err := ParseRanges([]string{"zz"}); err == nil {
		t.Fatal("expected error for non-hex")
	}
}
