package lexicon

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/maastricht-university/emotion-dataset/failure"
	"github.com/maastricht-university/emotion-dataset/logging"
)

func TestNewDedupesAndKeepsOrder(t *testing.T) {
	lex := New([]string{" அம்மா ", "அப்பா", "", "அம்மா", "வீடு"})
	want := []string{"அம்மா", "அப்பா", "வீடு"}
	if got := lex.Words(); !reflect.DeepEqual(got, want) {
		t.Fatalf("words = %v, want %v", got, want)
	}
	if !lex.Contains("அப்பா") || lex.Contains("") {
		t.Fatal("Contains mismatch")
	}
}

func TestParseFormats(t *testing.T) {
	cases := []struct {
		name string
		data string
		want []string
	}{
		{"lex.txt", "# header\nஅம்மா: mother\n\nவீடு : house\nபால்\n", []string{"அம்மா", "வீடு", "பால்"}},
		{"lex.json", `{"zeta": "last letter", "alpha": {"meaning": "first"}}`, []string{"zeta", "alpha"}},
		{"lex.json", `["b", "a"]`, []string{"b", "a"}},
		{"lex.yaml", "zeta: z\nalpha: a\n", []string{"zeta", "alpha"}},
		{"lex.yml", "- one\n- two\n", []string{"one", "two"}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.name, []byte(tc.data))
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Parse(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseJSONRejectsScalar(t *testing.T) {
	if _, err := Parse("lex.json", []byte(`"word"`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestProviderLoadsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.json")
	if err := os.WriteFile(path, []byte(`["அம்மா"]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p := NewProvider(path, nil)
	calls := 0
	p.readFile = func(name string) ([]byte, error) {
		calls++
		return os.ReadFile(name)
	}

	for i := 0; i < 3; i++ {
		lex, err := p.Load(context.Background())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if lex.Len() != 1 {
			t.Fatalf("len = %d", lex.Len())
		}
	}
	if calls != 1 {
		t.Fatalf("readFile calls = %d, want 1", calls)
	}
}

type fakeFetcher struct {
	body []byte
	err  error
	url  string
}

func (f *fakeFetcher) FetchLexicon(ctx context.Context, url string) ([]byte, error) {
	f.url = url
	return f.body, f.err
}

func TestProviderRemoteSource(t *testing.T) {
	f := &fakeFetcher{body: []byte(`{"வீடு": "house"}`)}
	lex, err := NewProvider("https://dict.example/ta/words", f).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.url != "https://dict.example/ta/words" {
		t.Fatalf("fetched %q", f.url)
	}
	if !lex.Contains("வீடு") {
		t.Fatalf("words = %v", lex.Words())
	}
}

func TestProviderMissingFileIsUnavailable(t *testing.T) {
	_, err := NewProvider(filepath.Join(t.TempDir(), "missing.txt"), nil).Load(context.Background())
	if !errors.Is(err, failure.ErrLexiconUnavailable) {
		t.Fatalf("error = %v, want ErrLexiconUnavailable", err)
	}
}

func TestLoadWithPolicy(t *testing.T) {
	log := logging.Discard()
	missing := filepath.Join(t.TempDir(), "missing.txt")

	if _, err := LoadWithPolicy(context.Background(), NewProvider(missing, nil), true, log); !errors.Is(err, failure.ErrLexiconUnavailable) {
		t.Fatalf("strict error = %v", err)
	}

	lex, err := LoadWithPolicy(context.Background(), NewProvider(missing, nil), false, log)
	if err != nil {
		t.Fatalf("lenient error = %v", err)
	}
	if lex.Len() != 0 {
		t.Fatalf("lenient lexicon len = %d, want 0", lex.Len())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New([]string{"a", "b"}).WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	got, err := Parse("x.json", buf.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("round trip = %v", got)
	}
}
