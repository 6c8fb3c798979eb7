package lexicon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/emotion-dataset/failure"
)

// Fetcher downloads a lexicon document from a remote dictionary service.
type Fetcher interface {
	FetchLexicon(ctx context.Context, url string) ([]byte, error)
}

// Provider loads the lexicon from a file path or http(s) URL exactly once.
type Provider struct {
	source   string
	fetcher  Fetcher
	readFile func(name string) ([]byte, error)

	once sync.Once
	lex  *Lexicon
	err  error
}

func NewProvider(source string, f Fetcher) *Provider {
	return &Provider{source: strings.TrimSpace(source), fetcher: f, readFile: os.ReadFile}
}

// Load returns the lexicon, reading the source on the first call only.
// Every failure is classified as failure.ErrLexiconUnavailable.
func (p *Provider) Load(ctx context.Context) (*Lexicon, error) {
	p.once.Do(func() {
		p.lex, p.err = p.load(ctx)
	})
	return p.lex, p.err
}

func (p *Provider) load(ctx context.Context) (*Lexicon, error) {
	if p.source == "" {
		return nil, failure.New("lexicon", "", failure.ErrLexiconUnavailable, errors.New("no source configured"))
	}

	var (
		data []byte
		name = p.source
		err  error
	)
	if isURL(p.source) {
		if p.fetcher == nil {
			return nil, failure.New("lexicon", p.source, failure.ErrLexiconUnavailable, errors.New("no fetcher for remote source"))
		}
		data, err = p.fetcher.FetchLexicon(ctx, p.source)
		if u, perr := url.Parse(p.source); perr == nil {
			name = u.Path
			if path.Ext(name) == "" {
				name += ".json"
			}
		}
	} else {
		data, err = p.readFile(p.source)
	}
	if err != nil {
		return nil, failure.New("lexicon", p.source, failure.ErrLexiconUnavailable, err)
	}

	words, err := Parse(name, data)
	if err != nil {
		return nil, failure.New("lexicon", p.source, failure.ErrLexiconUnavailable, err)
	}
	return New(words), nil
}

// LoadWithPolicy applies the strictness policy: in strict mode a load failure
// is returned; otherwise it is logged and an empty lexicon is used, which makes
// spell correction a no-op.
func LoadWithPolicy(ctx context.Context, p *Provider, strict bool, log logrus.FieldLogger) (*Lexicon, error) {
	lex, err := p.Load(ctx)
	if err == nil {
		log.WithFields(logrus.Fields{"source": p.source, "words": lex.Len()}).Info("lexicon loaded")
		return lex, nil
	}
	if strict {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	log.WithFields(logrus.Fields{"source": p.source, "cause": err}).
		Warn("lexicon unavailable, continuing without spell correction")
	return Empty(), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
