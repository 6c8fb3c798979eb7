// Package transcribe wraps the speech-to-text service behind a typed result.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/maastricht-university/emotion-dataset/failure"
)

// Mode selects how many alternatives a transcript keeps.
type Mode string

const (
	// Single keeps the top-ranked alternative only.
	Single Mode = "single"
	// Multi keeps every alternative, one utterance per line.
	Multi Mode = "multi"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Single, "":
		return Single, nil
	case Multi:
		return Multi, nil
	}
	return "", fmt.Errorf("unknown transcription mode %q", s)
}

// Alternative is one candidate transcript. Confidence is 0 when the service
// did not report one.
type Alternative struct {
	Text       string
	Confidence float64
}

// Backend performs one recognition call and returns the alternatives in the
// order the service produced them. Backends classify their own failures as
// failure.ErrUnintelligible or failure.ErrServiceUnavailable when they can.
type Backend interface {
	Recognize(ctx context.Context, audioPath string) ([]Alternative, error)
}

type Result struct {
	Mode         Mode
	Alternatives []Alternative
	// Text is the best alternative in Single mode and the lines joined with a
	// space in Multi mode.
	Text  string
	Lines []string
}

type Adapter struct {
	backend Backend
	mode    Mode
	timeout time.Duration
}

func New(b Backend, mode Mode, timeout time.Duration) *Adapter {
	return &Adapter{backend: b, mode: mode, timeout: timeout}
}

func (a *Adapter) Mode() Mode { return a.mode }

// Transcribe recognises audioPath. A call that finds no usable alternative
// returns an empty Result with failure.ErrUnintelligible; faults of the
// service, including timeouts, come back as failure.ErrServiceUnavailable.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	alts, err := a.backend.Recognize(ctx, audioPath)
	if err != nil {
		return Result{Mode: a.mode}, classify(audioPath, err)
	}

	ranked := Rank(alts)
	if len(ranked) == 0 {
		return Result{Mode: a.mode}, failure.New("transcribe", audioPath, failure.ErrUnintelligible, nil)
	}

	res := Result{Mode: a.mode, Alternatives: ranked}
	switch a.mode {
	case Multi:
		for _, alt := range ranked {
			res.Lines = append(res.Lines, alt.Text)
		}
		res.Text = strings.Join(res.Lines, " ")
	default:
		res.Text = ranked[0].Text
		res.Lines = []string{res.Text}
	}
	return res, nil
}

// Rank drops blank alternatives and orders the rest by confidence, highest
// first. The sort is stable, so the service's order breaks ties.
func Rank(alts []Alternative) []Alternative {
	out := make([]Alternative, 0, len(alts))
	for _, a := range alts {
		a.Text = strings.TrimSpace(a.Text)
		if a.Text != "" {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

func classify(audioPath string, err error) error {
	if failure.KindOf(err) != nil {
		var fe *failure.Error
		if errors.As(err, &fe) {
			return err
		}
		return failure.New("transcribe", audioPath, failure.KindOf(err), err)
	}
	return failure.New("transcribe", audioPath, failure.ErrServiceUnavailable, err)
}
