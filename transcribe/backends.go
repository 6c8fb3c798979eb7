package transcribe

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/maastricht-university/emotion-dataset/clients"
	"github.com/maastricht-university/emotion-dataset/failure"
)

// HTTPBackend calls a recognition service that returns ranked alternatives.
type HTTPBackend struct {
	client   *clients.HTTP
	url      string
	language string
}

func NewHTTPBackend(c *clients.HTTP, url, language string) *HTTPBackend {
	return &HTTPBackend{client: c, url: strings.TrimRight(url, "/"), language: language}
}

func (b *HTTPBackend) Recognize(ctx context.Context, audioPath string) ([]Alternative, error) {
	resp, err := b.client.ASR(ctx, b.url, audioPath, b.language)
	if err != nil {
		return nil, classifyHTTP(audioPath, err)
	}
	alts := make([]Alternative, 0, len(resp.Alternative))
	for _, a := range resp.Alternative {
		alt := Alternative{Text: a.Transcript}
		if a.Confidence != nil {
			alt.Confidence = *a.Confidence
		}
		alts = append(alts, alt)
	}
	return alts, nil
}

// classifyHTTP maps 422 to unintelligible audio, a missing input file to an
// unreadable source, and every other failure to an unavailable service.
func classifyHTTP(audioPath string, err error) error {
	var se *clients.StatusError
	switch {
	case errors.As(err, &se) && se.Code == http.StatusUnprocessableEntity:
		return failure.New("transcribe", audioPath, failure.ErrUnintelligible, err)
	case errors.Is(err, fs.ErrNotExist):
		return failure.New("transcribe", audioPath, failure.ErrSourceUnreadable, err)
	}
	return failure.New("transcribe", audioPath, failure.ErrServiceUnavailable, err)
}

// Transcriber is a single-result speech-to-text client such as Whisper.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// SingleBackend adapts a single-result client; it yields at most one
// alternative.
type SingleBackend struct {
	t Transcriber
}

func NewSingleBackend(t Transcriber) *SingleBackend { return &SingleBackend{t: t} }

func (b *SingleBackend) Recognize(ctx context.Context, audioPath string) ([]Alternative, error) {
	text, err := b.t.Transcribe(ctx, audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, failure.New("transcribe", audioPath, failure.ErrSourceUnreadable, err)
		}
		return nil, failure.New("transcribe", audioPath, failure.ErrServiceUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []Alternative{{Text: text, Confidence: 1}}, nil
}
