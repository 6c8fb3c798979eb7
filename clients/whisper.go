package clients

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Whisper talks to an OpenAI-compatible audio transcription endpoint.
type Whisper struct {
	c        *openai.Client
	model    string
	language string
}

// NewWhisper builds a client; baseURL may be empty for the public API.
// language is reduced to its primary subtag ("ta-IN" becomes "ta").
func NewWhisper(apiKey, baseURL, model, language string) *Whisper {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	lang, _, _ := strings.Cut(language, "-")
	return &Whisper{c: openai.NewClientWithConfig(cfg), model: model, language: strings.ToLower(lang)}
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := w.c.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
