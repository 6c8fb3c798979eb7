package annotation

import (
	"context"

	"github.com/maastricht-university/emotion-dataset/clients"
)

// ServiceSuggester asks the text emotion service at URL for a label, scored
// in the transcript's Language and limited to Emotions when set.
type ServiceSuggester struct {
	HTTP     *clients.HTTP
	URL      string
	Language string
	Emotions []string
}

func (s ServiceSuggester) Suggest(ctx context.Context, text string) (string, error) {
	resp, err := s.HTTP.ClassifyEmotion(ctx, s.URL, clients.EmotionQuery{
		Text:     text,
		Language: s.Language,
		Labels:   s.Emotions,
	})
	if err != nil {
		return "", err
	}
	return resp.Pick(s.Emotions), nil
}
