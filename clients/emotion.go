package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// EmotionQuery is one transcript sent for classification. Labels, when set,
// asks the service to score only the annotation vocabulary.
type EmotionQuery struct {
	Text     string   `json:"text"`
	Language string   `json:"language,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

type EmotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// EmotionScores is the service answer. Dominant may be empty or outside the
// requested labels; Pick handles both.
type EmotionScores struct {
	Scores   []EmotionScore `json:"emotions"`
	Dominant string         `json:"dominant_emotion"`
}

var errNoTranscript = errors.New("emotion: empty transcript")

// ClassifyEmotion posts q to the classifier's /detect endpoint.
func (h *HTTP) ClassifyEmotion(ctx context.Context, url string, q EmotionQuery) (*EmotionScores, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, errNoTranscript
	}
	b, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(url, "/")+"/detect", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Service: "emotion", Code: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var out EmotionScores
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("emotion decode: %w", err)
	}
	return &out, nil
}

// Pick returns the label to suggest. The dominant label wins when it is
// allowed; otherwise the best-scoring allowed label. An empty allowed list
// allows every label. Labels compare case-insensitively and come back in the
// spelling of allowed.
func (r *EmotionScores) Pick(allowed []string) string {
	if r == nil {
		return ""
	}
	canon := func(l string) (string, bool) {
		if len(allowed) == 0 {
			return l, l != ""
		}
		for _, a := range allowed {
			if strings.EqualFold(a, l) {
				return a, true
			}
		}
		return "", false
	}
	if l, ok := canon(r.Dominant); ok {
		return l
	}
	best, bestScore := "", -1.0
	for _, e := range r.Scores {
		l, ok := canon(e.Label)
		if ok && e.Score > bestScore {
			best, bestScore = l, e.Score
		}
	}
	return best
}
