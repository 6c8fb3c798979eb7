package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// --- Remote dictionary ---

// FetchLexicon downloads a lexicon document (JSON word list or word/meaning map).
func (h *HTTP) FetchLexicon(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lexicon read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Service: "lexicon", Code: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return body, nil
}
