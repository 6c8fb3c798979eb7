package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// --- Speech recognition (/recognize) ---
type ASRAlternative struct {
	Transcript string   `json:"transcript"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type ASRResp struct {
	Alternative []ASRAlternative `json:"alternative"`
	Final       bool             `json:"final"`
}

// ASR uploads a WAV file and asks for every ranked alternative. A service that
// recognised nothing may answer with an empty JSON array; that decodes to an
// empty response. An array of results yields its first element.
func (h *HTTP) ASR(ctx context.Context, url, wavPath, language string) (*ASRResp, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if language != "" {
		if err = w.WriteField("language", language); err != nil {
			return nil, err
		}
	}
	if err = w.WriteField("show_all", "true"); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/recognize", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("asr read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Service: "asr", Code: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &ASRResp{}, nil
	}
	if trimmed[0] == '[' {
		var results []ASRResp
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, fmt.Errorf("asr decode: %w", err)
		}
		if len(results) == 0 {
			return &ASRResp{}, nil
		}
		return &results[0], nil
	}
	var out ASRResp
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("asr decode: %w", err)
	}
	return &out, nil
}
