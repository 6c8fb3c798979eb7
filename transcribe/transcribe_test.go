package transcribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/maastricht-university/emotion-dataset/clients"
	"github.com/maastricht-university/emotion-dataset/failure"
)

// fakeBackend returns canned alternatives or an error.
type fakeBackend struct {
	alts []Alternative
	err  error
	wait time.Duration
}

func (f *fakeBackend) Recognize(ctx context.Context, audioPath string) ([]Alternative, error) {
	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.alts, f.err
}

func TestSingleModeReturnsTopRanked(t *testing.T) {
	b := &fakeBackend{alts: []Alternative{
		{Text: "இரண்டு", Confidence: 0.4},
		{Text: " ஒன்று ", Confidence: 0.9},
	}}
	res, err := New(b, Single, 0).Transcribe(context.Background(), "a.wav")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "ஒன்று" {
		t.Fatalf("text = %q", res.Text)
	}
	if !reflect.DeepEqual(res.Lines, []string{"ஒன்று"}) {
		t.Fatalf("lines = %v", res.Lines)
	}
}

func TestMultiModeKeepsAllInRankOrder(t *testing.T) {
	b := &fakeBackend{alts: []Alternative{
		{Text: "a"}, {Text: "b", Confidence: 0.8}, {Text: ""}, {Text: "c"},
	}}
	res, err := New(b, Multi, 0).Transcribe(context.Background(), "a.wav")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if !reflect.DeepEqual(res.Lines, []string{"b", "a", "c"}) {
		t.Fatalf("lines = %v", res.Lines)
	}
	if res.Text != "b a c" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestNoAlternativesIsUnintelligible(t *testing.T) {
	for _, alts := range [][]Alternative{nil, {{Text: "  "}}} {
		res, err := New(&fakeBackend{alts: alts}, Single, 0).Transcribe(context.Background(), "a.wav")
		if !errors.Is(err, failure.ErrUnintelligible) {
			t.Fatalf("error = %v, want ErrUnintelligible", err)
		}
		if res.Text != "" {
			t.Fatalf("text = %q", res.Text)
		}
	}
}

func TestUnclassifiedErrorIsServiceUnavailable(t *testing.T) {
	_, err := New(&fakeBackend{err: errors.New("connection reset")}, Single, 0).Transcribe(context.Background(), "a.wav")
	if !errors.Is(err, failure.ErrServiceUnavailable) {
		t.Fatalf("error = %v, want ErrServiceUnavailable", err)
	}
}

func TestTimeoutIsServiceUnavailable(t *testing.T) {
	b := &fakeBackend{wait: time.Second}
	_, err := New(b, Single, 10*time.Millisecond).Transcribe(context.Background(), "a.wav")
	if !errors.Is(err, failure.ErrServiceUnavailable) {
		t.Fatalf("error = %v, want ErrServiceUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline cause", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, _ := ParseMode("MULTI"); m != Multi {
		t.Fatalf("mode = %q", m)
	}
	if m, _ := ParseMode(""); m != Single {
		t.Fatalf("mode = %q", m)
	}
	if _, err := ParseMode("stream"); err == nil {
		t.Fatal("expected error")
	}
}

func wav(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(p, []byte("wav"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestHTTPBackendClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnprocessableEntity, "no speech", failure.ErrUnintelligible},
		{http.StatusBadGateway, "upstream", failure.ErrServiceUnavailable},
		{http.StatusOK, "[]", failure.ErrUnintelligible},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, tc.body)
		}))
		b := NewHTTPBackend(clients.NewHTTP(time.Second), srv.URL+"/", "ta-IN")
		_, err := New(b, Single, time.Second).Transcribe(context.Background(), wav(t))
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: error = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestHTTPBackendAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"alternative":[{"transcript":"முதல்","confidence":0.7},{"transcript":"இரண்டாவது"}]}`)
	}))
	defer srv.Close()

	b := NewHTTPBackend(clients.NewHTTP(time.Second), srv.URL, "ta-IN")
	res, err := New(b, Multi, time.Second).Transcribe(context.Background(), wav(t))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if !reflect.DeepEqual(res.Lines, []string{"முதல்", "இரண்டாவது"}) {
		t.Fatalf("lines = %v", res.Lines)
	}
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f.text, f.err
}

func TestSingleBackend(t *testing.T) {
	res, err := New(NewSingleBackend(fakeTranscriber{text: "வணக்கம்"}), Multi, 0).Transcribe(context.Background(), "a.wav")
	if err != nil || res.Text != "வணக்கம்" {
		t.Fatalf("res = %+v, err = %v", res, err)
	}

	_, err = New(NewSingleBackend(fakeTranscriber{text: " "}), Single, 0).Transcribe(context.Background(), "a.wav")
	if !errors.Is(err, failure.ErrUnintelligible) {
		t.Fatalf("blank text error = %v", err)
	}

	_, err = New(NewSingleBackend(fakeTranscriber{err: errors.New("401")}), Single, 0).Transcribe(context.Background(), "a.wav")
	if !errors.Is(err, failure.ErrServiceUnavailable) {
		t.Fatalf("client error = %v", err)
	}
}
