package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func f64(v float64) *float64 { return &v }

func lines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dataset.csv")
	w := NewWriter(path)
	const n = 5
	for i := 0; i < n; i++ {
		row := Row{
			VideoPath:     fmt.Sprintf("/in/v%d.mp4", i),
			AudioPath:     fmt.Sprintf("audio/v%d.wav", i),
			TextPath:      fmt.Sprintf("text/v%d.txt", i),
			ExtractedText: "வணக்கம்",
			VideoDuration: f64(65),
			AudioDuration: f64(3.25),
		}
		if err := w.Append(context.Background(), row); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got := lines(t, path)
	if len(got) != n+1 {
		t.Fatalf("lines = %d, want %d", len(got), n+1)
	}
	if got[0] != strings.Join(Header, ",") {
		t.Fatalf("header = %q", got[0])
	}
	for _, l := range got[1:] {
		if strings.HasPrefix(l, "video_path") {
			t.Fatal("header repeated mid-file")
		}
	}
	if got[1] != "/in/v0.mp4,audio/v0.wav,text/v0.txt,வணக்கம்,65,3.25" {
		t.Fatalf("row = %q", got[1])
	}
}

func TestAppendSeparateWritersSameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := NewWriter(path).Append(context.Background(), Row{VideoPath: fmt.Sprintf("v%d", i)}); err != nil {
				t.Errorf("Append() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	rows, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("rows = %d, want 10", len(rows))
	}
	if got := lines(t, path); len(got) != 11 {
		t.Fatalf("lines = %d, want 11", len(got))
	}
}

func TestNilDurationsAndQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	w := NewWriter(path)
	in := Row{VideoPath: "/in/a,b.mp4", ExtractedText: "line \"one\"\nline two"}
	if err := w.Append(context.Background(), in); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rows, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	got := rows[0]
	if got.VideoPath != in.VideoPath || got.ExtractedText != in.ExtractedText {
		t.Fatalf("row = %+v", got)
	}
	if got.VideoDuration != nil || got.AudioDuration != nil {
		t.Fatal("durations should stay nil")
	}
}

func TestAppendRejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(path, []byte("audio_path,text_path,preprocessed_text\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := NewWriter(path).Append(context.Background(), Row{VideoPath: "v"})
	if !errors.Is(err, ErrHeaderMismatch) {
		t.Fatalf("error = %v, want ErrHeaderMismatch", err)
	}
}

func tear(t *testing.T, path, partial string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(partial); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestAppendDropsTornRow(t *testing.T) {
	tests := []struct {
		name    string
		partial string
	}{
		{"unquoted", "v2,audio"},
		{"open quote", `v2,a,t,"half a line`},
		{"open quote across lines", "v2,a,t,\"first line\nsecond"},
		{"open quote ending in newline", "v2,a,t,\"first line\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dataset.csv")
			w := NewWriter(path)
			if err := w.Append(context.Background(), Row{VideoPath: "v1"}); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			tear(t, path, tt.partial)

			if err := w.Append(context.Background(), Row{VideoPath: "v3", ExtractedText: "x"}); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			rows, err := Read(path)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if len(rows) != 2 || rows[0].VideoPath != "v1" || rows[1].VideoPath != "v3" || rows[1].ExtractedText != "x" {
				t.Fatalf("rows = %+v", rows)
			}
		})
	}
}

func TestAppendRewritesTornHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(path, []byte("video_path,audio_pa"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewWriter(path).Append(context.Background(), Row{VideoPath: "v1"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	got := lines(t, path)
	if len(got) != 2 || got[0] != strings.Join(Header, ",") || got[1] != "v1,,,,," {
		t.Fatalf("lines = %q", got)
	}
}

func TestAppendAcceptsHeaderWithByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(path, []byte("\uFEFF"+strings.Join(Header, ",")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewWriter(path).Append(context.Background(), Row{VideoPath: "v1"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got := lines(t, path); len(got) != 2 || got[1] != "v1,,,,," {
		t.Fatalf("lines = %q", got)
	}
}
