package failure

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := New("audio_extracted", "/in/a.mp4", ErrSourceUnreadable, os.ErrNotExist)
	wrapped := fmt.Errorf("process: %w", err)

	if !errors.Is(wrapped, ErrSourceUnreadable) {
		t.Fatal("expected ErrSourceUnreadable")
	}
	if !errors.Is(wrapped, os.ErrNotExist) {
		t.Fatal("expected cause to be reachable")
	}
	var fe *Error
	if !errors.As(wrapped, &fe) {
		t.Fatalf("error type = %T, want *Error", wrapped)
	}
	if fe.Stage != "audio_extracted" || fe.Path != "/in/a.mp4" {
		t.Fatalf("stage/path = %q/%q", fe.Stage, fe.Path)
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnintelligible, "unintelligible"},
		{fmt.Errorf("x: %w", ErrServiceUnavailable), "service_unavailable"},
		{New("segmented", "", ErrSegmentWriteFailure, nil), "segment_write_failure"},
		{errors.New("boom"), "unclassified"},
	}
	for _, tc := range cases {
		if got := Label(tc.err); got != tc.want {
			t.Fatalf("Label(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
