// Package failure holds the error kinds a pipeline run can report per file.
package failure

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreadable marks a video that cannot be opened or demuxed.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrUnintelligible marks audio the service heard but could not transcribe.
	ErrUnintelligible = errors.New("speech unintelligible")
	// ErrServiceUnavailable marks a network or service fault of the transcriber.
	ErrServiceUnavailable = errors.New("transcription service unavailable")
	// ErrLexiconUnavailable marks a lexicon source that cannot be read or parsed.
	ErrLexiconUnavailable = errors.New("lexicon unavailable")
	// ErrSegmentWriteFailure marks a disk or codec error while writing a clip.
	ErrSegmentWriteFailure = errors.New("segment write failure")
)

var kinds = []error{
	ErrSourceUnreadable,
	ErrUnintelligible,
	ErrServiceUnavailable,
	ErrLexiconUnavailable,
	ErrSegmentWriteFailure,
}

// Error ties a cause to the pipeline stage and file it happened in.
type Error struct {
	Stage string
	Path  string
	Kind  error
	Err   error
}

// New wraps err with its stage, file and kind.
func New(stage, path string, kind, err error) *Error {
	return &Error{Stage: stage, Path: path, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Stage
	if e.Path != "" {
		msg += " " + e.Path
	}
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", msg, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// KindOf returns the taxonomy sentinel err belongs to, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Label is a short, log-friendly name for the kind of err.
func Label(err error) string {
	switch KindOf(err) {
	case ErrSourceUnreadable:
		return "source_unreadable"
	case ErrUnintelligible:
		return "unintelligible"
	case ErrServiceUnavailable:
		return "service_unavailable"
	case ErrLexiconUnavailable:
		return "lexicon_unavailable"
	case ErrSegmentWriteFailure:
		return "segment_write_failure"
	}
	if err == nil {
		return ""
	}
	return "unclassified"
}
