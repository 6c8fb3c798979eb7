// Package annotation records annotator votes per clip and derives the
// majority emotion of every clip.
package annotation

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Annotation is one vote. Rating is kept as the annotator typed it.
type Annotation struct {
	ClipID    string
	Emotion   string
	Annotator string
	Rating    string
	Comment   string
}

// Record is the log row: clip, emotion, annotator, rating, comment.
func (a Annotation) Record() []string {
	return []string{a.ClipID, a.Emotion, a.Annotator, a.Rating, a.Comment}
}

// Validate reports a vote that cannot count toward a majority.
func (a Annotation) Validate() error {
	var missing []string
	if strings.TrimSpace(a.ClipID) == "" {
		missing = append(missing, "clip")
	}
	if strings.TrimSpace(a.Emotion) == "" {
		missing = append(missing, "emotion")
	}
	if strings.TrimSpace(a.Rating) == "" {
		missing = append(missing, "rating")
	}
	if len(missing) > 0 {
		return fmt.Errorf("annotation missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Log is the append-only annotation file. It has no header row.
type Log struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewLog(path string) *Log {
	return &Log{path: path, lock: flock.New(path + ".lock")}
}

func (l *Log) Path() string { return l.path }

// Append writes a as one CSV row in a single write, under the lock file.
func (l *Log) Append(ctx context.Context, a Annotation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	ok, err := l.lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", l.lock.Path())
	}
	defer func() { _ = l.lock.Unlock() }()

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(a.Record()); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append %s: %w", l.path, err)
	}
	return f.Sync()
}

// Replay calls fn for every row of the log at path in file order. A missing
// log is empty. Rows with fewer than five fields are skipped.
func Replay(path string, fn func(Annotation)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("replay %s: %w", path, err)
		}
		if len(rec) < 5 {
			continue
		}
		fn(Annotation{ClipID: rec[0], Emotion: rec[1], Annotator: rec[2], Rating: rec[3], Comment: rec[4]})
	}
}
