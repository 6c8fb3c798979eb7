// Package dataset appends one CSV row per processed video to the dataset file.
package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Header is the fixed column set of a dataset file.
var Header = []string{
	"video_path",
	"audio_path",
	"text_path",
	"extracted_text",
	"video_duration",
	"audio_duration",
}

// ErrHeaderMismatch means an existing file was written with other columns.
var ErrHeaderMismatch = errors.New("dataset header mismatch")

// Row is one processed video. Empty strings and nil durations are the
// sentinels for stages that failed.
type Row struct {
	VideoPath     string
	AudioPath     string
	TextPath      string
	ExtractedText string
	VideoDuration *float64
	AudioDuration *float64
}

// Record renders the row in Header order.
func (r Row) Record() []string {
	return []string{
		r.VideoPath,
		r.AudioPath,
		r.TextPath,
		r.ExtractedText,
		formatDuration(r.VideoDuration),
		formatDuration(r.AudioDuration),
	}
}

func formatDuration(d *float64) string {
	if d == nil {
		return ""
	}
	return strconv.FormatFloat(math.Round(*d*1000)/1000, 'f', -1, 64)
}

func parseDuration(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Writer appends rows to one file. Appends are serialized in-process by a
// mutex and across processes by an flock on "{path}.lock".
type Writer struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewWriter(path string) *Writer {
	return &Writer{path: path, lock: flock.New(path + ".lock")}
}

func (w *Writer) Path() string { return w.path }

// Append writes row, preceded by the header when the file is new or empty.
// The bytes of one call go out in a single write on an O_APPEND descriptor
// and are fsynced, so a crash can at worst leave a torn last row. A torn row
// is cut off before the next append.
func (w *Writer) Append(ctx context.Context, row Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	ok, err := w.lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", w.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", w.lock.Path())
	}
	defer func() { _ = w.lock.Unlock() }()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	size := info.Size()
	if size > 0 {
		end, err := recordsEnd(f, size)
		if err != nil {
			return err
		}
		if end < size {
			if err := f.Truncate(end); err != nil {
				return fmt.Errorf("drop torn row of %s: %w", w.path, err)
			}
			size = end
		}
	}

	var buf bytes.Buffer
	if size == 0 {
		if err := encode(&buf, Header); err != nil {
			return err
		}
	} else if err := checkHeader(f); err != nil {
		return err
	}
	if err := encode(&buf, row.Record()); err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append %s: %w", w.path, err)
	}
	return f.Sync()
}

func encode(buf *bytes.Buffer, record []string) error {
	cw := csv.NewWriter(buf)
	if err := cw.Write(record); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func checkHeader(f *os.File) error {
	r := csv.NewReader(io.NewSectionReader(f, 0, 1<<20))
	got, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", f.Name(), err)
	}
	if len(got) > 0 {
		got[0] = strings.TrimPrefix(got[0], "\uFEFF")
	}
	if strings.Join(got, ",") != strings.Join(Header, ",") {
		return fmt.Errorf("%w: %s has %v", ErrHeaderMismatch, f.Name(), got)
	}
	return nil
}

// recordsEnd returns the offset just past the last newline that closes a
// record, i.e. one outside a quoted field. Anything after it is a torn row.
func recordsEnd(f *os.File, size int64) (int64, error) {
	r := bufio.NewReader(io.NewSectionReader(f, 0, size))
	var (
		off, end int64
		quoted   bool
	)
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return end, nil
		}
		if err != nil {
			return 0, err
		}
		off++
		switch {
		case b == '"':
			quoted = !quoted
		case b == '\n' && !quoted:
			end = off
		}
	}
}

// Read returns every data row of the file at path. Rows with a wrong field
// count are reported as errors.
func Read(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		vd, err := parseDuration(rec[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d video_duration: %w", path, i+1, err)
		}
		ad, err := parseDuration(rec[5])
		if err != nil {
			return nil, fmt.Errorf("%s row %d audio_duration: %w", path, i+1, err)
		}
		rows = append(rows, Row{
			VideoPath:     rec[0],
			AudioPath:     rec[1],
			TextPath:      rec[2],
			ExtractedText: rec[3],
			VideoDuration: vd,
			AudioDuration: ad,
		})
	}
	return rows, nil
}
