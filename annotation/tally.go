package annotation

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
)

// MajorityHeader is the header row of the majority file.
var MajorityHeader = []string{"Video", "Majority Emotion"}

type votes struct {
	labels     []string // first-seen order
	counts     map[string]int
	total      int
	annotators []string
}

// Tally is an in-memory clip -> vote count aggregation, updated one vote at a
// time. Majority ties go to the label that was voted first.
type Tally struct {
	mu    sync.RWMutex
	clips []string // first-seen order
	votes map[string]*votes
}

func NewTally() *Tally {
	return &Tally{votes: map[string]*votes{}}
}

// Recover rebuilds a tally by replaying the log at path.
func Recover(path string) (*Tally, error) {
	t := NewTally()
	if err := Replay(path, t.Record); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tally) Record(a Annotation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.votes[a.ClipID]
	if !ok {
		v = &votes{counts: map[string]int{}}
		t.votes[a.ClipID] = v
		t.clips = append(t.clips, a.ClipID)
	}
	if _, seen := v.counts[a.Emotion]; !seen {
		v.labels = append(v.labels, a.Emotion)
	}
	v.counts[a.Emotion]++
	v.total++
	if a.Annotator != "" {
		v.annotators = append(v.annotators, a.Annotator)
	}
}

// Majority returns the most voted label of clip.
func (t *Tally) Majority(clip string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.votes[clip]
	if !ok {
		return "", false
	}
	return v.majority(), true
}

func (v *votes) majority() string {
	best, bestN := "", 0
	for _, l := range v.labels {
		if n := v.counts[l]; n > bestN {
			best, bestN = l, n
		}
	}
	return best
}

// Count is the number of votes cast for clip.
func (t *Tally) Count(clip string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if v, ok := t.votes[clip]; ok {
		return v.total
	}
	return 0
}

// Annotators lists who voted on clip, in vote order.
func (t *Tally) Annotators(clip string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.votes[clip]
	if !ok {
		return nil
	}
	return append([]string(nil), v.annotators...)
}

type Majority struct {
	Clip    string
	Emotion string
}

// Majorities lists every clip with its majority label in first-seen order.
func (t *Tally) Majorities() []Majority {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Majority, 0, len(t.clips))
	for _, c := range t.clips {
		out = append(out, Majority{Clip: c, Emotion: t.votes[c].majority()})
	}
	return out
}

// WriteMajority replaces the file at path with the current majorities. The
// file is written to a temp name and renamed, so readers never see a partial
// table.
func WriteMajority(path string, t *Tally) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(MajorityHeader); err != nil {
		return err
	}
	for _, m := range t.Majorities() {
		if err := cw.Write([]string{m.Clip, m.Emotion}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-majority-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
