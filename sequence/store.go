// Package sequence allocates clip numbers per base name and remembers which
// sources a run has already finished.
//
// The counter file is the authority. A scan of the clip directory seeds it
// the first time a base name is seen and guards against clips written by
// other tools: allocation always starts at max(stored next, highest on disk + 1).
//
// The stored next only moves past numbers whose clips were written. Numbers
// handed out but not yet settled are kept as open reservations, each owned by
// the Store that made it. An owner holds an flock for as long as it lives, so
// a reservation whose owner lock can be taken belongs to a process that died
// mid-split; the next Reserve settles it against the clips on disk.
package sequence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const stateVersion = 1

type Counter struct {
	Next      int       `json:"next"`
	Open      []Span    `json:"open,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Span is an open reservation [First, End).
type Span struct {
	First int       `json:"first"`
	End   int       `json:"end"`
	Owner string    `json:"owner"`
	At    time.Time `json:"at"`
}

// SourceState records how far a source video got. First and Last are the
// inclusive clip range; both are 0 when no clip was written.
type SourceState struct {
	Base      string    `json:"base"`
	First     int       `json:"first,omitempty"`
	Last      int       `json:"last,omitempty"`
	Segmented bool      `json:"segmented"`
	Recorded  bool      `json:"recorded"`
	RunID     string    `json:"run_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type State struct {
	Version int                     `json:"version"`
	Bases   map[string]*Counter     `json:"bases"`
	Sources map[string]*SourceState `json:"sources"`
}

func newState() *State {
	return &State{
		Version: stateVersion,
		Bases:   map[string]*Counter{},
		Sources: map[string]*SourceState{},
	}
}

// ScanFunc reports the highest clip number already on disk, 0 when none.
type ScanFunc func() (int, error)

// Store persists State as JSON. Every operation runs under an in-process
// mutex and an exclusive flock on "{path}.lock", so concurrent allocators for
// the same base name never hand out overlapping numbers.
type Store struct {
	path  string
	mu    sync.Mutex
	lock  *flock.Flock
	owner string
	held  *flock.Flock
	now   func() time.Time
}

func Open(path string) *Store {
	owner := uuid.NewString()
	return &Store{
		path:  path,
		lock:  flock.New(path + ".lock"),
		owner: owner,
		held:  flock.New(ownerLock(path, owner)),
		now:   time.Now,
	}
}

func (s *Store) Path() string { return s.path }

func ownerLock(path, owner string) string { return path + "." + owner + ".lock" }

// Close gives up the store's claim on its open reservations. Any it did not
// release are settled against the clip directory by the next Reserve.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.held.Locked() {
		return nil
	}
	if err := s.held.Unlock(); err != nil {
		return err
	}
	return os.Remove(s.held.Path())
}

// Reserve hands out n consecutive numbers for base and returns the first.
// The numbers stay an open reservation until Release.
func (s *Store) Reserve(ctx context.Context, base string, n int, scan ScanFunc) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("reserve %d clip numbers: negative count", n)
	}
	var first int
	err := s.update(ctx, func(st *State) error {
		highest, err := scanned(base, scan)
		if err != nil {
			return err
		}
		c := counter(st, base)
		s.settle(c, highest)
		first = s.nextFor(c, highest)
		if n > 0 {
			if err := s.hold(); err != nil {
				return err
			}
			c.Open = append(c.Open, Span{First: first, End: first + n, Owner: s.owner, At: s.now()})
		}
		c.UpdatedAt = s.now()
		return nil
	})
	return first, err
}

// Peek returns the number the next reservation for base would start at,
// without reserving it.
func (s *Store) Peek(ctx context.Context, base string, scan ScanFunc) (int, error) {
	var next int
	err := s.view(ctx, func(st *State) error {
		highest, err := scanned(base, scan)
		if err != nil {
			return err
		}
		c := counter(st, base)
		s.settle(c, highest)
		next = s.nextFor(c, highest)
		return nil
	})
	return next, err
}

// Release closes the reservation ending at reservedEnd. Numbers below
// usedEnd are kept; the unused tail [usedEnd, reservedEnd) is handed back
// unless a later reservation already sits above it.
func (s *Store) Release(ctx context.Context, base string, reservedEnd, usedEnd int) error {
	return s.update(ctx, func(st *State) error {
		c, ok := st.Bases[base]
		if !ok {
			return nil
		}
		for i, sp := range c.Open {
			if sp.Owner != s.owner || sp.End != reservedEnd {
				continue
			}
			c.Open = append(c.Open[:i], c.Open[i+1:]...)
			if usedEnd > c.Next {
				c.Next = usedEnd
			}
			c.UpdatedAt = s.now()
			return nil
		}
		return nil
	})
}

// MarkSegmented records the clip range written for src.
func (s *Store) MarkSegmented(ctx context.Context, src, base string, first, last int, runID string) error {
	return s.update(ctx, func(st *State) error {
		ss := source(st, src)
		ss.Base, ss.First, ss.Last = base, first, last
		ss.Segmented = true
		ss.RunID = runID
		ss.UpdatedAt = s.now()
		return nil
	})
}

// MarkRecorded records that the dataset row for src was written.
func (s *Store) MarkRecorded(ctx context.Context, src, runID string) error {
	return s.update(ctx, func(st *State) error {
		ss := source(st, src)
		ss.Recorded = true
		ss.RunID = runID
		ss.UpdatedAt = s.now()
		return nil
	})
}

// Source returns the recorded state of src.
func (s *Store) Source(ctx context.Context, src string) (SourceState, bool, error) {
	var (
		out SourceState
		ok  bool
	)
	err := s.view(ctx, func(st *State) error {
		if ss, found := st.Sources[src]; found {
			out, ok = *ss, true
		}
		return nil
	})
	return out, ok, err
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot(ctx context.Context) (*State, error) {
	var out *State
	err := s.view(ctx, func(st *State) error {
		out = st
		return nil
	})
	return out, err
}

// ClipSources maps every clip ID recorded as segmented, e.g. "video12", to
// the source video it was cut from.
func (s *Store) ClipSources(ctx context.Context) (map[string]string, error) {
	st, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return st.ClipSources(), nil
}

func (st *State) ClipSources() map[string]string {
	out := map[string]string{}
	for path, ss := range st.Sources {
		if !ss.Segmented || ss.First == 0 {
			continue
		}
		for n := ss.First; n <= ss.Last; n++ {
			out[ss.Base+strconv.Itoa(n)] = path
		}
	}
	return out
}

func scanned(base string, scan ScanFunc) (int, error) {
	if scan == nil {
		return 0, nil
	}
	highest, err := scan()
	if err != nil {
		return 0, fmt.Errorf("scan clips for %q: %w", base, err)
	}
	return highest, nil
}

func counter(st *State, base string) *Counter {
	c, ok := st.Bases[base]
	if !ok {
		c = &Counter{}
		st.Bases[base] = c
	}
	return c
}

func (s *Store) nextFor(c *Counter, highest int) int {
	next := highest + 1
	if c.Next > next {
		next = c.Next
	}
	for _, sp := range c.Open {
		if sp.End > next {
			next = sp.End
		}
	}
	return next
}

// settle drops reservations whose owner is gone. Numbers of a dropped
// reservation count as used only up to the highest clip on disk.
func (s *Store) settle(c *Counter, highest int) {
	open := c.Open[:0]
	for _, sp := range c.Open {
		if sp.Owner == s.owner || !s.abandoned(sp.Owner) {
			open = append(open, sp)
			continue
		}
		if highest >= sp.First {
			used := highest + 1
			if used > sp.End {
				used = sp.End
			}
			if used > c.Next {
				c.Next = used
			}
		}
	}
	c.Open = open
}

// abandoned reports whether owner's lock is free. A lock that cannot be
// checked counts as held.
func (s *Store) abandoned(owner string) bool {
	path := ownerLock(s.path, owner)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil || !ok {
		return false
	}
	_ = fl.Unlock()
	_ = os.Remove(path)
	return true
}

func (s *Store) hold() error {
	if s.held.Locked() {
		return nil
	}
	ok, err := s.held.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.held.Path(), err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", s.held.Path())
	}
	return nil
}

func source(st *State, src string) *SourceState {
	ss, ok := st.Sources[src]
	if !ok {
		ss = &SourceState{}
		st.Sources[src] = ss
	}
	return ss
}

func (s *Store) update(ctx context.Context, fn func(*State) error) error {
	return s.locked(ctx, func() error {
		st, err := s.read()
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		return s.write(st)
	})
}

func (s *Store) view(ctx context.Context, fn func(*State) error) error {
	return s.locked(ctx, func() error {
		st, err := s.read()
		if err != nil {
			return err
		}
		return fn(st)
	})
}

func (s *Store) locked(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	ok, err := s.lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

func (s *Store) read() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newState(), nil
		}
		return nil, err
	}
	st := newState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("sequence state %s: %w", s.path, err)
	}
	if st.Bases == nil {
		st.Bases = map[string]*Counter{}
	}
	if st.Sources == nil {
		st.Sources = map[string]*SourceState{}
	}
	return st, nil
}

// write replaces the state file atomically: temp file in the same
// directory, fsync, rename, then a best-effort fsync of the directory.
func (s *Store) write(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tmp-sequence-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
