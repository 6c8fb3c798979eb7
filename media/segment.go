package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/maastricht-university/emotion-dataset/failure"
)

// minWindow drops tail windows that only exist because of float noise in
// probed durations.
const minWindow = 0.001

// Window is a half-open span [Start, End) of the source timeline in seconds.
type Window struct {
	Start float64
	End   float64
}

func (w Window) Duration() float64 { return w.End - w.Start }

// Windows cuts [0, total) into clip-sized windows; the last one is clamped to
// total and may be shorter.
func Windows(total, clip float64) []Window {
	if !(total > 0 && clip > 0) || math.IsInf(total, 0) || math.IsInf(clip, 0) {
		return nil
	}
	n := int(math.Ceil(total / clip))
	out := make([]Window, 0, n)
	for i := 0; ; i++ {
		start := float64(i) * clip
		if start >= total || total-start < minWindow {
			break
		}
		out = append(out, Window{Start: start, End: math.Min(start+clip, total)})
	}
	return out
}

// Clip is one written segment, identified by base name and sequence number.
type Clip struct {
	Base  string
	Seq   int
	Start float64
	End   float64
	Path  string
}

// ID is the clip file name without extension, e.g. "video12".
func (c Clip) ID() string { return c.Base + strconv.Itoa(c.Seq) }

// ClipName builds "{base}{seq}{ext}".
func ClipName(base string, seq int, ext string) string {
	return base + strconv.Itoa(seq) + ext
}

type SegmenterOptions struct {
	FFmpeg    string
	Ext       string
	CodecArgs []string
	Timeout   time.Duration
}

// Segmenter writes fixed-duration clips with ffmpeg.
type Segmenter struct {
	ffmpeg    string
	runner    CommandRunner
	prober    *Prober
	ext       string
	codecArgs []string
	timeout   time.Duration
	mkdirAll  func(path string, perm os.FileMode) error
	rename    func(oldpath, newpath string) error
	remove    func(name string) error
}

func NewSegmenter(opts SegmenterOptions, r CommandRunner, p *Prober) *Segmenter {
	s := &Segmenter{
		ffmpeg:    opts.FFmpeg,
		runner:    r,
		prober:    p,
		ext:       opts.Ext,
		codecArgs: opts.CodecArgs,
		timeout:   opts.Timeout,
		mkdirAll:  os.MkdirAll,
		rename:    os.Rename,
		remove:    os.Remove,
	}
	if s.ffmpeg == "" {
		s.ffmpeg = "ffmpeg"
	}
	if s.ext == "" {
		s.ext = ".mp4"
	}
	return s
}

func (s *Segmenter) Ext() string { return s.ext }

// Plan probes src when its duration is unknown and returns the windows a
// split would write.
func (s *Segmenter) Plan(ctx context.Context, src Source, clipSeconds float64) (Source, []Window, error) {
	if clipSeconds <= 0 {
		return src, nil, fmt.Errorf("clip duration must be > 0, got %v", clipSeconds)
	}
	if src.Duration <= 0 {
		d, err := s.prober.Duration(ctx, src.Path)
		if err != nil {
			return src, nil, failure.New("segmented", src.Path, failure.ErrSourceUnreadable, err)
		}
		src.Duration = d
	}
	return src, Windows(src.Duration, clipSeconds), nil
}

// Split writes src as clips named {base}{n}{ext} into outDir, numbering from
// start. It returns the next unused number and the clips written. When a clip
// fails, the clips before it are kept, the returned number follows the last
// one written and the error is failure.ErrSegmentWriteFailure.
func (s *Segmenter) Split(ctx context.Context, src Source, clipSeconds float64, outDir, base string, start int) (int, []Clip, error) {
	src, windows, err := s.Plan(ctx, src, clipSeconds)
	if err != nil {
		return start, nil, err
	}
	if err := s.mkdirAll(outDir, 0o755); err != nil {
		return start, nil, failure.New("segmented", src.Path, failure.ErrSegmentWriteFailure, err)
	}

	next := start
	clips := make([]Clip, 0, len(windows))
	for _, w := range windows {
		clip := Clip{
			Base:  base,
			Seq:   next,
			Start: w.Start,
			End:   w.End,
			Path:  filepath.Join(outDir, ClipName(base, next, s.ext)),
		}
		if err := s.writeClip(ctx, src.Path, clip); err != nil {
			return next, clips, failure.New("segmented", clip.Path, failure.ErrSegmentWriteFailure, err)
		}
		clips = append(clips, clip)
		next++
	}
	return next, clips, nil
}

// writeClip renders into a hidden temp name and renames it into place, so a
// half-written clip never carries a numbered name.
func (s *Segmenter) writeClip(ctx context.Context, in string, c Clip) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tmp := filepath.Join(filepath.Dir(c.Path), "."+c.ID()+".part"+s.ext)
	if _, err := s.runner.Run(ctx, s.ffmpeg, buildClipArgs(in, tmp, c.Start, c.End, s.codecArgs)...); err != nil {
		_ = s.remove(tmp)
		return err
	}
	if err := s.rename(tmp, c.Path); err != nil {
		_ = s.remove(tmp)
		return err
	}
	return nil
}

func buildClipArgs(in, out string, start, end float64, codecArgs []string) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", formatSeconds(start),
		"-i", in,
		"-t", formatSeconds(end - start),
	}
	args = append(args, codecArgs...)
	return append(args, "-avoid_negative_ts", "make_zero", out)
}

func formatSeconds(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
