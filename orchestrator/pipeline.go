// Package orchestrator drives every discovered video through extraction,
// transcription, normalization, segmentation and recording.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	cfg "github.com/maastricht-university/emotion-dataset/config"
	"github.com/maastricht-university/emotion-dataset/dataset"
	"github.com/maastricht-university/emotion-dataset/failure"
	"github.com/maastricht-university/emotion-dataset/media"
	"github.com/maastricht-university/emotion-dataset/notify"
	"github.com/maastricht-university/emotion-dataset/sequence"
	"github.com/maastricht-university/emotion-dataset/textnorm"
	"github.com/maastricht-university/emotion-dataset/transcribe"
)

type Extractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) (media.Durations, error)
	Preprocess(ctx context.Context, in, out string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (transcribe.Result, error)
	Mode() transcribe.Mode
}

type Segmenter interface {
	Plan(ctx context.Context, src media.Source, clipSeconds float64) (media.Source, []media.Window, error)
	Split(ctx context.Context, src media.Source, clipSeconds float64, outDir, base string, start int) (int, []media.Clip, error)
	Ext() string
}

// Deps are the collaborators a Pipeline drives. Publisher may be nil.
type Deps struct {
	Extractor   Extractor
	Transcriber Transcriber
	Normalizer  *textnorm.Normalizer
	Segmenter   Segmenter
	Sequence    *sequence.Store
	Dataset     *dataset.Writer
	Publisher   notify.Publisher
	Log         logrus.FieldLogger
}

type Pipeline struct {
	cfg *cfg.Root
	Deps
	now   func() time.Time
	newID func() string
}

func NewPipeline(c *cfg.Root, d Deps) *Pipeline {
	if d.Publisher == nil {
		d.Publisher = notify.Nop{}
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &Pipeline{cfg: c, Deps: d, now: time.Now, newID: uuid.NewString}
}

// Run processes every video in the input directory, one at a time. Per-video
// failures are logged and counted; only an unreadable input directory or a
// cancelled context ends the run early. The report is returned in every case.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	runID := p.newID()
	log := p.Log.WithField("run_id", runID)
	report := newReport(runID, p.now())
	defer func() { report.FinishedAt = p.now() }()

	sources, err := Discover(p.cfg.Paths.Input, p.cfg.Video.Extensions)
	if err != nil {
		return report, fmt.Errorf("discover videos: %w", err)
	}
	report.Discovered = len(sources)
	log.WithFields(logrus.Fields{"input": p.cfg.Paths.Input, "videos": len(sources)}).Info("run started")

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("run interrupted")
			return report, err
		}
		report.add(p.Process(ctx, runID, src))
	}

	log.WithFields(logrus.Fields{
		"processed":      report.Processed,
		"skipped":        report.Skipped,
		"recorded":       report.Recorded,
		"unintelligible": report.Unintelligible,
		"clips":          report.ClipsWritten,
	}).Info("run finished")
	return report, nil
}

// Process moves one source through the stage machine.
func (p *Pipeline) Process(ctx context.Context, runID string, src media.Source) Outcome {
	log := p.Log.WithFields(logrus.Fields{"run_id": runID, "video": src.Path})
	out := Outcome{Video: src.Path, Reached: StageDiscovered}

	prior, seen, err := p.Sequence.Source(ctx, src.Path)
	if err != nil {
		log.WithError(err).Warn("sequence state unreadable, processing from scratch")
		seen = false
	}
	if seen && prior.Recorded {
		log.WithField("run", prior.RunID).Debug("already recorded, skipping")
		out.Skipped = true
		out.Reached = StageRecorded
		return out
	}

	stem := src.Stem()
	row := dataset.Row{VideoPath: src.Path}

	// audio_extracted
	audioPath := filepath.Join(p.cfg.Paths.Audio, stem+".wav")
	durs, err := p.Extractor.Extract(ctx, src.Path, audioPath)
	audioOK := err == nil
	if audioOK {
		row.AudioPath = audioPath
		row.VideoDuration, row.AudioDuration = durs.Video, durs.Audio
		if durs.Video != nil {
			src.Duration = *durs.Video
		}
		out.Reached = StageAudioExtracted
	} else {
		p.stageFailed(log, &out, StageAudioExtracted, err)
	}

	// transcribed, normalized
	if audioOK {
		res, err := p.Transcriber.Transcribe(ctx, p.transcriptionInput(ctx, log, stem, audioPath))
		switch {
		case err == nil:
			out.Reached = StageTranscribed
		case errors.Is(err, failure.ErrUnintelligible):
			out.Unintelligible = true
			out.Reached = StageTranscribed
			log.WithFields(logrus.Fields{"stage": StageTranscribed, "cause": failure.Label(err)}).Info("no speech recognised")
		default:
			p.stageFailed(log, &out, StageTranscribed, err)
		}

		lines, norm := p.Normalizer.NormalizeLines(res.Lines)
		row.ExtractedText = norm.Text
		out.EmptyText = norm.Empty()
		if err := writeText(filepath.Join(p.cfg.Paths.Text, stem+".txt"), lines); err != nil {
			p.stageFailed(log, &out, StageNormalized, err)
		} else {
			row.TextPath = filepath.Join(p.cfg.Paths.Text, stem+".txt")
			out.Reached = StageNormalized
			log.WithFields(logrus.Fields{"tokens": norm.Tokens, "corrected": norm.Corrected}).Debug("text normalized")
		}
	}

	// segmented
	var clips []media.Clip
	if seen && prior.Segmented {
		log.WithFields(logrus.Fields{"first": prior.First, "last": prior.Last}).Info("clips already written, not segmenting again")
		out.Reached = StageSegmented
	} else {
		var err error
		clips, err = p.Segment(ctx, runID, src)
		out.Clips = clips
		if err != nil {
			p.stageFailed(log, &out, StageSegmented, err)
		} else {
			out.Reached = StageSegmented
		}
	}

	// recorded, even when the run is being cancelled
	bg := context.WithoutCancel(ctx)
	if err := p.Dataset.Append(bg, row); err != nil {
		p.stageFailed(log, &out, StageRecorded, err)
		out.Row = &row
		return out
	}
	out.Row = &row
	out.Reached = StageRecorded
	// A source with a failed stage stays eligible for the next run.
	if len(out.Failures) == 0 {
		if err := p.Sequence.MarkRecorded(bg, src.Path, runID); err != nil {
			log.WithError(err).Warn("could not mark video as recorded, a rerun will append it again")
		}
	} else {
		log.Info("stage failures recorded, video will be retried on the next run")
	}

	if len(clips) > 0 {
		p.announce(ctx, log, runID, src, clips, row.ExtractedText)
	}
	log.WithFields(logrus.Fields{"clips": len(clips), "empty_text": out.EmptyText}).Info("video recorded")
	return out
}

// transcriptionInput returns the preprocessed audio when preprocessing is on
// and succeeds, the raw extraction otherwise.
func (p *Pipeline) transcriptionInput(ctx context.Context, log logrus.FieldLogger, stem, audioPath string) string {
	if !p.cfg.Audio.Preprocess {
		return audioPath
	}
	pp := filepath.Join(p.cfg.Paths.Audio, "p_"+stem+".wav")
	if err := p.Extractor.Preprocess(ctx, audioPath, pp); err != nil {
		log.WithError(err).Warn("audio preprocessing failed, transcribing raw audio")
		return audioPath
	}
	return pp
}

// Segment reserves one number per planned clip, splits, and hands back the
// numbers a failed split did not use.
func (p *Pipeline) Segment(ctx context.Context, runID string, src media.Source) ([]media.Clip, error) {
	clipSeconds := p.cfg.Video.ClipSeconds
	base := p.cfg.Video.BaseName

	src, windows, err := p.Segmenter.Plan(ctx, src, clipSeconds)
	if err != nil {
		return nil, err
	}

	scan := sequence.Scanner(p.cfg.Paths.Clips, base, p.Segmenter.Ext())
	first, err := p.Sequence.Reserve(ctx, base, len(windows), scan)
	if err != nil {
		return nil, failure.New(string(StageSegmented), src.Path, failure.ErrSegmentWriteFailure, err)
	}
	reservedEnd := first + len(windows)

	next, clips, err := p.Segmenter.Split(ctx, src, clipSeconds, p.cfg.Paths.Clips, base, first)

	// Settle the reservation even when the run is being cancelled.
	bg := context.WithoutCancel(ctx)
	if rerr := p.Sequence.Release(bg, base, reservedEnd, next); rerr != nil {
		p.Log.WithError(rerr).Warn("could not release unused clip numbers")
	}
	if err != nil {
		return clips, err
	}

	last := next - 1
	if len(clips) == 0 {
		first, last = 0, 0
	}
	if err := p.Sequence.MarkSegmented(bg, src.Path, base, first, last, runID); err != nil {
		p.Log.WithError(err).Warn("could not mark video as segmented")
	}
	return clips, nil
}

func (p *Pipeline) announce(ctx context.Context, log logrus.FieldLogger, runID string, src media.Source, clips []media.Clip, text string) {
	msg := notify.ClipsReady{
		RunID:     runID,
		VideoPath: src.Path,
		BaseName:  p.cfg.Video.BaseName,
		Text:      text,
	}
	for _, c := range clips {
		msg.Clips = append(msg.Clips, notify.Clip{Seq: c.Seq, Path: c.Path, Start: c.Start, End: c.End})
	}
	if err := p.Publisher.Publish(ctx, msg); err != nil {
		log.WithError(err).Warn("clip-ready notification not sent")
	}
}

// stageFailed logs the failure once and records it on the outcome.
func (p *Pipeline) stageFailed(log logrus.FieldLogger, out *Outcome, stage Stage, err error) {
	label := failure.Label(err)
	log.WithFields(logrus.Fields{"stage": stage, "cause": label}).WithError(err).Warn("stage failed")
	out.fail(stage, label, err)
}
