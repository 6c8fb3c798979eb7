package media

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/maastricht-university/emotion-dataset/failure"
)

// Source is a discovered input video.
type Source struct {
	Path     string
	Duration float64
	Format   string
}

// NewSource describes path; Duration stays 0 until probed.
func NewSource(path string) Source {
	return Source{Path: path, Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")}
}

// Stem is the file name without directory and extension.
func (s Source) Stem() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AudioTrack is the demuxed audio of one source.
type AudioTrack struct {
	Path     string
	Duration float64
}

// Durations holds the probed lengths in seconds; nil means unknown.
type Durations struct {
	Video *float64
	Audio *float64
}

type ExtractorOptions struct {
	FFmpeg     string
	SampleRate int
	Channels   int
	Codec      string
	Timeout    time.Duration
}

// Extractor demuxes the audio track of a video into a WAV file.
type Extractor struct {
	ffmpeg     string
	runner     CommandRunner
	prober     *Prober
	sampleRate int
	channels   int
	codec      string
	timeout    time.Duration
	mkdirAll   func(path string, perm os.FileMode) error
	remove     func(name string) error
}

func NewExtractor(opts ExtractorOptions, r CommandRunner, p *Prober) *Extractor {
	e := &Extractor{
		ffmpeg:     opts.FFmpeg,
		runner:     r,
		prober:     p,
		sampleRate: opts.SampleRate,
		channels:   opts.Channels,
		codec:      opts.Codec,
		timeout:    opts.Timeout,
		mkdirAll:   os.MkdirAll,
		remove:     os.Remove,
	}
	if e.ffmpeg == "" {
		e.ffmpeg = "ffmpeg"
	}
	if e.sampleRate <= 0 {
		e.sampleRate = 16000
	}
	if e.channels <= 0 {
		e.channels = 1
	}
	if e.codec == "" {
		e.codec = "pcm_s16le"
	}
	return e
}

// Extract writes the audio of videoPath to audioPath and returns both
// durations. On any failure both durations are nil and the error is
// classified as failure.ErrSourceUnreadable.
func (e *Extractor) Extract(ctx context.Context, videoPath, audioPath string) (Durations, error) {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	videoDur, err := e.prober.Duration(ctx, videoPath)
	if err != nil {
		return Durations{}, failure.New("audio_extracted", videoPath, failure.ErrSourceUnreadable, err)
	}

	if err := e.mkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return Durations{}, failure.New("audio_extracted", videoPath, failure.ErrSourceUnreadable, err)
	}
	if _, err := e.runner.Run(ctx, e.ffmpeg, buildExtractArgs(videoPath, audioPath, e.sampleRate, e.channels, e.codec)...); err != nil {
		_ = e.remove(audioPath)
		return Durations{}, failure.New("audio_extracted", videoPath, failure.ErrSourceUnreadable, err)
	}

	audioDur, err := e.prober.Duration(ctx, audioPath)
	if err != nil {
		return Durations{}, failure.New("audio_extracted", videoPath, failure.ErrSourceUnreadable, err)
	}
	return Durations{Video: &videoDur, Audio: &audioDur}, nil
}

// Preprocess loudness-normalizes in and trims silence, writing out.
func (e *Extractor) Preprocess(ctx context.Context, in, out string) error {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.mkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if _, err := e.runner.Run(ctx, e.ffmpeg, buildPreprocessArgs(in, out, e.sampleRate, e.channels, e.codec)...); err != nil {
		_ = e.remove(out)
		return err
	}
	return nil
}

// buildExtractArgs drops the video stream and writes mono PCM WAV.
func buildExtractArgs(in, out string, rate, channels int, codec string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", in,
		"-vn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(rate),
		"-c:a", codec,
		out,
	}
}

// silenceFilter removes leading and inner stretches quieter than -40 dB.
const silenceFilter = "loudnorm,silenceremove=start_periods=1:start_threshold=-40dB:stop_periods=-1:stop_threshold=-40dB:stop_duration=0.5"

func buildPreprocessArgs(in, out string, rate, channels int, codec string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", in,
		"-af", silenceFilter,
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(rate),
		"-c:a", codec,
		out,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
