package cmd

import (
	"context"
	"fmt"

	"github.com/maastricht-university/emotion-dataset/clients"
	cfg "github.com/maastricht-university/emotion-dataset/config"
	"github.com/maastricht-university/emotion-dataset/dataset"
	"github.com/maastricht-university/emotion-dataset/lexicon"
	"github.com/maastricht-university/emotion-dataset/media"
	"github.com/maastricht-university/emotion-dataset/notify"
	"github.com/maastricht-university/emotion-dataset/orchestrator"
	"github.com/maastricht-university/emotion-dataset/sequence"
	"github.com/maastricht-university/emotion-dataset/spell"
	"github.com/maastricht-university/emotion-dataset/textnorm"
	"github.com/maastricht-university/emotion-dataset/transcribe"
)

func (a *app) httpClient() *clients.HTTP {
	return clients.NewHTTP(cfg.DurSeconds(a.cfg.Transcription.Timeout))
}

func (a *app) prober(r media.CommandRunner) *media.Prober {
	return media.NewProber(a.cfg.Media.FFprobe, r)
}

func (a *app) extractor(r media.CommandRunner) *media.Extractor {
	return media.NewExtractor(media.ExtractorOptions{
		FFmpeg:     a.cfg.Media.FFmpeg,
		SampleRate: a.cfg.Audio.SampleRate,
		Channels:   a.cfg.Audio.Channels,
		Codec:      a.cfg.Audio.Codec,
		Timeout:    cfg.DurSeconds(a.cfg.Media.Timeout),
	}, r, a.prober(r))
}

func (a *app) segmenter(r media.CommandRunner) *media.Segmenter {
	return media.NewSegmenter(media.SegmenterOptions{
		FFmpeg:    a.cfg.Media.FFmpeg,
		Ext:       a.cfg.Video.ClipExt,
		CodecArgs: a.cfg.Video.CodecArgs,
		Timeout:   cfg.DurSeconds(a.cfg.Media.Timeout),
	}, r, a.prober(r))
}

func (a *app) transcriber() (*transcribe.Adapter, error) {
	mode, err := transcribe.ParseMode(a.cfg.Transcription.Mode)
	if err != nil {
		return nil, err
	}
	tc := a.cfg.Transcription
	var backend transcribe.Backend
	switch tc.Backend {
	case "whisper":
		backend = transcribe.NewSingleBackend(clients.NewWhisper(tc.APIKey, tc.BaseURL, tc.Model, tc.Language))
	case "http", "":
		backend = transcribe.NewHTTPBackend(a.httpClient(), tc.URL, tc.Language)
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", tc.Backend)
	}
	return transcribe.New(backend, mode, cfg.DurSeconds(tc.Timeout)), nil
}

// lexicon loads the configured lexicon under the strictness policy.
func (a *app) lexicon(ctx context.Context) (*lexicon.Lexicon, error) {
	p := lexicon.NewProvider(a.cfg.Lexicon.Source, a.httpClient())
	return lexicon.LoadWithPolicy(ctx, p, a.cfg.Lexicon.Strict, a.log)
}

func (a *app) normalizer(ctx context.Context) (*textnorm.Normalizer, error) {
	lex, err := a.lexicon(ctx)
	if err != nil {
		return nil, err
	}
	corrector, err := spell.New(a.cfg.Spell.Index, lex)
	if err != nil {
		return nil, err
	}
	ranges, err := textnorm.ParseRanges(a.cfg.Text.ScriptRanges)
	if err != nil {
		return nil, err
	}
	return textnorm.New(ranges, corrector, a.cfg.Transcription.Language), nil
}

// publisher dials the broker when one is configured. A broker that cannot be
// reached disables notifications for the run instead of failing it.
func (a *app) publisher() notify.Publisher {
	if a.cfg.Notify.AMQPURL == "" {
		return notify.Nop{}
	}
	p, err := notify.DialAMQP(a.cfg.Notify.AMQPURL, a.cfg.Notify.Queue)
	if err != nil {
		a.log.WithError(err).Warn("clip-ready notifications disabled")
		return notify.Nop{}
	}
	return p
}

func (a *app) pipeline(ctx context.Context) (*orchestrator.Pipeline, error) {
	norm, err := a.normalizer(ctx)
	if err != nil {
		return nil, err
	}
	tr, err := a.transcriber()
	if err != nil {
		return nil, err
	}
	runner := media.ExecRunner{}
	return orchestrator.NewPipeline(a.cfg, orchestrator.Deps{
		Extractor:   a.extractor(runner),
		Transcriber: tr,
		Normalizer:  norm,
		Segmenter:   a.segmenter(runner),
		Sequence:    sequence.Open(a.cfg.Paths.StatePath()),
		Dataset:     dataset.NewWriter(a.cfg.Paths.Dataset),
		Publisher:   a.publisher(),
		Log:         a.log,
	}), nil
}
