package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/emotion-dataset/failure"
	"github.com/maastricht-university/emotion-dataset/media"
	"github.com/maastricht-university/emotion-dataset/orchestrator"
	"github.com/maastricht-university/emotion-dataset/sequence"
)

func newSegmentCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "segment <video>",
		Short: "Split one video into numbered clips, continuing the clip sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner := media.ExecRunner{}
			seq := sequence.Open(a.cfg.Paths.StatePath())
			defer func() { _ = seq.Close() }()
			p := orchestrator.NewPipeline(a.cfg, orchestrator.Deps{
				Segmenter: a.segmenter(runner),
				Sequence:  seq,
				Log:       a.log,
			})
			clips, err := p.Segment(c.Context(), uuid.NewString(), media.NewSource(args[0]))
			for _, cl := range clips {
				fmt.Fprintf(c.OutOrStdout(), "%s\t%.3f\t%.3f\n", cl.Path, cl.Start, cl.End)
			}
			return err
		},
	}
	f := c.Flags()
	f.String("out", "", "output directory for clips")
	f.String("base-name", "", "clip base name")
	f.Float64("clip-seconds", 0, "clip duration in seconds")
	bind(c, "out", "paths.clips")
	bind(c, "base-name", "video.base_name")
	bind(c, "clip-seconds", "video.clip_seconds")
	return c
}

func newTranscribeCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "transcribe <audio>",
		Short: "Transcribe one audio file and print the normalized text",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			tr, err := a.transcriber()
			if err != nil {
				return err
			}
			res, err := tr.Transcribe(ctx, args[0])
			if errors.Is(err, failure.ErrUnintelligible) {
				a.log.WithField("audio", args[0]).Info("no speech recognised")
				return nil
			}
			if err != nil {
				return err
			}
			raw, _ := c.Flags().GetBool("raw")
			if raw {
				fmt.Fprintln(c.OutOrStdout(), strings.Join(res.Lines, "\n"))
				return nil
			}
			norm, err := a.normalizer(ctx)
			if err != nil {
				return err
			}
			lines, _ := norm.NormalizeLines(res.Lines)
			fmt.Fprintln(c.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		},
	}
	c.Flags().Bool("raw", false, "print the service transcript without normalization")
	c.Flags().String("mode", "", "transcription mode: single or multi")
	c.Flags().String("backend", "", "transcription backend: http or whisper")
	bind(c, "mode", "transcription.mode")
	bind(c, "backend", "transcription.backend")
	return c
}

func newNormalizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <text-file|->",
		Short: "Normalize and spell-correct a transcript, one utterance per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(c.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			norm, err := a.normalizer(c.Context())
			if err != nil {
				return err
			}
			lines, res := norm.NormalizeLines(strings.Split(string(data), "\n"))
			for _, l := range lines {
				fmt.Fprintln(c.OutOrStdout(), l)
			}
			a.log.WithField("tokens", res.Tokens).WithField("corrected", res.Corrected).Debug("normalized")
			return nil
		},
	}
}
