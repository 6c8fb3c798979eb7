package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/emotion-dataset/orchestrator"
)

func newRunCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Process every video in the input directory into audio, text, clips and dataset rows",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			p, err := a.pipeline(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = p.Publisher.Close() }()
			defer func() { _ = p.Sequence.Close() }()

			report, runErr := p.Run(ctx)
			if path, err := orchestrator.Persist(a.cfg.Paths.Outputs, report); err != nil {
				a.log.WithError(err).Warn("run report not written")
			} else {
				a.log.WithFields(logrus.Fields{"run_id": report.RunID, "report": path}).Info("run report written")
			}
			if runErr != nil {
				return runErr
			}
			fmt.Fprintf(c.OutOrStdout(), "processed=%d skipped=%d recorded=%d unintelligible=%d clips=%d\n",
				report.Processed, report.Skipped, report.Recorded, report.Unintelligible, report.ClipsWritten)
			return nil
		},
	}
	f := c.Flags()
	f.String("input", "", "directory of source videos")
	f.String("clips", "", "output directory for clips")
	f.String("dataset", "", "dataset CSV path")
	f.String("mode", "", "transcription mode: single or multi")
	f.Float64("clip-seconds", 0, "clip duration in seconds")
	f.Bool("preprocess", false, "normalize loudness and trim silence before transcription")
	bind(c, "input", "paths.input")
	bind(c, "clips", "paths.clips")
	bind(c, "dataset", "paths.dataset")
	bind(c, "mode", "transcription.mode")
	bind(c, "clip-seconds", "video.clip_seconds")
	bind(c, "preprocess", "audio.preprocess")
	return c
}
