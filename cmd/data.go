package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/emotion-dataset/annotation"
	"github.com/maastricht-university/emotion-dataset/dataset"
	"github.com/maastricht-university/emotion-dataset/sequence"
)

func newLexiconCmd(a *app) *cobra.Command {
	lex := &cobra.Command{Use: "lexicon", Short: "Inspect the reference lexicon"}
	export := &cobra.Command{
		Use:   "export",
		Short: "Load the configured lexicon and write it as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a.cfg.Lexicon.Strict = true
			l, err := a.lexicon(c.Context())
			if err != nil {
				return err
			}
			out, _ := c.Flags().GetString("out")
			if out == "" || out == "-" {
				return l.WriteJSON(c.OutOrStdout())
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := l.WriteJSON(f); err != nil {
				_ = f.Close()
				return err
			}
			a.log.WithField("words", l.Len()).WithField("out", out).Info("lexicon exported")
			return f.Close()
		},
	}
	export.Flags().String("out", "", "output file (stdout when empty)")
	export.Flags().String("source", "", "lexicon file or URL")
	bind(export, "source", "lexicon.source")
	lex.AddCommand(export)
	return lex
}

func newDatasetCmd(a *app) *cobra.Command {
	ds := &cobra.Command{Use: "dataset", Short: "Inspect the dataset file"}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the rows of the dataset",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			rows, err := dataset.Read(a.cfg.Paths.Dataset)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VIDEO\tVIDEO_S\tAUDIO_S\tTEXT")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.VideoPath, seconds(r.VideoDuration), seconds(r.AudioDuration), preview(r.ExtractedText, 40))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%d rows\n", len(rows))
			return nil
		},
	}
	ds.AddCommand(show)
	return ds
}

func seconds(d *float64) string {
	if d == nil {
		return "-"
	}
	return strconv.FormatFloat(*d, 'f', 1, 64)
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

func newAnnotateCmd(a *app) *cobra.Command {
	ann := &cobra.Command{Use: "annotate", Short: "Collect emotion votes for clips"}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the annotation form",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ac := a.cfg.Annotation
			tally, err := annotation.Recover(ac.Log)
			if err != nil {
				return err
			}
			opts := annotation.ServerOptions{
				ClipsDir:     a.cfg.Paths.Clips,
				TextDir:      a.cfg.Paths.Text,
				ClipExt:      a.cfg.Video.ClipExt,
				MajorityPath: ac.Majority,
				Emotions:     ac.Emotions,
				Sources:      sequence.Open(a.cfg.Paths.StatePath()),
			}
			if ac.SuggestURL != "" {
				opts.Suggester = annotation.ServiceSuggester{
					HTTP:     a.httpClient(),
					URL:      ac.SuggestURL,
					Language: a.cfg.Transcription.Language,
					Emotions: ac.Emotions,
				}
			}
			s := annotation.NewServer(opts, annotation.NewLog(ac.Log), tally, a.log)
			return annotation.Serve(c.Context(), ac.Addr, s.Handler(), a.log)
		},
	}
	serve.Flags().String("addr", "", "listen address")
	bind(serve, "addr", "annotation.addr")

	majority := &cobra.Command{
		Use:   "majority",
		Short: "Recompute the majority emotion file from the annotation log",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			tally, err := annotation.Recover(a.cfg.Annotation.Log)
			if err != nil {
				return err
			}
			if err := annotation.WriteMajority(a.cfg.Annotation.Majority, tally); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%d clips -> %s\n", len(tally.Majorities()), a.cfg.Annotation.Majority)
			return nil
		},
	}

	ann.AddCommand(serve, majority)
	return ann
}
