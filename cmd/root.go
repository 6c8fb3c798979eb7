// Package cmd is the emodata command line.
package cmd

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	cfg "github.com/maastricht-university/emotion-dataset/config"
	"github.com/maastricht-university/emotion-dataset/logging"
)

// app is what every subcommand runs with, filled in before RunE.
type app struct {
	cfg *cfg.Root
	log *logrus.Logger
	v   *viper.Viper
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: cfg.NewViper()}
	var configPath string

	root := &cobra.Command{
		Use:           "emodata",
		Short:         "Build an emotion-annotation dataset from raw videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			c.Flags().VisitAll(func(f *pflag.Flag) {
				if keys := f.Annotations[configKey]; len(keys) == 1 {
					_ = a.v.BindPFlag(keys[0], f)
				}
			})
			conf, err := cfg.Load(configPath)
			if err != nil {
				return err
			}
			conf.Overlay(a.v)
			if err := conf.Validate(); err != nil {
				return err
			}
			a.cfg = conf
			a.log = logging.New(conf.Pipeline.LogLvl, conf.Pipeline.LogFormat, c.ErrOrStderr())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to config.yaml (default: CONFIG_ENV search, then built-in defaults)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	_ = a.v.BindPFlag("pipeline.log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("pipeline.log_format", pf.Lookup("log-format"))

	root.AddCommand(
		newRunCmd(a),
		newSegmentCmd(a),
		newTranscribeCmd(a),
		newNormalizeCmd(a),
		newLexiconCmd(a),
		newDatasetCmd(a),
		newAnnotateCmd(a),
	)
	return root, a
}

// configKey annotates a subcommand flag with the config key it overrides.
// Only the flags of the command being run are bound, so two commands may
// share a key.
const configKey = "emodata_config_key"

func bind(c *cobra.Command, flag, key string) {
	_ = c.Flags().SetAnnotation(flag, configKey, []string{key})
}

// Execute runs the command line until it finishes or the process receives
// SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, _ := newRootCmd()
	return root.ExecuteContext(ctx)
}
