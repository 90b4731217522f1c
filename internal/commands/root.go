// Package commands contains all CLI command definitions.
package commands

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/xsdalchemy/internal/config"
)

type rootOptions struct {
	config  string
	verbose bool
	logger  *slog.Logger
}

// NewRootCmd creates and returns the root command for the CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "xsdalchemy",
		Short:         "Generate SQLAlchemy mapped dataclasses from XML schema class graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.config, "config", "c", config.DefaultFile, "Generator config file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	registerGenerateCmd(rootCmd, opts)
	registerMigrateCmd(rootCmd, opts)

	return rootCmd
}

// loadConfig loads the config file. A missing default file yields the
// default configuration.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.config)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		return config.Default(), nil
	default:
		return nil, err
	}
}

func (o *rootOptions) log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return o.logger
}
