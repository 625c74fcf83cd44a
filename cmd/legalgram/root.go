package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/logs"
)

type rootOptions struct {
	appRoot  string
	logLevel string
	jsonLogs bool
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zap.NewNop()}
	cmd := &cobra.Command{
		Use:           "legalgram",
		Short:         "Legalgram generates legal documents from templates",
		Long:          "Legalgram fills document templates through a step wizard and renders them as paginated PDFs, plain text or Markdown.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logs.New(opts.logLevel, opts.jsonLogs)
			if err != nil {
				return err
			}
			opts.logger = logger
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = opts.logger.Sync()
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.appRoot, "root", ".", "app root holding the config/ directory")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	flags.BoolVar(&opts.jsonLogs, "json-logs", false, "log JSON lines instead of the console format")

	cmd.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newGenerateCmd(opts),
		newPreviewCmd(opts),
		newFillCmd(opts),
		newKeygenCmd(),
		newTokenCmd(),
	)
	return cmd
}
