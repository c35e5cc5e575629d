// Package cli implements the prioflow command line.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnykmshr/prioflow/internal/config"
	"github.com/vnykmshr/prioflow/internal/logging"
)

var (
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg    config.Config
	logger *zap.Logger
)

// NewRootCmd creates the root cobra command for the prioflow CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prioflow",
		Short: "prioflow: priority worker pool toolkit",
		Long:  "prioflow runs synthetic workloads through a priority worker pool and serves an admin API for a long-running one.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded := config.Default()
			if flagConfig != "" {
				var err error
				if loaded, err = config.Load(flagConfig); err != nil {
					return err
				}
			}

			if cmd.Flags().Changed("log-level") {
				loaded.Logging.Level = flagLogLevel
			}
			if cmd.Flags().Changed("log-format") {
				loaded.Logging.Format = flagLogFormat
			}
			if flagDebug {
				loaded.Logging.Level = "debug"
			}

			cfg = loaded
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, cmd.ErrOrStderr())
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newCronCmd(),
	)

	return root
}
