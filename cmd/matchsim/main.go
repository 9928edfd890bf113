// Command matchsim runs the match engine offline: batch simulations through
// the worker pool, lineup ratings and API tokens for local testing.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/matchday/internal/config"
	"github.com/okian/matchday/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "matchsim",
		Short:        "Offline tools for the matchday engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithFormat(logger.FormatText, cmd.ErrOrStderr()); err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newBatchCmd(),
		newStrengthCmd(),
		newTokenCmd(),
	)
	return root
}

// loadConfig reads the service configuration so CLI defaults follow it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Context())
}
