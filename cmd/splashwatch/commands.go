package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/splashwatch/internal/app"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	logLevel    string
	pollSeconds int
}

func (g *globalFlags) options(cmd *cobra.Command) app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		LogLevel:   g.logLevel,
		PollEvery:  g.pollSeconds,
		Out:        cmd.OutOrStdout(),
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "splashwatch",
		Short: "Live splash screen for Jamf and Munki software deployments",
		Long: `splashwatch tails the Jamf and Munki deployment logs and shows every
package as it moves from installing to installed or failed.

Existing log content is read at startup, so packages that finished before
splashwatch started are shown too.`,
		Example: `  # Full-screen splash
  splashwatch

  # Log changes instead of drawing the splash (for launchd or ssh sessions)
  splashwatch watch --headless

  # One-shot report of what the logs contain right now
  splashwatch scan

  # Last 20 recorded transitions
  splashwatch history --limit 20`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options(cmd))
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: ~/.config/splashwatch/config.toml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	root.PersistentFlags().IntVar(&flags.pollSeconds, "poll", 0, "backstop poll interval in seconds (default from config)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	root.SuggestionsMinimumDistance = 2

	root.AddCommand(newWatchCmd(flags), newScanCmd(flags), newHistoryCmd(flags))
	return root
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var headless bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the deployment logs until interrupted",
		Long: `Watch the deployment logs. Without --headless this is the same as running
splashwatch with no subcommand. With --headless every status change is
written to stderr as a log line and the command runs until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd)
			opts.Headless = headless
			return app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "log changes instead of drawing the splash")
	return cmd
}

func newScanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Classify the current log contents once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Scan(cmd.Context(), flags.options(cmd))
		},
	}
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded status transitions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return app.History(cmd.Context(), flags.options(cmd), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of transitions to show")
	return cmd
}
