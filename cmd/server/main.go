// StoryScribe - progressive writing prompt server
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFileErr error

func main() {
	envFileErr = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the top-level command. Running it without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var logLevel string
	var opts serveOptions

	root := &cobra.Command{
		Use:           "storyscribe",
		Short:         "Progressive writing prompt server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogger(logLevel); err != nil {
				return err
			}
			if envFileErr != nil {
				slog.Info("No .env file found, using environment variables")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	bindServeFlags(root.Flags(), &opts)

	root.AddCommand(
		newServeCmd(),
		newCheckLLMCmd(),
		newProbeCmd(),
	)
	return root
}

func setupLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
	return nil
}
