package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/quarry/internal/config"
	"github.com/MikeSquared-Agency/quarry/internal/history"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:   "quarry",
		Short: "Quarry - conversational web research from the terminal",
		Long: `Quarry submits research questions to the research pipeline, follows the
pipeline's progress as an activity timeline, and manages the history of
past research sessions.`,
		Version:      version,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Base URL of the history service")
	flags.StringVar(&cfg.NatsURL, "nats-url", cfg.NatsURL, "NATS server URL")
	flags.StringVar(&cfg.NatsToken, "nats-token", cfg.NatsToken, "NATS auth token")
	flags.StringVar(&cfg.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging(cfg.LogLevel, cmd.ErrOrStderr())
	}

	cmd.AddCommand(newAskCommand(&cfg))
	cmd.AddCommand(newReplayCommand(&cfg))
	cmd.AddCommand(newHistoryCommand(&cfg))
	cmd.AddCommand(newHealthCommand(&cfg))

	return cmd
}

func newHistoryClient(cfg *config.Config) *history.Client {
	return history.NewClient(cfg.APIURL, slog.Default())
}

func setupLogging(level string, w io.Writer) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
