package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/quarry/internal/activity"
	"github.com/MikeSquared-Agency/quarry/internal/config"
	"github.com/MikeSquared-Agency/quarry/internal/effort"
	"github.com/MikeSquared-Agency/quarry/internal/hermes"
	"github.com/MikeSquared-Agency/quarry/internal/session"
)

func newAskCommand(cfg *config.Config) *cobra.Command {
	var level, model string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Research a question and print the answer",
		Long: `Submit a question to the research pipeline and follow its progress.

Each pipeline stage is printed as it completes. Press Ctrl-C to stop the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return research(cmd, cfg, func(ctx context.Context, s *session.Session) error {
				return s.Submit(ctx, question, level, model)
			})
		},
	}

	var levels []string
	for _, l := range effort.Levels() {
		levels = append(levels, string(l))
	}
	cmd.Flags().StringVarP(&level, "effort", "e", cfg.Effort,
		fmt.Sprintf("Research effort (%s)", strings.Join(levels, ", ")))
	cmd.Flags().StringVarP(&model, "model", "m", cfg.Model, "Reasoning model")

	return cmd
}

func newReplayCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <history-id>",
		Short: "Run a past research session again",
		Long: `Start a new session from a history item, reusing its question, effort
and model.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := newHistoryClient(cfg).Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading history item: %w", err)
			}
			return research(cmd, cfg, func(ctx context.Context, s *session.Session) error {
				s.OnReplay(func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Replaying %q (%s, %s)\n", item.Query, item.Effort, item.Model)
				})
				return s.Replay(ctx, *item)
			})
		},
	}
}

// research connects to the pipeline, starts a run with start and streams its
// timeline until the run drains, fails or the user interrupts it.
func research(cmd *cobra.Command, cfg *config.Config, start func(context.Context, *session.Session) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
	if err != nil {
		return fmt.Errorf("connecting to pipeline: %w", err)
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	s := session.New(hermes.NewDispatcher(client, logger), logger)
	s.OnEntry(func(e activity.Entry) { printEntry(out, e) })

	if err := client.Subscribe(hermes.SubjectRunStream, hermes.NewBridge(s, logger).HandleFrame); err != nil {
		return err
	}
	if err := client.Flush(ctx); err != nil {
		return err
	}

	if err := start(ctx, s); err != nil {
		return err
	}

	if err := s.Wait(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Cancel(stopCtx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Research stopped.")
		return nil
	}

	printAnswer(out, s.Messages())
	return nil
}
