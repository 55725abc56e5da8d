package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/quarry/internal/config"
)

func newHistoryCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and manage past research sessions",
	}

	cmd.AddCommand(newHistoryListCommand(cfg))
	cmd.AddCommand(newHistoryShowCommand(cfg))
	cmd.AddCommand(newHistoryDeleteCommand(cfg))
	cmd.AddCommand(newHistoryClearCommand(cfg))
	cmd.AddCommand(newHistoryStatsCommand(cfg))

	return cmd
}

func newHistoryListCommand(cfg *config.Config) *cobra.Command {
	var (
		limit  int
		search string
		query  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent research sessions",
		Long: `List recent research sessions, newest first.

--search filters the fetched sessions locally by question or answer text.
--query asks the history service to search its whole store instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newHistoryClient(cfg)
			if _, err := c.List(cmd.Context(), limit, query); err != nil {
				return fmt.Errorf("listing history: %w", err)
			}
			c.SetSearch(search)
			items := c.Filtered()
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No research history.")
				return nil
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", cfg.HistoryLimit, "Maximum number of sessions to fetch")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter sessions locally")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search on the history service")

	return cmd
}

func newHistoryShowCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <history-id>",
		Short: "Show one research session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := newHistoryClient(cfg).Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading history item: %w", err)
			}
			printItem(cmd.OutOrStdout(), *item)
			return nil
		},
	}
}

func newHistoryDeleteCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <history-id>",
		Short: "Delete one research session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := newHistoryClient(cfg).Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("deleting history item: %w", err)
			}
			if !ok {
				return fmt.Errorf("history item %s was not deleted", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newHistoryClearCommand(cfg *config.Config) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all research sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			ok, err := newHistoryClient(cfg).DeleteAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("clearing history: %w", err)
			}
			if !ok {
				return fmt.Errorf("history service did not clear history")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion of every session")

	return cmd
}

func newHistoryStatsCommand(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise research activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newHistoryClient(cfg)
			if _, err := c.List(cmd.Context(), limit, ""); err != nil {
				return fmt.Errorf("listing history: %w", err)
			}
			st := c.Stats(time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "Total sessions:  %d\nLast 7 days:     %d\n", st.Total, st.LastWeek)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", cfg.HistoryLimit, "Maximum number of sessions to fetch")

	return cmd
}

func newHealthCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the history service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !newHistoryClient(cfg).Health(cmd.Context()) {
				return fmt.Errorf("history service at %s is unavailable", cfg.APIURL)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History service at %s is healthy.\n", cfg.APIURL)
			return nil
		},
	}
}
