package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tansode/sitemd/internal/config"
	"github.com/tansode/sitemd/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded crawl sessions",
		Long: `History lists crawl sessions previously recorded with crawl --save.

Only session and page metadata is stored; the consolidated documents
live in whatever files the original crawls wrote.

Examples:
  # List the last 20 sessions
  sitemd history

  # List sessions for one seed
  sitemd history --seed https://docs.example.com

  # Show the page outcomes of session 3
  sitemd history --pages 3`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of sessions to list (0 lists all)")
	cmd.Flags().String("seed", "",
		"List only sessions for this seed URL")
	cmd.Flags().Int64("pages", 0,
		"Show the page outcomes of the given session ID")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	db, err := database.Open(config.XDGDataDir(), database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no crawl history yet (run crawl --save first): %w", err)
	}
	defer db.Close()

	sessionID, err := cmd.Flags().GetInt64("pages")
	if err != nil {
		return err
	}
	if sessionID > 0 {
		return printSessionPages(ctx, cmd, db, sessionID)
	}

	seed, err := cmd.Flags().GetString("seed")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	var sessions []database.SessionRecord
	if seed != "" {
		sessions, err = db.SessionsForSeed(ctx, seed)
	} else {
		sessions, err = db.RecentSessions(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded sessions.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tSTARTED\tPAGES\tERRORS\tSTATUS")
	for _, s := range sessions {
		status := "ok"
		if s.SessionError != "" {
			status = "aborted"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\t%d\t%s\n",
			s.ID,
			s.Seed,
			s.StartedAt.Format("2006-01-02 15:04"),
			s.Stats.PagesCrawled,
			s.Stats.PagesDiscovered,
			s.Stats.ErrorsEncountered,
			status,
		)
	}
	return w.Flush()
}

// printSessionPages lists the page outcomes of one session.
func printSessionPages(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, sessionID int64) error {
	pages, err := db.PagesForSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}
	if len(pages) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No pages recorded for session %d.\n", sessionID)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tSTATUS\tBYTES\tERROR")
	for _, p := range pages {
		detail := "-"
		if p.ErrKind != "" {
			detail = p.ErrKind + ": " + p.ErrMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.URL, p.Status, p.ContentBytes, detail)
	}
	return w.Flush()
}
