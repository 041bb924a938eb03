package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/wikibots/internal/config"
	"github.com/nao1215/wikibots/internal/history"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of tasks listed when --limit is not set.
const defaultHistoryLimit = 50

// ErrConflictingHistoryViews is returned when both --runs and --counts are given.
var ErrConflictingHistoryViews = errors.New("--runs and --counts are mutually exclusive")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List tasks and runs recorded by previous runs",
		Long: `History lists the pages processed by previous runs, newest first.
With --runs it lists the runs themselves, and with --counts it totals the
recorded tasks per outcome.

Every bot run records its tasks in a SQLite database under the XDG data
directory (~/.local/share/wikibots on Linux) unless --no-history was given.

Examples:
  # Show the last 50 tasks of any bot
  wikibots history

  # Show failures of the flickr bot
  wikibots history --bot flickr --outcome failed

  # Export the last 500 tasks as JSON
  wikibots history --limit 500 --json

  # Compare the last 10 runs of the pas bot
  wikibots history --runs --bot pas --limit 10

  # Outcome totals of every bot as Markdown
  wikibots history --counts --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("bot", "", "Only show tasks of this bot")
	cmd.Flags().String("outcome", "",
		"Only show tasks with this outcome (edited, dry-run, unchanged, skipped, cached, failed)")
	cmd.Flags().String("mid", "", "Only show tasks of this media info entity (e.g. M12345)")
	cmd.Flags().Uint64P("limit", "l", defaultHistoryLimit, "Maximum number of tasks or runs to list")
	cmd.Flags().Bool("runs", false, "List runs instead of tasks")
	cmd.Flags().Bool("counts", false, "Show the number of recorded tasks per outcome")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := buildFilter(cmd)
	if err != nil {
		return err
	}

	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}
	runsOut, err := cmd.Flags().GetBool("runs")
	if err != nil {
		return err
	}
	countsOut, err := cmd.Flags().GetBool("counts")
	if err != nil {
		return err
	}
	if runsOut && countsOut {
		return ErrConflictingHistoryViews
	}

	opts := history.DefaultOptions()
	opts.CreateIfNotExists = false

	ctx := cmd.Context()
	db, err := history.Open(ctx, dir, opts)
	switch {
	case errors.Is(err, history.ErrNotFound):
		// Nothing recorded yet.
	case err != nil:
		return fmt.Errorf("failed to open history database: %w", err)
	default:
		defer db.Close()
	}

	w := report.New(report.FormatFor(jsonOut, markdownOut), cmd.OutOrStdout())
	switch {
	case runsOut:
		var runs []history.Run
		if db != nil {
			if runs, err = db.Runs(ctx, filter.Bot, filter.Limit); err != nil {
				return err
			}
		}
		_, err = w.WriteRuns(runs)
	case countsOut:
		var counts map[model.Outcome]int
		if db != nil {
			if counts, err = db.Counts(ctx, filter.Bot); err != nil {
				return err
			}
		}
		_, err = w.WriteCounts(report.NewOutcomeCounts(filter.Bot, counts))
	default:
		var entries []history.Entry
		if db != nil {
			if entries, err = db.Recent(ctx, filter); err != nil {
				return err
			}
		}
		_, err = w.WriteHistory(entries)
	}
	return err
}

// buildFilter creates a history filter from the command flags.
func buildFilter(cmd *cobra.Command) (history.Filter, error) {
	var (
		f   history.Filter
		err error
	)

	f.Bot, err = cmd.Flags().GetString("bot")
	if err != nil {
		return f, err
	}
	if f.Bot != "" && !isBotName(f.Bot) {
		return f, fmt.Errorf("%w: %s", config.ErrUnknownBot, f.Bot)
	}

	outcome, err := cmd.Flags().GetString("outcome")
	if err != nil {
		return f, err
	}
	if outcome != "" {
		o, ok := model.ParseOutcome(outcome)
		if !ok {
			return f, fmt.Errorf("unknown outcome %q", outcome)
		}
		f.Outcome = o
	}

	f.MID, err = cmd.Flags().GetString("mid")
	if err != nil {
		return f, err
	}

	f.Limit, err = cmd.Flags().GetUint64("limit")
	if err != nil {
		return f, err
	}

	return f, nil
}
