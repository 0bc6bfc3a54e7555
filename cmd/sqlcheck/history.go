package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/sadopc/sqlcheck/internal/history"
	"github.com/sadopc/sqlcheck/internal/report"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit    int
		search   string
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded grading runs, or show one run's results",
		Long: `history lists the runs recorded with --record, newest first.
Given a run ID (or a unique prefix of one) it prints that run's per-file
results and the groups of submissions that format identically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := c.cfg.HistoryPath()
			if err != nil {
				return err
			}
			h, err := history.Open(ctx, path)
			if err != nil {
				return err
			}
			defer h.Close()

			out := cmd.OutOrStdout()
			switch {
			case clearAll:
				if err := h.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "History cleared.")
				return nil
			case len(args) == 1:
				return showRun(ctx, out, h, args[0])
			}

			var runs []history.Run
			if search != "" {
				runs, err = h.Search(ctx, history.ContainsPattern(search), limit)
			} else {
				runs, err = h.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}
			runsTable(out, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only runs whose directory or files contain this text")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every recorded run")
	return cmd
}

// shortID is the prefix of a run ID shown in listings; history accepts it
// back as a run argument.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func runsTable(w io.Writer, runs []history.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"run", "when", "target", "files", "failed", "mean"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	for _, r := range runs {
		t.AppendRow(table.Row{
			shortID(r.ID),
			history.RelativeTime(r.StartedAt),
			r.Target,
			r.Files,
			r.Failed,
			strconv.FormatFloat(r.MeanScore, 'f', 2, 64),
		})
	}
	t.Render()
}

func showRun(ctx context.Context, w io.Writer, h *history.History, prefix string) error {
	id, err := h.Resolve(ctx, prefix)
	if err != nil {
		return err
	}
	run, err := h.Get(ctx, id)
	if err != nil {
		return err
	}
	results, err := h.Results(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %s, %s\n", run.ID, history.RelativeTime(run.StartedAt))
	fmt.Fprintf(w, "Target: %s\nAnswer: %s\n\n", run.Target, run.Answer)

	entries := make([]report.Entry, len(results))
	for i, r := range results {
		entries[i] = resultEntry(r)
	}
	report.SummaryTable(w, entries)

	dups, err := h.Duplicates(ctx, id)
	if err != nil {
		return err
	}
	if len(dups) > 0 {
		fmt.Fprintln(w, "\nIdentical after formatting:")
		for _, group := range dups {
			fmt.Fprintf(w, "  %s\n", strings.Join(group, ", "))
		}
	}
	return nil
}

// resultEntry turns a stored result back into a summary table row.
func resultEntry(r history.FileResult) report.Entry {
	e := report.Entry{Path: r.Path, Score: r.Score}
	e.Summary.Unchanged = r.Unchanged
	e.Summary.Corrected = r.Corrected
	e.Summary.Missing = r.Missing
	e.Summary.Extra = r.Extra
	if r.Error != "" {
		e.Err = storedError(r.Error)
	}
	return e
}

type storedError string

func (e storedError) Error() string { return string(e) }
