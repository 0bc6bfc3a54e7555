package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/sqlcheck/internal/audit"
	"github.com/sadopc/sqlcheck/internal/batch"
	"github.com/sadopc/sqlcheck/internal/grade"
	"github.com/sadopc/sqlcheck/internal/history"
	"github.com/sadopc/sqlcheck/internal/report"
)

// addReportFlags registers the flags that shape a report. Their names
// match the config keys they override.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("format", "", "Report format: text or json")
	f.String("color", "", "Color output: auto, always or never")
	f.Bool("show-expected", false, "Show the answer line after each corrected line")
	f.Bool("hints", false, "Mark the characters that differ under each corrected line")
}

// addGradeFlags registers the report flags plus those of a grading run.
func addGradeFlags(cmd *cobra.Command) {
	addReportFlags(cmd)
	f := cmd.Flags()
	f.String("ext", "", "Extension of report files in directory mode")
	f.Bool("record", false, "Store the run in the history database")
	f.String("audit", "", "Append a JSON Lines audit record per graded file")
	f.Bool("summary", false, "Print a score table to stderr after a directory run")
}

func newCheckCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <target> <answer>",
		Short: "Grade a submission file or a directory of submissions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args[0], args[1])
		},
	}
	addGradeFlags(cmd)
	return cmd
}

func (c *cli) runCheck(cmd *cobra.Command, target, answer string) error {
	info, err := mustExist(target)
	if err != nil {
		return err
	}
	if _, err := mustExist(answer); err != nil {
		return err
	}
	g, err := c.grader()
	if err != nil {
		return err
	}

	auditLog := c.openAudit()
	defer auditLog.Close()

	if !info.IsDir() {
		return c.checkFile(cmd.OutOrStdout(), g, auditLog, target, answer)
	}
	summary, _ := cmd.Flags().GetBool("summary")
	return c.checkDir(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), g, auditLog, target, answer, summary)
}

// checkFile grades one submission and writes its report to out.
func (c *cli) checkFile(out io.Writer, g *grade.Grader, auditLog *audit.Logger, target, answer string) error {
	start := time.Now()
	lines, err := g.AnswerFile(answer)
	if err != nil {
		return err
	}
	rep, err := g.GradeFile(target, lines)
	if err != nil {
		auditLog.Log(audit.GradeEntry("", target, answer, nil, 0, time.Since(start), err))
		return err
	}
	auditLog.Log(audit.GradeEntry("", target, answer, rep, grade.Fingerprint(rep.TargetLines()), time.Since(start), nil))
	c.logger.Debug("graded", zap.String("path", target), zap.Float64("score", rep.Score()))
	return report.Write(out, target, rep, c.cfg.Format, c.reportOptions(out))
}

// checkDir grades every submission in dir, writing one report file per
// input and printing each input path to out as it is taken up. Per-file
// failures go to errOut and fail the command once the batch is done.
func (c *cli) checkDir(ctx context.Context, out, errOut io.Writer, g *grade.Grader, auditLog *audit.Logger, dir, answer string, summary bool) error {
	runID := history.NewRunID()
	results, err := batch.Grade(ctx, dir, answer, batch.Options{
		Grader:  g,
		Ext:     c.cfg.Ext,
		Workers: c.cfg.Workers,
		Format:  c.cfg.Format,
		Report: report.Options{
			ShowExpected: c.cfg.ShowExpected,
			Hints:        c.cfg.Hints,
		},
		Logger:   c.logger,
		Progress: func(path string) { fmt.Fprintln(out, path) },
	})
	if results == nil && err != nil {
		return err
	}
	for _, r := range results {
		auditLog.Log(audit.GradeEntry(runID, r.Path, answer, r.Report, r.Fingerprint, r.Duration, r.Err))
		if r.Err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", r.Path, r.Err)
		}
	}
	if c.cfg.Record {
		c.record(ctx, runID, dir, answer, results)
	}
	if summary {
		report.SummaryTable(errOut, batch.Entries(results))
	}
	if err != nil {
		return err
	}
	if n := batch.Failed(results); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(results))
	}
	return nil
}

// record stores a directory run in the history database. Failing to record
// is logged, not fatal: the reports are already written.
func (c *cli) record(ctx context.Context, runID, dir, answer string, results []batch.Result) {
	path, err := c.cfg.HistoryPath()
	if err != nil {
		c.logger.Warn("history unavailable", zap.Error(err))
		return
	}
	h, err := history.Open(ctx, path)
	if err != nil {
		c.logger.Warn("could not open history", zap.String("path", path), zap.Error(err))
		return
	}
	defer h.Close()

	rows := make([]history.FileResult, len(results))
	for i, r := range results {
		rows[i] = history.NewFileResult(r.Path, r.Report, r.Fingerprint, r.Err)
	}
	if _, err := h.Record(ctx, history.Run{ID: runID, Target: dir, Answer: answer}, rows); err != nil {
		c.logger.Warn("could not record run", zap.Error(err))
		return
	}
	c.logger.Debug("run recorded", zap.String("id", runID), zap.Int("files", len(rows)))
}
