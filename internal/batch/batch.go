// Package batch grades or formats every SQL file in a directory with a
// fixed-size pool of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/sqlcheck/internal/grade"
	"github.com/sadopc/sqlcheck/internal/logging"
	"github.com/sadopc/sqlcheck/internal/report"
	"github.com/sadopc/sqlcheck/internal/sqlfmt"
	"github.com/sadopc/sqlcheck/internal/textutil"
)

// DefaultExt is the extension of report files.
const DefaultExt = ".diff"

// ErrNotDir is returned when the batch target is not a directory.
var ErrNotDir = errors.New("not a directory")

// Options configures a grading batch.
type Options struct {
	Grader  *grade.Grader
	Ext     string
	Workers int
	Format  string
	Report  report.Options
	Logger  *zap.Logger
	// DryRun grades without writing report files.
	DryRun bool
	// Progress, if set, is called with each input path once a worker
	// has taken it, in path order.
	Progress func(path string)
}

// Result is the outcome for one input file.
type Result struct {
	Path        string
	Output      string
	Report      *grade.Report
	Fingerprint uint64
	Err         error
	// Duration is the time spent on this file alone.
	Duration time.Duration
}

// Entry summarizes r for report tables.
func (r Result) Entry() report.Entry {
	return report.NewEntry(r.Path, r.Report, r.Err)
}

// Entries summarizes every result.
func Entries(results []Result) []report.Entry {
	out := make([]report.Entry, len(results))
	for i, r := range results {
		out[i] = r.Entry()
	}
	return out
}

// Inputs returns the *.sql files directly inside dir, sorted.
func Inputs(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDir)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	slices.Sort(paths)
	return paths, nil
}

// OutputPath swaps path's extension for ext.
func OutputPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Grade grades every *.sql file in dir against the answer file and writes
// one report per input next to it. A file that fails is logged and
// recorded in its Result; the rest of the batch carries on. Results are
// sorted by path. The returned error is set only when the batch could not
// run at all or ctx was cancelled.
func Grade(ctx context.Context, dir, answerPath string, opts Options) ([]Result, error) {
	logger := logging.OrNop(opts.Logger)
	if opts.Grader == nil {
		opts.Grader = grade.NewGrader(sqlfmt.New(sqlfmt.DefaultOptions()))
	}
	if opts.Ext == "" {
		opts.Ext = DefaultExt
	}

	inputs, err := Inputs(dir)
	if err != nil {
		return nil, err
	}
	answer, err := opts.Grader.AnswerFile(answerPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("grading batch",
		zap.String("dir", dir),
		zap.Int("files", len(inputs)),
		zap.Int("workers", opts.Workers))

	results, err := run(ctx, inputs, opts.Workers, opts.Progress, func(path string) Result {
		return gradeOne(path, answer, opts, logger)
	})
	return results, err
}

func gradeOne(path string, answer []string, opts Options, logger *zap.Logger) Result {
	res := Result{Path: path, Output: OutputPath(path, opts.Ext)}
	rep, err := opts.Grader.GradeFile(path, answer)
	if err != nil {
		res.Err = err
		logger.Error("grade failed", zap.String("path", path), zap.Error(err))
		return res
	}
	res.Report = rep
	res.Fingerprint = grade.Fingerprint(rep.TargetLines())
	if opts.DryRun {
		res.Output = ""
		return res
	}

	out, err := report.Render(path, rep, opts.Format, opts.Report)
	if err == nil {
		err = textutil.WriteFileAtomic(res.Output, out, 0o644)
	}
	if err != nil {
		res.Err = fmt.Errorf("write report: %w", err)
		logger.Error("write failed", zap.String("path", res.Output), zap.Error(err))
		return res
	}
	logger.Debug("graded",
		zap.String("path", path),
		zap.Float64("score", rep.Score()),
		zap.Uint64("fingerprint", res.Fingerprint))
	return res
}

// BackupExt is appended in place of ".sql" to the original of a file
// rewritten by Format.
const BackupExt = ".sql.bak"

// Format rewrites every *.sql file in dir in canonical form, keeping the
// original as *.sql.bak. Failed files are logged and left untouched.
func Format(ctx context.Context, dir string, f *sqlfmt.Formatter, workers int, progress func(string), logger *zap.Logger) ([]Result, error) {
	logger = logging.OrNop(logger)
	if f == nil {
		f = sqlfmt.New(sqlfmt.DefaultOptions())
	}
	inputs, err := Inputs(dir)
	if err != nil {
		return nil, err
	}
	return run(ctx, inputs, workers, progress, func(path string) Result {
		res := Result{Path: path, Output: path}
		if err := formatOne(path, f); err != nil {
			res.Err = err
			logger.Error("format failed", zap.String("path", path), zap.Error(err))
		}
		return res
	})
}

// writeFile is swapped out in tests.
var writeFile = textutil.WriteFileAtomic

// formatOne writes the backup copy first and replaces path last, so a
// failure at any step leaves path as it was.
func formatOne(path string, f *sqlfmt.Formatter) error {
	orig, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := textutil.DecodeUTF8(orig)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	out := []byte(textutil.JoinLines(f.Format(text)))

	backup := OutputPath(path, BackupExt)
	if err := writeFile(backup, orig, 0o644); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if err := writeFile(path, out, 0o644); err != nil {
		_ = os.Remove(backup)
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// run feeds paths to a fixed pool of workers and collects one result per
// dispatched path, sorted by path. Cancelling ctx stops dispatching; files
// already handed out still finish.
func run(ctx context.Context, paths []string, workers int, progress func(string), work func(string) Result) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, max(len(paths), 1))

	tasks := make(chan string)
	out := make(chan Result, len(paths))

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for p := range tasks {
				start := time.Now()
				r := work(p)
				r.Duration = time.Since(start)
				out <- r
			}
			return nil
		})
	}

	var cancelled error
dispatch:
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case tasks <- p:
			if progress != nil {
				progress(p)
			}
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		}
	}
	close(tasks)
	_ = g.Wait()
	close(out)

	results := make([]Result, 0, len(paths))
	for r := range out {
		results = append(results, r)
	}
	slices.SortFunc(results, func(a, b Result) int { return strings.Compare(a.Path, b.Path) })
	return results, cancelled
}

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
