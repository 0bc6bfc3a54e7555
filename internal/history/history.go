// Package history keeps a SQLite log of grading runs and their per-file
// results.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/sadopc/sqlcheck/internal/grade"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run is one grading batch.
type Run struct {
	ID        string    `db:"id"`
	StartedAt time.Time `db:"started_at"`
	Target    string    `db:"target"`
	Answer    string    `db:"answer"`

	// Aggregates, filled in by Recent and Search.
	Files     int     `db:"files"`
	Failed    int     `db:"failed"`
	MeanScore float64 `db:"mean_score"`
}

// FileResult is the outcome for one submission within a run.
type FileResult struct {
	ID          int64   `db:"id"`
	RunID       string  `db:"run_id"`
	Path        string  `db:"path"`
	Unchanged   int     `db:"unchanged"`
	Corrected   int     `db:"corrected"`
	Missing     int     `db:"missing"`
	Extra       int     `db:"extra"`
	Score       float64 `db:"score"`
	Fingerprint string  `db:"fingerprint"`
	Error       string  `db:"error"`
}

// NewFileResult builds the row for one graded file. rep may be nil when
// grading failed with err.
func NewFileResult(path string, rep *grade.Report, fingerprint uint64, err error) FileResult {
	r := FileResult{Path: path}
	if rep != nil {
		r.Unchanged = rep.Summary.Unchanged
		r.Corrected = rep.Summary.Corrected
		r.Missing = rep.Summary.Missing
		r.Extra = rep.Summary.Extra
		r.Score = rep.Score()
		r.Fingerprint = grade.FormatFingerprint(fingerprint)
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// History provides SQLite-backed storage of grading runs.
type History struct {
	db *sqlx.DB
}

// Open opens (or creates) the history database at path and migrates it to
// the latest schema. ":memory:" gives a private in-memory store.
func Open(ctx context.Context, path string) (*History, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("history: create dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	// A single connection keeps ":memory:" on one database and serializes
	// writers on a file.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &History{db: db}, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("history: migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db.DB, sub)
	if err != nil {
		return fmt.Errorf("history: migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Version reports the applied schema version.
func (h *History) Version(ctx context.Context) (int64, error) {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return 0, err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, h.db.DB, sub)
	if err != nil {
		return 0, fmt.Errorf("history version: %w", err)
	}
	return p.GetDBVersion(ctx)
}

const (
	insertRun = `INSERT INTO runs (id, started_at, target, answer)
		VALUES (:id, :started_at, :target, :answer)`

	insertResult = `INSERT INTO results
		(run_id, path, unchanged, corrected, missing, extra, score, fingerprint, error)
		VALUES (:run_id, :path, :unchanged, :corrected, :missing, :extra, :score, :fingerprint, :error)`

	selectRuns = `SELECT r.id, r.started_at, r.target, r.answer,
		COUNT(x.id) AS files,
		COALESCE(SUM(CASE WHEN x.error <> '' THEN 1 ELSE 0 END), 0) AS failed,
		COALESCE(AVG(CASE WHEN x.error = '' THEN x.score END), 0) AS mean_score
		FROM runs r LEFT JOIN results x ON x.run_id = r.id`
)

// Record stores a run together with its results in one transaction. An
// empty run ID is filled with NewRunID and a zero StartedAt with the current
// time. It returns the stored run ID.
func (h *History) Record(ctx context.Context, run Run, results []FileResult) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()

	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("history record: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertRun, run); err != nil {
		return "", fmt.Errorf("history record run: %w", err)
	}
	for _, r := range results {
		r.RunID = run.ID
		if _, err := tx.NamedExecContext(ctx, insertResult, r); err != nil {
			return "", fmt.Errorf("history record %s: %w", r.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("history record: %w", err)
	}
	return run.ID, nil
}

// Recent returns the most recent runs, newest first, limited to limit rows.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	err := h.db.SelectContext(ctx, &runs,
		selectRuns+` GROUP BY r.id ORDER BY r.started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	return runs, nil
}

// Search returns runs whose target directory or any result path matches
// the given pattern using SQL LIKE, newest first. A backslash escapes the
// next character of pattern.
func (h *History) Search(ctx context.Context, pattern string, limit int) ([]Run, error) {
	var runs []Run
	err := h.db.SelectContext(ctx, &runs,
		selectRuns+` WHERE r.target LIKE ? ESCAPE '\' OR r.id IN (SELECT run_id FROM results WHERE path LIKE ? ESCAPE '\')
		GROUP BY r.id ORDER BY r.started_at DESC LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("history search: %w", err)
	}
	return runs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns the Search pattern matching any text that
// contains s literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Lookup errors.
var (
	ErrNotFound  = errors.New("run not found")
	ErrAmbiguous = errors.New("ambiguous run id")
)

// Resolve expands a run ID prefix, as shown in shortened listings, to the
// full ID.
func (h *History) Resolve(ctx context.Context, prefix string) (string, error) {
	var ids []string
	err := h.db.SelectContext(ctx, &ids,
		`SELECT id FROM runs WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("history resolve: %w", err)
	}
	switch {
	case prefix == "" || len(ids) == 0:
		return "", fmt.Errorf("%s: %w", prefix, ErrNotFound)
	case len(ids) > 1 && ids[0] != prefix:
		return "", fmt.Errorf("%s: %w", prefix, ErrAmbiguous)
	}
	return ids[0], nil
}

// Get returns the run with the given ID.
func (h *History) Get(ctx context.Context, id string) (Run, error) {
	var run Run
	err := h.db.GetContext(ctx, &run, selectRuns+` WHERE r.id = ? GROUP BY r.id`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return Run{}, fmt.Errorf("history get: %w", err)
	}
	return run, nil
}

// Results returns the results of one run, ordered by path.
func (h *History) Results(ctx context.Context, runID string) ([]FileResult, error) {
	var out []FileResult
	err := h.db.SelectContext(ctx, &out,
		`SELECT id, run_id, path, unchanged, corrected, missing, extra, score, fingerprint, error
		 FROM results WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("history results: %w", err)
	}
	return out, nil
}

// Duplicates groups the paths of a run whose formatted submissions share a
// fingerprint. Only groups of two or more are returned, ordered by
// fingerprint, with paths sorted inside each group.
func (h *History) Duplicates(ctx context.Context, runID string) ([][]string, error) {
	var rows []FileResult
	err := h.db.SelectContext(ctx, &rows,
		`SELECT path, fingerprint FROM results
		 WHERE run_id = ? AND error = '' AND fingerprint IN (
			SELECT fingerprint FROM results
			WHERE run_id = ? AND error = ''
			GROUP BY fingerprint HAVING COUNT(*) > 1)
		 ORDER BY fingerprint, path`, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("history duplicates: %w", err)
	}

	var groups [][]string
	prev := ""
	for _, r := range rows {
		if len(groups) == 0 || r.Fingerprint != prev {
			groups = append(groups, nil)
			prev = r.Fingerprint
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], r.Path)
	}
	return groups, nil
}

// Clear deletes all runs and results.
func (h *History) Clear(ctx context.Context) error {
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	defer tx.Rollback()
	for _, q := range []string{`DELETE FROM results`, `DELETE FROM runs`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("history clear: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// RelativeTime formats a timestamp as a human-readable relative time.
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
