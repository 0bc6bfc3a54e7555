// Package dump renders a database's schema and rows as an SQL script that
// recreates it, in the layout of SQLite's .dump command.
package dump

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sadopc/sqlcheck/internal/adapter"
	"github.com/sadopc/sqlcheck/internal/logging"
	"github.com/sadopc/sqlcheck/internal/schema"
	"github.com/sadopc/sqlcheck/internal/textutil"

	_ "github.com/sadopc/sqlcheck/internal/adapter/sqlite"
)

// skipMarker drops SQLite's AUTOINCREMENT bookkeeping from every script.
const skipMarker = "sqlite_sequence"

// Lines returns the dump script of conn, one statement per line.
func Lines(ctx context.Context, conn adapter.Connection) ([]string, error) {
	objs, err := conn.Objects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	lines := []string{"BEGIN TRANSACTION;"}
	emit := func(s string) {
		if !strings.Contains(s, skipMarker) {
			lines = append(lines, s)
		}
	}
	for _, t := range schema.Tables(objs) {
		emit(t.SQL + ";")
		prefix := "INSERT INTO " + adapter.QuoteIdentFor(conn, t.Name) + " VALUES("
		err := conn.Rows(ctx, t.Name, func(values []string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			emit(prefix + strings.Join(values, ",") + ");")
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("dump %s: %w", t.Name, err)
		}
	}
	for _, o := range schema.Others(objs) {
		emit(o.SQL + ";")
	}
	lines = append(lines, "COMMIT;")
	return lines, nil
}

// Database connects through the named adapter and dumps the database.
func Database(ctx context.Context, adapterName, dsn string) ([]string, error) {
	a, err := adapter.Get(adapterName)
	if err != nil {
		return nil, err
	}
	conn, err := a.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return Lines(ctx, conn)
}

// File dumps the SQLite database at path. A missing file is an error rather
// than a new empty database.
func File(ctx context.Context, path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return Database(ctx, "sqlite", path)
}

// Dir dumps every *.db file in dir to a sibling *.sql file and returns the
// databases dumped, in name order. A file that fails is logged and skipped.
func Dir(ctx context.Context, dir string, logger *zap.Logger) ([]string, error) {
	logger = logging.OrNop(logger)
	paths, err := filepath.Glob(filepath.Join(dir, "*.db"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}

	var done []string
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		lines, err := File(ctx, p)
		if err != nil {
			logger.Error("dump failed", zap.String("path", p), zap.Error(err))
			continue
		}
		out := strings.TrimSuffix(p, filepath.Ext(p)) + ".sql"
		if err := textutil.WriteFileAtomic(out, []byte(textutil.JoinLines(lines)), 0o644); err != nil {
			logger.Error("write dump", zap.String("path", out), zap.Error(err))
			continue
		}
		logger.Debug("dumped", zap.String("db", p), zap.String("sql", out))
		done = append(done, p)
	}
	return done, nil
}
