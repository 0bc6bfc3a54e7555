package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sadopc/sqlcheck/internal/adapter"
	"github.com/sadopc/sqlcheck/internal/schema"

	_ "modernc.org/sqlite"
)

func init() {
	adapter.Register(&sqliteAdapter{})
}

// sqliteAdapter implements adapter.Adapter for SQLite databases.
type sqliteAdapter struct{}

func (a *sqliteAdapter) Name() string     { return "sqlite" }
func (a *sqliteAdapter) DefaultPort() int { return 0 }

func (a *sqliteAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	dsn = normalizeDSN(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if dsn == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	dbName := dsn
	if dsn != ":memory:" {
		dbName = filepath.Base(dsn)
	}

	return &sqliteConn{db: db, dbName: dbName}, nil
}

// normalizeDSN strips common SQLite URI prefixes.
func normalizeDSN(dsn string) string {
	if strings.HasPrefix(dsn, "sqlite://") {
		return strings.TrimPrefix(dsn, "sqlite://")
	}
	if strings.HasPrefix(dsn, "file:") {
		return strings.TrimPrefix(dsn, "file:")
	}
	return dsn
}

// sqliteConn implements adapter.Connection.
type sqliteConn struct {
	db     *sql.DB
	dbName string
}

func (c *sqliteConn) AdapterName() string  { return "sqlite" }
func (c *sqliteConn) DatabaseName() string { return c.dbName }

func (c *sqliteConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqliteConn) Close() error {
	return c.db.Close()
}

// Objects reads the stored CREATE statements from sqlite_master. Internal
// sqlite_* tables are left out.
func (c *sqliteConn) Objects(ctx context.Context) ([]schema.Object, error) {
	tables, err := c.master(ctx,
		`SELECT type, name, tbl_name, sql FROM sqlite_master
		 WHERE sql NOT NULL AND type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite tables: %w", err)
	}
	others, err := c.master(ctx,
		`SELECT type, name, tbl_name, sql FROM sqlite_master
		 WHERE sql NOT NULL AND type IN ('index', 'trigger', 'view')`)
	if err != nil {
		return nil, fmt.Errorf("sqlite objects: %w", err)
	}
	return append(tables, others...), nil
}

func (c *sqliteConn) master(ctx context.Context, query string) ([]schema.Object, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objs []schema.Object
	for rows.Next() {
		var o schema.Object
		var typ string
		if err := rows.Scan(&typ, &o.Name, &o.Table, &o.SQL); err != nil {
			return nil, err
		}
		o.Type = schema.ObjectType(typ)
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

// columns returns the column names of table using PRAGMA table_info.
func (c *sqliteConn) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", adapter.QuoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Rows lets SQLite render each value with quote(), so the literals match
// what the database itself would print.
func (c *sqliteConn) Rows(ctx context.Context, table string, fn func(values []string) error) error {
	cols, err := c.columns(ctx, table)
	if err != nil {
		return fmt.Errorf("sqlite columns %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil
	}
	exprs := make([]string, len(cols))
	for i, col := range cols {
		exprs[i] = "quote(" + adapter.QuoteIdent(col) + ")"
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), adapter.QuoteIdent(table))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("sqlite rows %s: %w", table, err)
	}
	defer rows.Close()

	vals := make([]string, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("sqlite rows scan: %w", err)
		}
		if err := fn(append([]string(nil), vals...)); err != nil {
			return err
		}
	}
	return rows.Err()
}
