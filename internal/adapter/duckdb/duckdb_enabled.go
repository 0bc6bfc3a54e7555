//go:build duckdb

package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/sadopc/sqlcheck/internal/adapter"
	"github.com/sadopc/sqlcheck/internal/schema"
)

func init() {
	adapter.Register(&duckdbAdapter{})
}

type duckdbAdapter struct{}

func (a *duckdbAdapter) Name() string     { return "duckdb" }
func (a *duckdbAdapter) DefaultPort() int { return 0 }

func (a *duckdbAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	// Strip the "duckdb://" prefix if present.
	dsn = strings.TrimPrefix(dsn, "duckdb://")
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}

	return &duckdbConn{db: db, dsn: dsn}, nil
}

type duckdbConn struct {
	db  *sql.DB
	dsn string
}

func (c *duckdbConn) AdapterName() string  { return "duckdb" }
func (c *duckdbConn) DatabaseName() string { return c.dsn }

func (c *duckdbConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *duckdbConn) Close() error {
	return c.db.Close()
}

// Objects reads the stored CREATE statements from DuckDB's catalog
// functions for the current schema.
func (c *duckdbConn) Objects(ctx context.Context) ([]schema.Object, error) {
	queries := []struct {
		typ   schema.ObjectType
		query string
	}{
		{schema.TypeTable,
			`SELECT table_name, table_name, sql FROM duckdb_tables()
			 WHERE NOT internal AND schema_name = current_schema()
			 ORDER BY table_name`},
		{schema.TypeIndex,
			`SELECT index_name, table_name, sql FROM duckdb_indexes()
			 WHERE schema_name = current_schema() AND sql IS NOT NULL
			 ORDER BY index_name`},
		{schema.TypeView,
			`SELECT view_name, view_name, sql FROM duckdb_views()
			 WHERE NOT internal AND schema_name = current_schema()
			 ORDER BY view_name`},
	}

	var objs []schema.Object
	for _, q := range queries {
		rows, err := c.db.QueryContext(ctx, q.query)
		if err != nil {
			return nil, fmt.Errorf("duckdb: %s list: %w", q.typ, err)
		}
		for rows.Next() {
			o := schema.Object{Type: q.typ}
			if err := rows.Scan(&o.Name, &o.Table, &o.SQL); err != nil {
				rows.Close()
				return nil, fmt.Errorf("duckdb: %s scan: %w", q.typ, err)
			}
			o.SQL = strings.TrimSuffix(strings.TrimSpace(o.SQL), ";")
			objs = append(objs, o)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("duckdb: %s list: %w", q.typ, err)
		}
	}
	return objs, nil
}

func (c *duckdbConn) Rows(ctx context.Context, table string, fn func(values []string) error) error {
	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+adapter.QuoteIdent(table))
	if err != nil {
		return fmt.Errorf("duckdb: rows %s: %w", table, err)
	}
	defer rows.Close()
	if err := adapter.ScanLiterals(rows, fn); err != nil {
		return fmt.Errorf("duckdb: rows %s: %w", table, err)
	}
	return nil
}
