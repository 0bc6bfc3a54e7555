package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/sadopc/sqlcheck/internal/adapter"
	"github.com/sadopc/sqlcheck/internal/schema"
)

func init() {
	adapter.Register(&postgresAdapter{})
}

// postgresAdapter implements adapter.Adapter for PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string     { return "postgres" }
func (a *postgresAdapter) DefaultPort() int { return 5432 }

func (a *postgresAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return &pgConn{pool: pool, db: stdlib.OpenDBFromPool(pool), dbName: extractDBName(dsn)}, nil
}

// extractDBName parses the database name from the DSN.
func extractDBName(dsn string) string {
	if dsn == "" {
		return ""
	}
	// Try URL format first (postgres://... or postgresql://...)
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	// Fallback: keyword=value format (e.g. "host=localhost dbname=myapp")
	for _, part := range strings.Fields(dsn) {
		if strings.HasPrefix(part, "dbname=") {
			return strings.TrimPrefix(part, "dbname=")
		}
	}
	return ""
}

// pgConn implements adapter.Connection for PostgreSQL. Only the current
// schema is dumped. Queries go through db, a database/sql view of pool.
type pgConn struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	dbName string
}

func (c *pgConn) DatabaseName() string { return c.dbName }
func (c *pgConn) AdapterName() string  { return "postgres" }

func (c *pgConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *pgConn) Close() error {
	err := c.db.Close()
	if c.pool != nil {
		c.pool.Close()
	}
	return err
}

// Objects rebuilds CREATE TABLE statements from the catalog, since
// PostgreSQL keeps no source text for them, and reads indexes, triggers and
// views through the pg_get_*def functions.
func (c *pgConn) Objects(ctx context.Context) ([]schema.Object, error) {
	names, err := c.queryStrings(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}

	var objs []schema.Object
	for _, name := range names {
		cols, err := c.columns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("columns %s: %w", name, err)
		}
		cons, err := c.queryStrings(ctx,
			`SELECT 'CONSTRAINT ' || quote_ident(conname) || ' ' || pg_get_constraintdef(oid)
			 FROM pg_constraint WHERE conrelid = $1::regclass
			 ORDER BY CASE contype WHEN 'p' THEN 0 WHEN 'u' THEN 1 WHEN 'c' THEN 2 ELSE 3 END, conname`,
			adapter.QuoteIdent(name))
		if err != nil {
			return nil, fmt.Errorf("constraints %s: %w", name, err)
		}
		objs = append(objs, schema.Object{
			Type:  schema.TypeTable,
			Name:  name,
			Table: name,
			SQL:   createTable(name, cols, cons),
		})
	}

	others := []struct {
		typ   schema.ObjectType
		query string
	}{
		{schema.TypeIndex,
			`SELECT i.indexname, i.tablename, i.indexdef FROM pg_indexes i
			 WHERE i.schemaname = current_schema()
			   AND NOT EXISTS (SELECT 1 FROM pg_constraint c WHERE c.conname = i.indexname)
			 ORDER BY i.indexname`},
		{schema.TypeTrigger,
			`SELECT t.tgname, c.relname, pg_get_triggerdef(t.oid) FROM pg_trigger t
			 JOIN pg_class c ON c.oid = t.tgrelid
			 JOIN pg_namespace n ON n.oid = c.relnamespace
			 WHERE NOT t.tgisinternal AND n.nspname = current_schema()
			 ORDER BY t.tgname`},
		{schema.TypeView,
			`SELECT viewname, viewname, 'CREATE VIEW ' || quote_ident(viewname) || ' AS ' || definition
			 FROM pg_views WHERE schemaname = current_schema()
			 ORDER BY viewname`},
	}
	for _, o := range others {
		list, err := c.definitions(ctx, o.typ, o.query)
		if err != nil {
			return nil, err
		}
		objs = append(objs, list...)
	}
	return objs, nil
}

// definitions reads (name, table, sql) rows into objects of type typ.
func (c *pgConn) definitions(ctx context.Context, typ schema.ObjectType, query string) ([]schema.Object, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s list: %w", typ, err)
	}
	defer rows.Close()

	var objs []schema.Object
	for rows.Next() {
		obj := schema.Object{Type: typ}
		if err := rows.Scan(&obj.Name, &obj.Table, &obj.SQL); err != nil {
			return nil, fmt.Errorf("%s scan: %w", typ, err)
		}
		obj.SQL = strings.TrimSuffix(strings.TrimSpace(obj.SQL), ";")
		objs = append(objs, obj)
	}
	return objs, rows.Err()
}

func (c *pgConn) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *pgConn) columns(ctx context.Context, table string) ([]schema.Column, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT a.attname, format_type(a.atttypid, a.atttypmod), NOT a.attnotnull,
		        COALESCE(pg_get_expr(d.adbin, d.adrelid), '')
		 FROM pg_attribute a
		 LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		 WHERE a.attrelid = $1::regclass AND a.attnum > 0 AND NOT a.attisdropped
		 ORDER BY a.attnum`,
		adapter.QuoteIdent(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var col schema.Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// createTable renders a single-line CREATE TABLE statement.
func createTable(name string, cols []schema.Column, constraints []string) string {
	defs := make([]string, 0, len(cols)+len(constraints))
	for _, col := range cols {
		def := adapter.QuoteIdent(col.Name) + " " + col.Type
		if !col.Nullable {
			def += " NOT NULL"
		}
		if col.Default != "" {
			def += " DEFAULT " + col.Default
		}
		defs = append(defs, def)
	}
	defs = append(defs, constraints...)
	return fmt.Sprintf("CREATE TABLE %s (%s)", adapter.QuoteIdent(name), strings.Join(defs, ", "))
}

func (c *pgConn) Rows(ctx context.Context, table string, fn func(values []string) error) error {
	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+adapter.QuoteIdent(table))
	if err != nil {
		return fmt.Errorf("rows %s: %w", table, err)
	}
	defer rows.Close()
	if err := adapter.ScanLiteralsWith(rows, literal, fn); err != nil {
		return fmt.Errorf("rows %s: %w", table, err)
	}
	return nil
}

// literal prints numeric values bare. The stdlib driver hands them back as
// their decimal text.
func literal(dbType string, v any) string {
	if s, ok := v.(string); ok && strings.EqualFold(dbType, "NUMERIC") {
		return s
	}
	return adapter.Literal(v)
}
