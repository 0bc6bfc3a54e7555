//go:build oracle

package oracle

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	_ "github.com/godror/godror"
	"github.com/jmoiron/sqlx"

	"github.com/sadopc/sqlcheck/internal/adapter"
	"github.com/sadopc/sqlcheck/internal/schema"
)

const driverName = "godror"

func init() {
	adapter.Register(&oracleAdapter{})
}

type oracleAdapter struct{}

func (a *oracleAdapter) Name() string     { return "oracle" }
func (a *oracleAdapter) DefaultPort() int { return 1521 }

func (a *oracleAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, strings.TrimPrefix(dsn, "oracle://"))
	if err != nil {
		return nil, fmt.Errorf("oracle: connect: %w", err)
	}
	var user string
	if err := db.GetContext(ctx, &user, "SELECT USER FROM dual"); err != nil {
		db.Close()
		return nil, fmt.Errorf("oracle: current user: %w", err)
	}
	return &oracleConn{db: db, user: user}, nil
}

// oracleConn dumps the objects owned by the connected user.
type oracleConn struct {
	db   *sqlx.DB
	user string
}

func (c *oracleConn) AdapterName() string  { return "oracle" }
func (c *oracleConn) DatabaseName() string { return c.user }

func (c *oracleConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *oracleConn) Close() error {
	return c.db.Close()
}

type ddlRow struct {
	Name  string `db:"NAME"`
	Table string `db:"TBL"`
	DDL   string `db:"DDL"`
}

func (c *oracleConn) Objects(ctx context.Context) ([]schema.Object, error) {
	queries := []struct {
		typ   schema.ObjectType
		query string
	}{
		{schema.TypeTable,
			`SELECT table_name AS name, table_name AS tbl,
			        DBMS_METADATA.GET_DDL('TABLE', table_name) AS ddl
			 FROM user_tables WHERE nested = 'NO' ORDER BY table_name`},
		{schema.TypeIndex,
			`SELECT index_name AS name, table_name AS tbl,
			        DBMS_METADATA.GET_DDL('INDEX', index_name) AS ddl
			 FROM user_indexes
			 WHERE generated = 'N'
			   AND index_name NOT IN (SELECT index_name FROM user_constraints WHERE index_name IS NOT NULL)
			 ORDER BY index_name`},
		{schema.TypeTrigger,
			`SELECT trigger_name AS name, table_name AS tbl,
			        DBMS_METADATA.GET_DDL('TRIGGER', trigger_name) AS ddl
			 FROM user_triggers ORDER BY trigger_name`},
		{schema.TypeView,
			`SELECT view_name AS name, view_name AS tbl,
			        DBMS_METADATA.GET_DDL('VIEW', view_name) AS ddl
			 FROM user_views ORDER BY view_name`},
	}

	var objs []schema.Object
	for _, q := range queries {
		var rows []ddlRow
		if err := c.db.SelectContext(ctx, &rows, q.query); err != nil {
			return nil, fmt.Errorf("oracle: %s list: %w", q.typ, err)
		}
		for _, r := range rows {
			objs = append(objs, schema.Object{
				Type:  q.typ,
				Name:  r.Name,
				Table: r.Table,
				SQL:   strings.TrimSuffix(strings.TrimSpace(r.DDL), ";"),
			})
		}
	}
	return objs, nil
}

func (c *oracleConn) Rows(ctx context.Context, table string, fn func(values []string) error) error {
	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+adapter.QuoteIdent(table))
	if err != nil {
		return fmt.Errorf("oracle: rows %s: %w", table, err)
	}
	defer rows.Close()
	if err := adapter.ScanLiteralsWith(rows, literal, fn); err != nil {
		return fmt.Errorf("oracle: rows %s: %w", table, err)
	}
	return nil
}

// literal prints NUMBER values bare. godror hands them back as a named
// string type holding the decimal text.
func literal(_ string, v any) string {
	if rv := reflect.ValueOf(v); rv.IsValid() && rv.Kind() == reflect.String && rv.Type() != reflect.TypeOf("") {
		return rv.String()
	}
	return adapter.Literal(v)
}
