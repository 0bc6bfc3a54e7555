package sqlite

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/sadopc/sqlcheck/internal/adapter"
	"github.com/sadopc/sqlcheck/internal/schema"
)

func TestSQLiteAdapter_Registration(t *testing.T) {
	a, ok := adapter.Registry["sqlite"]
	if !ok {
		t.Fatal("sqlite adapter not found in registry")
	}
	if a.Name() != "sqlite" {
		t.Errorf("registered adapter Name() = %q, want %q", a.Name(), "sqlite")
	}
	if a.DefaultPort() != 0 {
		t.Errorf("registered adapter DefaultPort() = %d, want %d", a.DefaultPort(), 0)
	}
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"sqlite:// prefix stripped", "sqlite:///path/to/file.db", "/path/to/file.db"},
		{"file: prefix stripped", "file:test.db", "test.db"},
		{"memory unchanged", ":memory:", ":memory:"},
		{"relative path unchanged", "relative/path.db", "relative/path.db"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeDSN(tt.dsn)
			if got != tt.want {
				t.Errorf("normalizeDSN(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}

func TestConnect_InMemory(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()

	if err := conn.Ping(ctx); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
	if got := conn.AdapterName(); got != "sqlite" {
		t.Errorf("AdapterName() = %q, want %q", got, "sqlite")
	}
	if got := conn.DatabaseName(); got != ":memory:" {
		t.Errorf("DatabaseName() = %q, want %q", got, ":memory:")
	}
}

func TestObjects_InMemory(t *testing.T) {
	conn := openMemory(t)
	exec(t, conn,
		"CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)",
		"CREATE TABLE accounts (id INTEGER)",
		"CREATE INDEX users_name ON users(name)",
		"CREATE VIEW names AS SELECT name FROM users",
		"INSERT INTO users (name) VALUES ('x')",
	)

	objs, err := conn.Objects(context.Background())
	if err != nil {
		t.Fatalf("Objects() error: %v", err)
	}

	var got []string
	for _, o := range objs {
		got = append(got, string(o.Type)+":"+o.Name)
	}
	want := []string{"table:accounts", "table:users", "index:users_name", "view:names"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Objects() = %v, want %v", got, want)
	}
	for _, o := range schema.Tables(objs) {
		if strings.HasPrefix(o.Name, "sqlite_") {
			t.Errorf("internal table %q listed", o.Name)
		}
	}
	if objs[0].SQL != "CREATE TABLE accounts (id INTEGER)" {
		t.Errorf("stored SQL = %q", objs[0].SQL)
	}
}

func TestRows_Quote(t *testing.T) {
	conn := openMemory(t)
	exec(t, conn,
		"CREATE TABLE t (a INTEGER, b TEXT, c REAL, d BLOB)",
		"INSERT INTO t VALUES (1, 'it''s', 1.5, x'00ff')",
		"INSERT INTO t VALUES (NULL, NULL, NULL, NULL)",
	)

	var got [][]string
	err := conn.Rows(context.Background(), "t", func(values []string) error {
		got = append(got, values)
		return nil
	})
	if err != nil {
		t.Fatalf("Rows() error: %v", err)
	}
	want := [][]string{
		{"1", "'it''s'", "1.5", "X'00FF'"},
		{"NULL", "NULL", "NULL", "NULL"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rows() = %v, want %v", got, want)
	}
}

func openMemory(t *testing.T) adapter.Connection {
	t.Helper()
	a := &sqliteAdapter{}
	conn, err := a.Connect(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Connect(:memory:) error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func exec(t *testing.T, conn adapter.Connection, stmts ...string) {
	t.Helper()
	db := conn.(*sqliteConn).db
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}
