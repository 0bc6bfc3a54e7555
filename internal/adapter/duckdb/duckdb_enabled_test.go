//go:build duckdb

package duckdb

import (
	"context"
	"reflect"
	"testing"
)

func TestDuckDB_ObjectsAndRows(t *testing.T) {
	ctx := context.Background()
	conn, err := (&duckdbAdapter{}).Connect(ctx, "")
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db := conn.(*duckdbConn).db
	for _, s := range []string{
		"CREATE TABLE b (id INTEGER, name VARCHAR)",
		"CREATE TABLE a (x INTEGER)",
		"INSERT INTO b VALUES (1, 'it''s'), (2, NULL)",
	} {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}

	objs, err := conn.Objects(ctx)
	if err != nil {
		t.Fatalf("Objects() error: %v", err)
	}
	var names []string
	for _, o := range objs {
		names = append(names, o.Name)
	}
	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Errorf("Objects() names = %v", names)
	}

	var rows [][]string
	err = conn.Rows(ctx, "b", func(values []string) error {
		rows = append(rows, values)
		return nil
	})
	if err != nil {
		t.Fatalf("Rows() error: %v", err)
	}
	want := [][]string{{"1", "'it''s'"}, {"2", "NULL"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Rows() = %v, want %v", rows, want)
	}
}
