//go:build !duckdb

package duckdb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sadopc/sqlcheck/internal/adapter"
)

func TestDuckDBDisabled_Connect(t *testing.T) {
	a := &disabledAdapter{}
	conn, err := a.Connect(context.Background(), "test.db")

	if conn != nil {
		t.Error("Connect() should return nil connection when disabled")
	}
	if !errors.Is(err, errDisabled) {
		t.Fatalf("Connect() error = %v, want errDisabled", err)
	}
	if !strings.Contains(err.Error(), "-tags duckdb") {
		t.Errorf("Connect() error = %q, expected to name the build tag", err.Error())
	}
}

func TestDuckDBDisabled_Registration(t *testing.T) {
	a, ok := adapter.Registry["duckdb"]
	if !ok {
		t.Fatal("duckdb adapter not found in registry")
	}
	if a.Name() != "duckdb" {
		t.Errorf("registered adapter Name() = %q, want %q", a.Name(), "duckdb")
	}
	if a.DefaultPort() != 0 {
		t.Errorf("registered adapter DefaultPort() = %d, want %d", a.DefaultPort(), 0)
	}
}
