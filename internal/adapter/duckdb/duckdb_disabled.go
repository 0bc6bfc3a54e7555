//go:build !duckdb

package duckdb

import (
	"context"
	"errors"

	"github.com/sadopc/sqlcheck/internal/adapter"
)

var errDisabled = errors.New("duckdb: dumping DuckDB files needs a build with -tags duckdb")

func init() {
	adapter.Register(&disabledAdapter{})
}

type disabledAdapter struct{}

func (d *disabledAdapter) Name() string     { return "duckdb" }
func (d *disabledAdapter) DefaultPort() int { return 0 }

func (d *disabledAdapter) Connect(_ context.Context, _ string) (adapter.Connection, error) {
	return nil, errDisabled
}
