//go:build !oracle

package oracle

import (
	"context"
	"errors"

	"github.com/sadopc/sqlcheck/internal/adapter"
)

var errDisabled = errors.New("oracle: dumping Oracle schemas needs a build with -tags oracle")

func init() {
	adapter.Register(&disabledAdapter{})
}

type disabledAdapter struct{}

func (d *disabledAdapter) Name() string     { return "oracle" }
func (d *disabledAdapter) DefaultPort() int { return 1521 }

func (d *disabledAdapter) Connect(_ context.Context, _ string) (adapter.Connection, error) {
	return nil, errDisabled
}
