// Package sink defines where per-location energy tables are written.
package sink

import (
	"context"

	"go.ngs.io/wave-energy/internal/domain"
)

// Sink is the interface for persisting one location's wide table.
type Sink interface {
	Write(ctx context.Context, table *domain.WideTable) error
}
