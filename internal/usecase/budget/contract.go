package budget

import (
	"context"

	dombudget "github.com/kailas-cloud/budgetd/internal/domain/budget"
	"github.com/kailas-cloud/budgetd/internal/domain/spend"
)

// ConfigResolver resolves a named budget configuration.
// The returned config is an immutable snapshot value: it stays stable for
// the duration of one evaluator call even if the source reloads.
type ConfigResolver interface {
	Resolve(ctx context.Context, name string) (dombudget.Config, error)
}

// Ledger is the durable spend accumulator. Add is atomic per key and
// committed durably before it returns.
type Ledger interface {
	Get(ctx context.Context, key spend.Key) (float64, error)
	Entry(ctx context.Context, key spend.Key) (spend.Entry, error)
	Add(ctx context.Context, key spend.Key, delta float64) (float64, error)
}
