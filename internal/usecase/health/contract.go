package health

import "context"

// DBPinger checks ledger storage availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// BudgetSource reports whether a budgets snapshot has loaded.
type BudgetSource interface {
	Ready() bool
}
