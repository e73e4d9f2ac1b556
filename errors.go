package budgetd

import "github.com/kailas-cloud/budgetd/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfigNotFound    = domain.ErrConfigNotFound
	ErrConfigUnavailable = domain.ErrConfigUnavailable
	ErrInvalidSpend      = domain.ErrInvalidSpend
	ErrLedgerUnavailable = domain.ErrLedgerUnavailable
)
