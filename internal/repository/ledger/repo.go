package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/budgetd/internal/db"
	"github.com/kailas-cloud/budgetd/internal/domain"
	"github.com/kailas-cloud/budgetd/internal/domain/spend"
)

// store is the consumer interface for ledger operations (ISP).
type store interface {
	AddSpend(ctx context.Context, key string, delta float64) (float64, error)
	GetSpend(ctx context.Context, key string) (float64, error)
	GetSpendEntry(ctx context.Context, key string) (db.SpendEntry, error)
}

// Repo is the durable per-(config, project) spend ledger. It owns key
// layout and maps storage errors to the domain taxonomy; all mutation of
// spend state goes through Add.
type Repo struct {
	store  store
	prefix string
}

// New creates a ledger repository. keyPrefix namespaces storage keys
// (e.g. "budgetd:").
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Get returns the accumulated spend for key. An absent entry is a zero
// balance, not an error.
func (r *Repo) Get(ctx context.Context, key spend.Key) (float64, error) {
	total, err := r.store.GetSpend(ctx, r.storageKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger get %s: %w: %w", key, domain.ErrLedgerUnavailable, err)
	}
	return total, nil
}

// Entry returns the accumulator snapshot for key. An absent entry is a
// zero balance that has never been updated.
func (r *Repo) Entry(ctx context.Context, key spend.Key) (spend.Entry, error) {
	stored, err := r.store.GetSpendEntry(ctx, r.storageKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return spend.NewEntry(key, 0, 0), nil
		}
		return spend.Entry{}, fmt.Errorf("ledger entry %s: %w: %w", key, domain.ErrLedgerUnavailable, err)
	}
	return spend.NewEntry(key, stored.Spend, stored.UpdatedAt), nil
}

// Add atomically applies delta to the accumulator for key and returns the
// new total. A delta that would drive the total below zero is rejected
// with domain.ErrInvalidSpend and leaves the ledger unchanged.
func (r *Repo) Add(ctx context.Context, key spend.Key, delta float64) (float64, error) {
	total, err := r.store.AddSpend(ctx, r.storageKey(key), delta)
	if err != nil {
		if errors.Is(err, db.ErrNegativeBalance) {
			return 0, fmt.Errorf("ledger add %s: delta %v would drive spend below zero: %w",
				key, delta, domain.ErrInvalidSpend)
		}
		return 0, fmt.Errorf("ledger add %s: %w: %w", key, domain.ErrLedgerUnavailable, err)
	}
	return total, nil
}

// storageKey renders the storage key for a ledger entry.
// Project id comes last so the config name may contain any separator.
func (r *Repo) storageKey(key spend.Key) string {
	return fmt.Sprintf("%sledger:%s:%d", r.prefix, key.ConfigName(), key.ProjectID())
}
