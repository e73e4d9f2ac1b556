package db

import (
	"context"
	"time"
)

// Store is the durable spend accumulator facade. Consumers should depend
// on the narrow sub-interfaces (ISP), not on Store itself.
type Store interface {
	Pinger
	SpendStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SpendStore provides the per-key atomic spend accumulator.
//
// AddSpend is the serialization point for a key: the read-modify-write is
// indivisible with respect to concurrent AddSpend/GetSpend calls on the
// same key, and the new total is durably committed before a successful
// return. A delta that would drive the total below zero is rejected with
// ErrNegativeBalance and leaves the stored value unchanged.
type SpendStore interface {
	AddSpend(ctx context.Context, key string, delta float64) (float64, error)
	GetSpend(ctx context.Context, key string) (float64, error)
	GetSpendEntry(ctx context.Context, key string) (SpendEntry, error)
}

// SpendEntry is the stored accumulator state for one key.
type SpendEntry struct {
	Spend     float64
	UpdatedAt int64 // unix millis of the last mutation
}
