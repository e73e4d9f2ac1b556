package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/budgetd/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{Path: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewStore_RequiresPath(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAddSpend_Accumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	total, err := s.AddSpend(ctx, "k1", 40)
	if err != nil {
		t.Fatalf("AddSpend: %v", err)
	}
	if total != 40 {
		t.Errorf("expected 40, got %v", total)
	}

	total, err = s.AddSpend(ctx, "k1", 65)
	if err != nil {
		t.Fatalf("AddSpend: %v", err)
	}
	if total != 105 {
		t.Errorf("expected 105, got %v", total)
	}

	got, err := s.GetSpend(ctx, "k1")
	if err != nil {
		t.Fatalf("GetSpend: %v", err)
	}
	if got != 105 {
		t.Errorf("expected 105, got %v", got)
	}
}

func TestGetSpend_MissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSpend(context.Background(), "absent")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGetSpendEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UnixMilli()
	if _, err := s.AddSpend(ctx, "k1", 12.5); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}

	entry, err := s.GetSpendEntry(ctx, "k1")
	if err != nil {
		t.Fatalf("GetSpendEntry: %v", err)
	}
	if entry.Spend != 12.5 {
		t.Errorf("expected spend 12.5, got %v", entry.Spend)
	}
	if entry.UpdatedAt < before {
		t.Errorf("updated_at %d predates the write at %d", entry.UpdatedAt, before)
	}

	if _, err := s.GetSpendEntry(ctx, "absent"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestAddSpend_NegativeBalanceRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddSpend(ctx, "k1", 30); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}

	_, err := s.AddSpend(ctx, "k1", -50)
	if !errors.Is(err, db.ErrNegativeBalance) {
		t.Errorf("expected ErrNegativeBalance, got %v", err)
	}

	got, err := s.GetSpend(ctx, "k1")
	if err != nil {
		t.Fatalf("GetSpend: %v", err)
	}
	if got != 30 {
		t.Errorf("rejected delta must leave the value at 30, got %v", got)
	}
}

func TestAddSpend_RefundToZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddSpend(ctx, "k1", 30); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}
	total, err := s.AddSpend(ctx, "k1", -30)
	if err != nil {
		t.Fatalf("refund to zero should succeed: %v", err)
	}
	if total != 0 {
		t.Errorf("expected 0, got %v", total)
	}
}

func TestAddSpend_OnMissingKeyStartsFromZero(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddSpend(context.Background(), "fresh", -1)
	if !errors.Is(err, db.ErrNegativeBalance) {
		t.Errorf("negative delta on an absent key should be rejected, got %v", err)
	}
}

func TestAddSpend_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddSpend(ctx, "k1", 10); err != nil {
				t.Errorf("AddSpend: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetSpend(ctx, "k1")
	if err != nil {
		t.Fatalf("GetSpend: %v", err)
	}
	if got != 200 {
		t.Errorf("expected every concurrent delta to land, got %v", got)
	}
}

func TestReopen_Durable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s, err := NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := s.AddSpend(ctx, "k1", 42.5); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}
	s.Close()

	s2, err := NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetSpend(ctx, "k1")
	if err != nil {
		t.Fatalf("GetSpend after reopen: %v", err)
	}
	if got != 42.5 {
		t.Errorf("expected 42.5 to survive a restart, got %v", got)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddSpend(ctx, "a", 10); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}
	if _, err := s.AddSpend(ctx, "b", 20); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}

	if got, _ := s.GetSpend(ctx, "a"); got != 10 {
		t.Errorf("expected a=10, got %v", got)
	}
	if got, _ := s.GetSpend(ctx, "b"); got != 20 {
		t.Errorf("expected b=20, got %v", got)
	}
}

func TestWaitForReady(t *testing.T) {
	s := newTestStore(t)

	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForReady: %v", err)
	}
}
