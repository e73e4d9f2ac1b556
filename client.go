// Package budgetd provides an embedded budget-enforcement client: the
// same accounting engine the HTTP server exposes, wired for in-process
// use against a local SQLite file or a shared Redis instance.
package budgetd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/budgetd/internal/db"
	dbRedis "github.com/kailas-cloud/budgetd/internal/db/redis"
	dbSqlite "github.com/kailas-cloud/budgetd/internal/db/sqlite"
	"github.com/kailas-cloud/budgetd/internal/domain/spend"
	"github.com/kailas-cloud/budgetd/internal/repository/budgets"
	ledgerrepo "github.com/kailas-cloud/budgetd/internal/repository/ledger"
	budgetuc "github.com/kailas-cloud/budgetd/internal/usecase/budget"
	healthuc "github.com/kailas-cloud/budgetd/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces so tests can substitute the engine.
type budgetUseCase interface {
	Exceeds(ctx context.Context, configName string, projectID uint64) (bool, error)
	Record(ctx context.Context, configName string, projectID uint64, spentBudget float64) (bool, error)
	Spend(ctx context.Context, configName string, projectID uint64) (spend.Entry, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the budgetd embedded entry point.
type Client struct {
	store       db.Store
	source      *budgets.Source
	budgetSvc   budgetUseCase
	healthSvc   healthUseCase
	obs         *observer
	watchCancel context.CancelFunc
}

// New creates a budgetd Client, connects to the ledger store and loads
// the budgets file. The provided context is used for the initial
// readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix: "budgetd:",
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("budgetd: ledger store required (use WithSQLite or WithRedis)")
	}
	if cfg.budgetsFile == "" {
		return nil, errors.New("budgetd: budgets file required (use WithBudgetsFile)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("budgetd: ledger store not ready: %w", err)
	}

	source := budgets.NewSource(cfg.budgetsFile, nil)
	if err := source.Reload(); err != nil {
		store.Close()
		return nil, fmt.Errorf("budgetd: load budgets: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	ledger := ledgerrepo.New(store, cfg.keyPrefix)

	c := &Client{
		store:     store,
		source:    source,
		budgetSvc: budgetuc.New(source, ledger, nil),
		healthSvc: healthuc.New(store, source),
		obs:       obs,
	}

	if cfg.watch {
		watcher, err := budgets.NewWatcher(source, cfg.watchDebounce, nil)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("budgetd: create budgets watcher: %w", err)
		}
		watchCtx, cancel := context.WithCancel(context.Background())
		c.watchCancel = cancel
		go func() { _ = watcher.Watch(watchCtx) }()
	}

	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "sqlite":
		s, err := dbSqlite.NewStore(dbSqlite.Config{Path: cfg.path})
		if err != nil {
			return nil, fmt.Errorf("budgetd: create sqlite store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("budgetd: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("budgetd: unknown driver %q", cfg.driver)
	}
}

// ExceedsBudget reports whether the project's accumulated spend has
// reached the configured limit. Spend exactly equal to the limit counts
// as exceeding.
func (c *Client) ExceedsBudget(ctx context.Context, configName string, projectID uint64) (bool, error) {
	start := time.Now()
	exceeds, err := c.budgetSvc.Exceeds(ctx, configName, projectID)
	c.obs.observe("exceeds_budget", start, err)
	return exceeds, err
}

// RecordBudgetSpend durably records a spend delta for the project and
// returns the post-write exceeds-budget verdict.
//
// A context cancelled mid-commit leaves the outcome unknown: the write
// may still have landed, and a blind retry can double-count.
func (c *Client) RecordBudgetSpend(ctx context.Context, configName string, projectID uint64, spentBudget float64) (bool, error) {
	start := time.Now()
	exceeds, err := c.budgetSvc.Record(ctx, configName, projectID, spentBudget)
	c.obs.observe("record_budget_spend", start, err)
	return exceeds, err
}

// SpentBudget returns the project's total recorded spend. A project that
// has never recorded spend reads as zero.
func (c *Client) SpentBudget(ctx context.Context, configName string, projectID uint64) (float64, error) {
	start := time.Now()
	entry, err := c.budgetSvc.Spend(ctx, configName, projectID)
	c.obs.observe("spent_budget", start, err)
	if err != nil {
		return 0, err
	}
	return entry.Total(), nil
}

// Reload re-reads the budgets file immediately.
func (c *Client) Reload() error {
	return c.source.Reload()
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks the health of all engine components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// Close stops the budgets watcher (if any) and closes the ledger store.
func (c *Client) Close() {
	if c.watchCancel != nil {
		c.watchCancel()
	}
	c.store.Close()
}
