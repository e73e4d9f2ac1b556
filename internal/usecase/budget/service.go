package budget

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/budgetd/internal/domain"
	"github.com/kailas-cloud/budgetd/internal/domain/spend"
	"github.com/kailas-cloud/budgetd/internal/metrics"
)

// Service is the budget evaluator: it composes the config resolver and
// the spend ledger to answer exceeds-budget queries and apply spend
// deltas. Stateless between requests; all state lives in the resolver
// and the ledger, and no lock is held across their I/O.
type Service struct {
	resolver ConfigResolver
	ledger   Ledger
	logger   *zap.Logger
}

// New creates a Service. logger can be nil.
func New(resolver ConfigResolver, ledger Ledger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, ledger: ledger, logger: logger}
}

// Exceeds reports whether the project's accumulated spend has reached the
// configured limit. Spend exactly equal to the limit counts as exceeding.
func (s *Service) Exceeds(ctx context.Context, configName string, projectID uint64) (bool, error) {
	cfg, err := s.resolver.Resolve(ctx, configName)
	if err != nil {
		return false, err
	}

	key, err := spend.NewKey(configName, projectID)
	if err != nil {
		return false, fmt.Errorf("budget key: %w", err)
	}

	spent, err := s.ledger.Get(ctx, key)
	if err != nil {
		return false, err
	}

	exceeds := spent >= cfg.Limit()
	metrics.BudgetChecksTotal.WithLabelValues(configName, verdict(exceeds)).Inc()
	return exceeds, nil
}

// Spend returns the project's accumulator snapshot: the total recorded
// spend and when it last changed. Read-only.
func (s *Service) Spend(ctx context.Context, configName string, projectID uint64) (spend.Entry, error) {
	if _, err := s.resolver.Resolve(ctx, configName); err != nil {
		return spend.Entry{}, err
	}

	key, err := spend.NewKey(configName, projectID)
	if err != nil {
		return spend.Entry{}, fmt.Errorf("budget key: %w", err)
	}

	return s.ledger.Entry(ctx, key)
}

// Record atomically applies spentBudget to the project's accumulator and
// returns the post-write exceeds-budget verdict, so one round trip both
// records and informs the caller.
//
// The ledger write is the only non-idempotent step: if the caller times
// out mid-commit the outcome is unknown and a retry may double-count.
// Resolver failures happen before any side effect and are safely
// retryable.
func (s *Service) Record(ctx context.Context, configName string, projectID uint64, spentBudget float64) (bool, error) {
	if math.IsNaN(spentBudget) || math.IsInf(spentBudget, 0) {
		metrics.SpendRecordsTotal.WithLabelValues(configName, "invalid").Inc()
		return false, fmt.Errorf("spent_budget must be finite, got %v: %w", spentBudget, domain.ErrInvalidSpend)
	}

	// Resolving validates the config name before any spend is accepted
	// against it, even though the limit is not needed for the write.
	cfg, err := s.resolver.Resolve(ctx, configName)
	if err != nil {
		return false, err
	}

	key, err := spend.NewKey(configName, projectID)
	if err != nil {
		return false, fmt.Errorf("budget key: %w", err)
	}

	total, err := s.ledger.Add(ctx, key, spentBudget)
	if err != nil {
		metrics.SpendRecordsTotal.WithLabelValues(configName, recordStatus(err)).Inc()
		return false, err
	}
	metrics.SpendRecordsTotal.WithLabelValues(configName, "ok").Inc()

	exceeds := total >= cfg.Limit()
	metrics.BudgetChecksTotal.WithLabelValues(configName, verdict(exceeds)).Inc()

	if !exceeds && cfg.HasSoftLimit() && total >= cfg.SoftLimit() {
		metrics.SoftLimitHitsTotal.WithLabelValues(configName).Inc()
		s.logger.Warn("Spend passed soft limit",
			zap.String("config", configName),
			zap.Uint64("project_id", projectID),
			zap.Float64("total", total),
			zap.Float64("soft_limit", cfg.SoftLimit()),
			zap.Float64("limit", cfg.Limit()),
			zap.String("config_version", cfg.Version()),
		)
	}

	return exceeds, nil
}

func verdict(exceeds bool) string {
	if exceeds {
		return "exceeded"
	}
	return "within"
}

func recordStatus(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, domain.ErrInvalidSpend) {
		return "invalid"
	}
	return "error"
}
