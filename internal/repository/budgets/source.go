package budgets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/budgetd/internal/domain"
	"github.com/kailas-cloud/budgetd/internal/domain/budget"
)

// fileEntry is one named budget in the YAML budgets file.
type fileEntry struct {
	Limit     float64 `yaml:"limit"`
	SoftLimit float64 `yaml:"soft_limit"`
}

// budgetsFile is the on-disk layout:
//
//	budgets:
//	  team-a:
//	    limit: 100.0
//	    soft_limit: 80.0
type budgetsFile struct {
	Budgets map[string]fileEntry `yaml:"budgets"`
}

// snapshot is one complete, immutable view of the budgets file.
// Readers always observe a whole snapshot, never a partial reload.
type snapshot struct {
	version  string
	loadedAt time.Time
	configs  map[string]budget.Config
}

// Source resolves budget configurations from a YAML file. Reload swaps
// the snapshot atomically; a failed reload keeps the last good snapshot.
type Source struct {
	path   string
	logger *zap.Logger
	snap   atomic.Pointer[snapshot]
}

// NewSource creates a Source for the given budgets file.
// Call Reload (or start a Watcher) to load the first snapshot.
func NewSource(path string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{path: filepath.Clean(path), logger: logger}
}

// Resolve returns the budget configuration for name from the current
// snapshot. The returned value is immutable, so a caller holding it is
// unaffected by concurrent reloads.
func (s *Source) Resolve(_ context.Context, name string) (budget.Config, error) {
	snap := s.snap.Load()
	if snap == nil {
		return budget.Config{}, fmt.Errorf("budgets file %s has no loaded snapshot: %w",
			s.path, domain.ErrConfigUnavailable)
	}
	cfg, ok := snap.configs[name]
	if !ok {
		return budget.Config{}, fmt.Errorf("config %q: %w", name, domain.ErrConfigNotFound)
	}
	return cfg, nil
}

// Reload reads and parses the budgets file, then swaps the snapshot.
// On any error the previous snapshot stays in place.
func (s *Source) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read budgets file %s: %w", s.path, err)
	}

	var f budgetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse budgets file %s: %w", s.path, err)
	}
	if len(f.Budgets) == 0 {
		return fmt.Errorf("budgets file %s defines no budgets", s.path)
	}

	sum := sha256.Sum256(data)
	version := hex.EncodeToString(sum[:6])

	configs := make(map[string]budget.Config, len(f.Budgets))
	for name, e := range f.Budgets {
		cfg, err := budget.New(name, e.Limit, e.SoftLimit, version)
		if err != nil {
			return fmt.Errorf("budgets file %s: %w", s.path, err)
		}
		configs[name] = cfg
	}

	s.snap.Store(&snapshot{
		version:  version,
		loadedAt: time.Now().UTC(),
		configs:  configs,
	})

	s.logger.Info("Budgets loaded",
		zap.String("path", s.path),
		zap.String("version", version),
		zap.Int("configs", len(configs)),
	)
	return nil
}

// Ready reports whether a snapshot has ever loaded successfully.
func (s *Source) Ready() bool {
	return s.snap.Load() != nil
}

// Version returns the current snapshot version ("" before first load).
func (s *Source) Version() string {
	if snap := s.snap.Load(); snap != nil {
		return snap.version
	}
	return ""
}

// Path returns the budgets file path.
func (s *Source) Path() string { return s.path }
