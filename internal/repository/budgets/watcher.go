package budgets

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/budgetd/internal/metrics"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher hot-reloads a Source when its budgets file changes on disk.
// Events are debounced so editors that write in several steps (or via
// atomic rename) trigger a single reload.
type Watcher struct {
	source   *Source
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
}

// NewWatcher creates a Watcher for the source's budgets file.
// debounce <= 0 selects the default interval.
func NewWatcher(source *Source, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		source:   source,
		fsw:      fsw,
		logger:   logger,
		debounce: debounce,
	}, nil
}

// Watch blocks until ctx is cancelled, reloading the source after file
// changes settle. The containing directory is watched rather than the
// file itself: most editors and config rollouts replace the file by
// rename, which drops a watch set on the old inode.
func (w *Watcher) Watch(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	dir := filepath.Dir(w.source.Path())
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.Info("Budgets watcher started",
		zap.String("path", w.source.Path()),
		zap.Duration("debounce", w.debounce),
	)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Budgets watcher stopped")
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("Budgets file event",
				zap.String("path", ev.Name),
				zap.String("op", ev.Op.String()),
			)
			pending = time.After(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Budgets watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Base(ev.Name) == filepath.Base(w.source.Path())
}

func (w *Watcher) reload() {
	if err := w.source.Reload(); err != nil {
		metrics.BudgetReloadsTotal.WithLabelValues("error").Inc()
		w.logger.Error("Budgets reload failed, keeping previous snapshot", zap.Error(err))
		return
	}
	metrics.BudgetReloadsTotal.WithLabelValues("ok").Inc()
}
