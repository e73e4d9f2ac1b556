package budgetd

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "sqlite" or "redis"
	path     string
	addrs    []string
	password string

	budgetsFile   string
	watch         bool
	watchDebounce time.Duration

	keyPrefix string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite stores the ledger in a local SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.path = path
	})
}

// WithRedis stores the ledger in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithBudgetsFile sets the YAML budgets file to resolve configs from.
func WithBudgetsFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.budgetsFile = path
	})
}

// WithWatch hot-reloads the budgets file when it changes on disk.
// debounce <= 0 selects the default interval.
func WithWatch(debounce time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.watch = true
		c.watchDebounce = debounce
	})
}

// WithKeyPrefix namespaces ledger storage keys (default "budgetd:").
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithLogger attaches a logger for per-operation debug/warn lines.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithMetrics registers client operation metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
