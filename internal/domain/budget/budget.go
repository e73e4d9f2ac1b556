package budget

import (
	"errors"
	"fmt"
	"math"
)

// Config is one named budget configuration: the hard limit plus optional
// policy metadata. Immutable per snapshot version; a reload replaces the
// whole snapshot, never a single config in place.
type Config struct {
	name      string
	limit     float64
	softLimit float64
	version   string
}

// New validates and creates a Config.
// limit must be a finite non-negative number; softLimit is optional
// (zero = unset) and must stay below limit.
func New(name string, limit, softLimit float64, version string) (Config, error) {
	if name == "" {
		return Config{}, errors.New("config name is required")
	}
	if math.IsNaN(limit) || math.IsInf(limit, 0) || limit < 0 {
		return Config{}, fmt.Errorf("config %q: limit must be a finite non-negative number, got %v", name, limit)
	}
	if softLimit != 0 {
		if math.IsNaN(softLimit) || math.IsInf(softLimit, 0) || softLimit < 0 {
			return Config{}, fmt.Errorf("config %q: soft_limit must be a finite non-negative number, got %v", name, softLimit)
		}
		if softLimit >= limit {
			return Config{}, fmt.Errorf("config %q: soft_limit %v must be below limit %v", name, softLimit, limit)
		}
	}
	return Config{name: name, limit: limit, softLimit: softLimit, version: version}, nil
}

// Name returns the unique configuration name.
func (c Config) Name() string { return c.name }

// Limit returns the hard spend limit.
func (c Config) Limit() float64 { return c.limit }

// SoftLimit returns the warn threshold (0 = unset).
func (c Config) SoftLimit() float64 { return c.softLimit }

// HasSoftLimit reports whether a warn threshold is configured.
func (c Config) HasSoftLimit() bool { return c.softLimit > 0 }

// Version identifies the snapshot this config was loaded with.
func (c Config) Version() string { return c.version }
