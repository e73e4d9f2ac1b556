package domain

import "errors"

var (
	// ErrConfigNotFound signals an unknown budget configuration name.
	ErrConfigNotFound = errors.New("budget config not found")
	// ErrConfigUnavailable signals that the budget configuration source is
	// transiently unreachable. Distinct from not-found: safe to retry.
	ErrConfigUnavailable = errors.New("budget config unavailable")
	// ErrInvalidSpend signals a non-finite delta or one that would drive
	// the accumulated spend below zero.
	ErrInvalidSpend = errors.New("invalid spend")
	// ErrLedgerUnavailable signals that the durable spend store is
	// unreachable. Transient: a retried write after an ambiguous outcome
	// may double-count, so callers must treat timeouts as outcome unknown.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)
