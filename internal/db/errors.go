package db

import "errors"

// Sentinel errors for storage operations.
var (
	ErrKeyNotFound     = errors.New("db: key not found")
	ErrNegativeBalance = errors.New("db: increment would drive value below zero")
)

// Op constants name the storage operation for error context.
const (
	OpAddSpend = "ADDSPEND"
	OpGetSpend = "GETSPEND"
	OpPing     = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
