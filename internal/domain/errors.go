package domain

import "errors"

var (
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	ErrInvalidTimeout     = errors.New("timeout must be positive")

	// ErrDuplicateIndex means two outcomes were recorded for the same target.
	// It signals a dispatcher bug and aborts the run.
	ErrDuplicateIndex  = errors.New("duplicate outcome index")
	ErrIndexOutOfRange = errors.New("outcome index out of range")
)
