package engine

import "errors"

// Sentinel errors separating "rejected by design" from system faults.
// Callers match with errors.Is; messages carry the specifics.
var (
	// ErrValidation marks malformed or out-of-range input. Never coerced silently.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a detected race on an atomic record update. Retried
	// internally a bounded number of times before being surfaced.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrUnavailable marks a persistence collaborator failure. Retryable by the caller.
	ErrUnavailable = errors.New("storage unavailable")
)
