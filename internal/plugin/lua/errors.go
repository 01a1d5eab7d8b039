package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call exceeds its budget.
	ErrExecutionTimeout = errors.New("lua execution budget exceeded")

	// ErrInvalidScript is returned when a script does not compile or does
	// not define the required function.
	ErrInvalidScript = errors.New("invalid lua script")
)
