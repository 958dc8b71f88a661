package memory

import "errors"

var (
	// ErrSkillNotFound indicates an unregistered procedural routine was
	// requested. Recoverable: callers fall back to a default action.
	ErrSkillNotFound = errors.New("skill not found")
)
