package lifecycle

import "errors"

// Error taxonomy for transition handling. The first three are decided before
// any mutation and are never retried; ErrConflict means the caller lost a
// concurrent race on the same ticket and may retry the whole
// read-decide-apply cycle; ErrStorageUnavailable is a transient commit
// failure.
var (
	ErrForbidden          = errors.New("actor lacks capability for this action")
	ErrInvalidTransition  = errors.New("action not valid from current status")
	ErrInvalidPayload     = errors.New("transition payload invalid")
	ErrConflict           = errors.New("concurrent transition on the same ticket")
	ErrStorageUnavailable = errors.New("transition could not be committed")
)
