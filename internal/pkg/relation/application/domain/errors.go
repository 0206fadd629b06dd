package relation

import "errors"

var (
	// ErrNotFound means a referenced user does not exist.
	ErrNotFound = errors.New("relation: not found")
	// ErrInvariantViolation means the relationship cache has no entry for a user
	// that should exist. It signals a bootstrap or programming defect.
	ErrInvariantViolation = errors.New("relation: cache invariant violated")
	// ErrTransientContention means the relationship lease could not be acquired. Retryable.
	ErrTransientContention = errors.New("relation: relationship lease contended")
	// ErrStoreUnavailable means the profile store or the distributed store failed.
	ErrStoreUnavailable = errors.New("relation: store unavailable")
	ErrNotInList        = errors.New("relation: not in list")
	ErrSelfRelation     = errors.New("relation: cannot target own account family")
	ErrInvalidKeyword   = errors.New("relation: invalid keyword")
	ErrInvalidUsername  = errors.New("relation: invalid username")
)
