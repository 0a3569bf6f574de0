package store

import "errors"

// Sentinel errors returned by store operations. Callers match them with
// errors.Is; the wrapped message carries the offending id or field.
var (
	// ErrValidation means the input was malformed or out of range. The
	// operation was rejected before any write happened.
	ErrValidation = errors.New("store: invalid input")

	// ErrNotFound means the referenced memory id does not exist.
	ErrNotFound = errors.New("store: memory not found")

	// ErrBadReference means a supersedes target did not exist at write
	// time. See-also references are never validated.
	ErrBadReference = errors.New("store: reference target not found")

	// ErrIndexInconsistent means the search index and the memories table
	// disagree. The store never repairs this on its own; RebuildIndex is
	// the recovery path.
	ErrIndexInconsistent = errors.New("store: search index inconsistent")
)
