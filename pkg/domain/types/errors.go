package types

import "errors"

// Sentinel errors shared across repository and usecase layers.
// Callers discriminate with errors.Is; repositories wrap these with goerr
// to attach context values.
var (
	// ErrNotFound indicates the record does not exist or is soft-deleted
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates an Accept lost the claim race to a concurrent
	// acceptor. This is an expected outcome, not a failure of the system;
	// callers should re-fetch state rather than retry blindly.
	ErrConflict = errors.New("claim conflict")

	// ErrInvalidState indicates the operation is not allowed from the
	// activity's current status (e.g. accepting a rejected item)
	ErrInvalidState = errors.New("invalid activity state")

	// ErrDuplicateCode indicates the unique code is already taken by an
	// active work basket or work group
	ErrDuplicateCode = errors.New("duplicate code")

	// ErrDuplicateName indicates the unique name is already taken by an
	// active work basket or work group
	ErrDuplicateName = errors.New("duplicate name")
)
