package errors

import stderrors "errors"

// The five failure classes every module operation resolves to. Module packages
// wrap these with fmt.Errorf("...: %w", ...) so callers can classify with
// errors.Is while still seeing the specific condition in the message.
var (
	// ErrUnauthorized indicates the caller identity is not permitted to perform the operation.
	ErrUnauthorized = stderrors.New("unauthorized")
	// ErrPreconditionFailed indicates a required condition was not met (hold time, pause, missing references).
	ErrPreconditionFailed = stderrors.New("precondition failed")
	// ErrNotFound indicates the operation referenced an item or commit that does not exist.
	ErrNotFound = stderrors.New("not found")
	// ErrCapacityExceeded indicates a supply ceiling or batch-size limit would be crossed.
	ErrCapacityExceeded = stderrors.New("capacity exceeded")
	// ErrStateConflict indicates the operation conflicts with existing state (duplicate commit, missing seed).
	ErrStateConflict = stderrors.New("state conflict")
)
