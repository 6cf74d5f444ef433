package transition

import "errors"

// Error taxonomy for transition execution. The rule engines themselves never
// return these (they return booleans); only the executor and the backend
// boundary do.
var (
	// ErrDenied: the action flag was false but the caller attempted it anyway.
	// Never retried.
	ErrDenied = errors.New("transition: authorization denied")

	// ErrIllegal: the requested status is not a legal successor of the current
	// one. Same user-facing handling as ErrDenied, logged distinctly.
	ErrIllegal = errors.New("transition: illegal status transition")

	// ErrStaleState: the backend reports the entity no longer matches what the
	// client assumed. The caller must refetch and re-derive flags first.
	ErrStaleState = errors.New("transition: stale entity state")

	// ErrValidation: a required side payload is missing. Caught before any
	// network call.
	ErrValidation = errors.New("transition: validation failed")

	// ErrTransport: network or server failure. Optimistic state is rolled
	// back; the caller may retry manually, never automatically.
	ErrTransport = errors.New("transition: transport failure")

	// ErrBusy: a transition for this entity is already in flight. Rejected
	// synchronously, never queued.
	ErrBusy = errors.New("transition: transition already in flight")
)
