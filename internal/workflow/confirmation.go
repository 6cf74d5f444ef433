package workflow

import (
	"context"
	"errors"
	"sync"
)

// State of the two-phase confirmation.
type State string

const (
	StateIdle       State = "idle"
	StateStaged     State = "staged"
	StateCommitting State = "committing"
)

var (
	ErrAlreadyStaged = errors.New("workflow: a change is already staged")
	ErrNotRisky      = errors.New("workflow: change does not require confirmation")
	ErrCommitting    = errors.New("workflow: commit in flight")
)

// PendingChange is the candidate held between Stage and Confirm/Cancel.
type PendingChange[T any] struct {
	Target               T
	RequiresConfirmation bool
}

// Confirmation is a generic two-phase staging mechanism: a risky change is
// staged, then explicitly confirmed (committing it) or cancelled (discarding
// it with no side effect). Staging alone is never observable as committed.
type Confirmation[T any] struct {
	mu      sync.Mutex
	state   State
	pending *PendingChange[T]
	lastErr error
}

// NewConfirmation returns an idle workflow.
func NewConfirmation[T any]() *Confirmation[T] {
	return &Confirmation[T]{state: StateIdle}
}

// State returns the current workflow state.
func (c *Confirmation[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the staged change, if any.
func (c *Confirmation[T]) Pending() (PendingChange[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PendingChange[T]{}, false
	}
	return *c.pending, true
}

// Err returns the error from the last failed commit, cleared on the next
// successful confirm or cancel.
func (c *Confirmation[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Stage holds a candidate change for explicit confirmation. Changes that do
// not require confirmation bypass this component entirely and are rejected
// here so callers cannot launder them through the prompt.
func (c *Confirmation[T]) Stage(change PendingChange[T]) error {
	if !change.RequiresConfirmation {
		return ErrNotRisky
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateCommitting:
		return ErrCommitting
	case StateStaged:
		return ErrAlreadyStaged
	}
	c.pending = &change
	c.state = StateStaged
	c.lastErr = nil
	return nil
}

// Cancel discards the staged change with no side effect. Cancelling with
// nothing staged is a no-op.
func (c *Confirmation[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStaged {
		return
	}
	c.pending = nil
	c.state = StateIdle
	c.lastErr = nil
}

// Confirm applies the staged change through commit. On success the workflow
// returns to Idle; on failure it returns to Staged with the error retained so
// the caller may retry or cancel. Confirming with nothing staged is a no-op.
func (c *Confirmation[T]) Confirm(ctx context.Context, commit func(context.Context, T) error) error {
	c.mu.Lock()
	if c.state != StateStaged || c.pending == nil {
		c.mu.Unlock()
		return nil
	}
	change := *c.pending
	c.state = StateCommitting
	c.mu.Unlock()

	err := commit(ctx, change.Target)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateStaged
		c.lastErr = err
		return err
	}
	c.pending = nil
	c.state = StateIdle
	c.lastErr = nil
	return nil
}
