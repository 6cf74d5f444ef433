package transition

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"vendra.org/internal/rbac"
)

// ChangeRequest asks the backend to move one entity to a new status, with an
// optional reason and side payload carried as metadata.
type ChangeRequest struct {
	NewStatus string            `json:"new_status"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	// ExpectedStatus carries the status the caller last observed. The backend
	// rejects the change as stale when the stored status differs. The executor
	// fills it from the local snapshot when left empty.
	ExpectedStatus string `json:"expected_status,omitempty"`

	// Optimistic requests update the local snapshot before the backend
	// confirms, with rollback on failure. Confirmation-gated paths leave this
	// false and wait for the round trip.
	Optimistic bool `json:"-"`
}

// Backend is the external API boundary the executor sends changes to.
type Backend[E any] interface {
	Get(ctx context.Context, id string) (E, error)
	ChangeStatus(ctx context.Context, id string, req ChangeRequest) (E, error)
}

// Hooks bind the executor to one entity kind's rule systems.
type Hooks[E any] struct {
	// Legal reports structural status-machine legality for the move.
	Legal func(snapshot E, newStatus string) bool
	// Authorize re-validates the actor against the freshest snapshot.
	Authorize func(snapshot E, actor rbac.ActorContext, newStatus string) bool
	// Validate checks required side payloads before any network call.
	// Optional.
	Validate func(snapshot E, req ChangeRequest) error
	// ApplyLocal produces the optimistically updated snapshot. Optional;
	// without it no optimistic update happens.
	ApplyLocal func(snapshot E, req ChangeRequest) (E, error)
	// StatusOf reports the snapshot's current status so the executor can fill
	// ChangeRequest.ExpectedStatus. Optional.
	StatusOf func(snapshot E) string
}

// Executor applies authorized, validated transitions. It keeps a local
// snapshot per entity for optimistic updates and holds an advisory in-flight
// lock per entity so a double submission is rejected, not queued.
type Executor[E any] struct {
	backend Backend[E]
	hooks   Hooks[E]

	mu       sync.Mutex
	inFlight map[string]struct{}
	cache    map[string]E
}

// NewExecutor wires an executor to a backend and entity hooks.
func NewExecutor[E any](backend Backend[E], hooks Hooks[E]) (*Executor[E], error) {
	if backend == nil {
		return nil, errors.New("transition: backend is required")
	}
	if hooks.Legal == nil || hooks.Authorize == nil {
		return nil, errors.New("transition: legal and authorize hooks are required")
	}
	return &Executor[E]{
		backend:  backend,
		hooks:    hooks,
		inFlight: make(map[string]struct{}),
		cache:    make(map[string]E),
	}, nil
}

// Snapshot returns the locally cached entity, if any.
func (e *Executor[E]) Snapshot(id string) (E, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.cache[id]
	return snap, ok
}

// Refresh refetches the entity from the backend and replaces the local
// snapshot. Required after ErrStaleState before another attempt.
func (e *Executor[E]) Refresh(ctx context.Context, id string) (E, error) {
	snap, err := e.backend.Get(ctx, id)
	if err != nil {
		var zero E
		return zero, err
	}
	e.mu.Lock()
	e.cache[id] = snap
	e.mu.Unlock()
	return snap, nil
}

// Apply executes one transition for one entity. Exactly one transition per
// entity may be in flight; a concurrent call returns ErrBusy without touching
// the backend. Validation and authorization run against the freshest local
// snapshot before anything is sent.
func (e *Executor[E]) Apply(ctx context.Context, actor rbac.ActorContext, id string, req ChangeRequest) (E, error) {
	var zero E
	if id == "" {
		return zero, fmt.Errorf("%w: entity id is required", ErrValidation)
	}
	if req.NewStatus == "" {
		return zero, fmt.Errorf("%w: new status is required", ErrValidation)
	}

	e.mu.Lock()
	if _, busy := e.inFlight[id]; busy {
		e.mu.Unlock()
		return zero, fmt.Errorf("%w: %s", ErrBusy, id)
	}
	e.inFlight[id] = struct{}{}
	snap, cached := e.cache[id]
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inFlight, id)
		e.mu.Unlock()
	}()

	if !cached {
		fresh, err := e.backend.Get(ctx, id)
		if err != nil {
			return zero, classify(err)
		}
		snap = fresh
		e.mu.Lock()
		e.cache[id] = snap
		e.mu.Unlock()
	}

	if e.hooks.Validate != nil {
		if err := e.hooks.Validate(snap, req); err != nil {
			if errors.Is(err, ErrValidation) {
				return zero, err
			}
			return zero, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if !e.hooks.Legal(snap, req.NewStatus) {
		return zero, fmt.Errorf("%w: -> %s", ErrIllegal, req.NewStatus)
	}
	if !e.hooks.Authorize(snap, actor, req.NewStatus) {
		return zero, fmt.Errorf("%w: %s -> %s", ErrDenied, actor.RoleLevel, req.NewStatus)
	}
	if req.ExpectedStatus == "" && e.hooks.StatusOf != nil {
		req.ExpectedStatus = e.hooks.StatusOf(snap)
	}

	// Optimistic paths swap the local snapshot in before the round trip and
	// restore the pre-transition snapshot on any failure.
	optimistic := req.Optimistic && e.hooks.ApplyLocal != nil
	before := snap
	if optimistic {
		applied, err := e.hooks.ApplyLocal(snap, req)
		if err != nil {
			return zero, fmt.Errorf("%w: %v", ErrIllegal, err)
		}
		e.mu.Lock()
		e.cache[id] = applied
		e.mu.Unlock()
	}

	updated, err := e.backend.ChangeStatus(ctx, id, req)
	if err != nil {
		err = classify(err)
		e.mu.Lock()
		if optimistic {
			e.cache[id] = before
		}
		if errors.Is(err, ErrStaleState) {
			// Local snapshot is known wrong; drop it so the next caller
			// refetches instead of re-deriving flags from stale state.
			delete(e.cache, id)
		}
		e.mu.Unlock()
		return zero, err
	}

	e.mu.Lock()
	e.cache[id] = updated
	e.mu.Unlock()
	return updated, nil
}

// classify maps backend errors into the taxonomy, leaving already classified
// errors untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleState),
		errors.Is(err, ErrDenied),
		errors.Is(err, ErrIllegal),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrBusy),
		errors.Is(err, ErrTransport):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}
