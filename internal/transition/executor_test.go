package transition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"vendra.org/internal/rbac"
)

type testEntity struct {
	ID     string
	Status string
}

var testOrder = []string{"placed", "paid", "processing", "shipped", "delivered"}

func testLegal(snap testEntity, newStatus string) bool {
	for i, s := range testOrder {
		if s == snap.Status {
			return i+1 < len(testOrder) && testOrder[i+1] == newStatus
		}
	}
	return false
}

type stubBackend struct {
	mu       sync.Mutex
	entities map[string]testEntity
	calls    int
	failWith error
	block    chan struct{} // when set, ChangeStatus parks until closed
}

func newStubBackend(entities ...testEntity) *stubBackend {
	m := make(map[string]testEntity, len(entities))
	for _, e := range entities {
		m[e.ID] = e
	}
	return &stubBackend{entities: m}
}

func (b *stubBackend) Get(ctx context.Context, id string) (testEntity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entities[id]
	if !ok {
		return testEntity{}, fmt.Errorf("not found: %s", id)
	}
	return e, nil
}

func (b *stubBackend) ChangeStatus(ctx context.Context, id string, req ChangeRequest) (testEntity, error) {
	b.mu.Lock()
	b.calls++
	block := b.block
	b.mu.Unlock()

	if block != nil {
		<-block
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return testEntity{}, b.failWith
	}
	e := b.entities[id]
	e.Status = req.NewStatus
	b.entities[id] = e
	return e, nil
}

func newTestExecutor(t *testing.T, backend *stubBackend, validate func(testEntity, ChangeRequest) error) *Executor[testEntity] {
	t.Helper()
	exec, err := NewExecutor[testEntity](backend, Hooks[testEntity]{
		Legal: testLegal,
		Authorize: func(_ testEntity, actor rbac.ActorContext, _ string) bool {
			return rbac.HasMinimumRole(actor.RoleLevel, rbac.RoleSalesRep)
		},
		Validate: validate,
		ApplyLocal: func(snap testEntity, req ChangeRequest) (testEntity, error) {
			snap.Status = req.NewStatus
			return snap, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return exec
}

func waitForCalls(t *testing.T, backend *stubBackend, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		backend.mu.Lock()
		calls := backend.calls
		backend.mu.Unlock()
		if calls >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("backend never reached %d calls", want)
}

var rep = rbac.ActorContext{ActorID: "rep-1", RoleLevel: rbac.RoleSalesRep}

func TestApplyHappyPath(t *testing.T) {
	backend := newStubBackend(testEntity{ID: "e1", Status: "placed"})
	exec := newTestExecutor(t, backend, nil)

	updated, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "paid"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "paid" {
		t.Fatalf("status=%s, want paid", updated.Status)
	}
	if snap, ok := exec.Snapshot("e1"); !ok || snap.Status != "paid" {
		t.Fatalf("local snapshot not updated: %+v ok=%v", snap, ok)
	}
}

func TestApplyRejectsUnauthorizedActor(t *testing.T) {
	backend := newStubBackend(testEntity{ID: "e1", Status: "placed"})
	exec := newTestExecutor(t, backend, nil)

	customer := rbac.ActorContext{ActorID: "cus-1", RoleLevel: rbac.RoleCustomer}
	_, err := exec.Apply(context.Background(), customer, "e1", ChangeRequest{NewStatus: "paid"})
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("backend must not be contacted on denial")
	}
}

func TestApplyRejectsIllegalTransition(t *testing.T) {
	backend := newStubBackend(testEntity{ID: "e1", Status: "placed"})
	exec := newTestExecutor(t, backend, nil)

	_, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "shipped"})
	if !errors.Is(err, ErrIllegal) {
		t.Fatalf("expected ErrIllegal, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("backend must not be contacted on illegal transition")
	}
}

func TestValidationRunsBeforeNetwork(t *testing.T) {
	backend := newStubBackend(testEntity{ID: "e1", Status: "processing"})
	exec := newTestExecutor(t, backend, func(_ testEntity, req ChangeRequest) error {
		if req.NewStatus == "shipped" && req.Metadata["tracking_number"] == "" {
			return fmt.Errorf("%w: tracking number is required", ErrValidation)
		}
		return nil
	})

	_, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "shipped"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("validation failure must not reach the backend")
	}
}

func TestSecondApplyReturnsBusy(t *testing.T) {
	backend := newStubBackend(testEntity{ID: "e1", Status: "placed"})
	backend.block = make(chan struct{})
	exec := newTestExecutor(t, backend, nil)

	// warm the snapshot so the in-flight call parks inside ChangeStatus
	if _, err := exec.Refresh(context.Background(), "e1"); err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "paid"})
		done <- err
	}()
	<-started
	waitForCalls(t, backend, 1)

	_, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "paid"})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	backend.mu.Lock()
	if backend.calls != 1 {
		backend.mu.Unlock()
		t.Fatalf("busy rejection must not contact the backend, calls=%d", backend.calls)
	}
	backend.mu.Unlock()

	close(backend.block)
	if err := <-done; err != nil {
		t.Fatalf("in-flight apply failed: %v", err)
	}

	// the lock is released once the first transition settles
	if _, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "processing"}); err != nil {
		t.Fatalf("apply after settle: %v", err)
	}
}

func TestOptimisticRollbackOnTransportFailure(t *testing.T) {
	backend := newStubBackend(testEntity{ID: "e1", Status: "placed"})
	exec := newTestExecutor(t, backend, nil)
	if _, err := exec.Refresh(context.Background(), "e1"); err != nil {
		t.Fatal(err)
	}

	backend.failWith = errors.New("connection reset")
	_, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "paid", Optimistic: true})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}

	snap, ok := exec.Snapshot("e1")
	if !ok || snap.Status != "placed" {
		t.Fatalf("optimistic update not rolled back: %+v ok=%v", snap, ok)
	}
}

func TestStaleStateDropsSnapshot(t *testing.T) {
	backend := newStubBackend(testEntity{ID: "e1", Status: "placed"})
	exec := newTestExecutor(t, backend, nil)
	if _, err := exec.Refresh(context.Background(), "e1"); err != nil {
		t.Fatal(err)
	}

	backend.failWith = fmt.Errorf("%w: expected placed", ErrStaleState)
	_, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "paid"})
	if !errors.Is(err, ErrStaleState) {
		t.Fatalf("expected ErrStaleState, got %v", err)
	}
	if _, ok := exec.Snapshot("e1"); ok {
		t.Fatalf("stale snapshot must be dropped to force a refetch")
	}

	// refetch, then the retry goes through
	backend.failWith = nil
	if _, err := exec.Refresh(context.Background(), "e1"); err != nil {
		t.Fatal(err)
	}
	if _, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "paid"}); err != nil {
		t.Fatalf("retry after refresh: %v", err)
	}
}

func TestGatedPathSkipsOptimisticUpdate(t *testing.T) {
	backend := newStubBackend(testEntity{ID: "e1", Status: "placed"})
	backend.block = make(chan struct{})
	exec := newTestExecutor(t, backend, nil)
	if _, err := exec.Refresh(context.Background(), "e1"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := exec.Apply(context.Background(), rep, "e1", ChangeRequest{NewStatus: "paid"})
		done <- err
	}()
	waitForCalls(t, backend, 1)

	// while the round trip is pending, the local snapshot must be untouched
	if snap, _ := exec.Snapshot("e1"); snap.Status != "placed" {
		t.Fatalf("gated path updated the snapshot early: %+v", snap)
	}

	close(backend.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if snap, _ := exec.Snapshot("e1"); snap.Status != "paid" {
		t.Fatalf("snapshot not updated after success: %+v", snap)
	}
}
