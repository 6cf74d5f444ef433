package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"vendra.org/internal/order"
	"vendra.org/internal/rbac"
	"vendra.org/internal/remote"
	"vendra.org/internal/transition"
	"vendra.org/internal/workflow"
)

// Drives one order through the full lifecycle against a running API and
// verifies the terminal state. Needs an admin token so every step is
// authorized.
func main() {
	log.SetFlags(0)

	base := os.Getenv("VENDRA_API_ADDR")
	if base == "" {
		base = "http://localhost:8080"
	}
	token := os.Getenv("VENDRA_SMOKE_TOKEN")
	if token == "" {
		log.Fatal("VENDRA_SMOKE_TOKEN is required (admin token)")
	}
	actorID := os.Getenv("VENDRA_SMOKE_ACTOR")
	if actorID == "" {
		actorID = "smoke-admin"
	}

	client := remote.New(base, remote.WithToken(token), remote.WithTimeout(5*time.Second))
	orders := client.Orders()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	created, err := orders.Create(ctx, "smoke-customer", "", order.Money{Currency: "USD", Amount: 12_00})
	if err != nil {
		log.Fatalf("create order: %v", err)
	}
	if created.Status != order.StatusPending {
		log.Fatalf("fresh order status %s, want pending", created.Status)
	}

	exec, err := transition.NewOrderExecutor(orders)
	if err != nil {
		log.Fatalf("executor: %v", err)
	}
	actor := rbac.ActorContext{ActorID: actorID, RoleLevel: rbac.RoleAdmin}

	steps := []transition.ChangeRequest{
		{NewStatus: string(order.StatusWaitingCustomerApproval), Optimistic: true},
		{NewStatus: string(order.StatusPlaced), Optimistic: true},
		{NewStatus: string(order.StatusPaid), Metadata: map[string]string{"payment_reference": "smoke-pay"}, Optimistic: true},
		{NewStatus: string(order.StatusProcessing), Optimistic: true},
		{NewStatus: string(order.StatusShipped), Metadata: map[string]string{"tracking_number": "smoke-track", "carrier": "ups"}, Optimistic: true},
		{NewStatus: string(order.StatusDelivered), Optimistic: true},
	}
	for _, step := range steps {
		if _, err := exec.Apply(ctx, actor, created.ID, step); err != nil {
			log.Fatalf("transition to %s: %v", step.NewStatus, err)
		}
	}

	final, err := orders.Get(ctx, created.ID)
	if err != nil {
		log.Fatalf("fetch final order: %v", err)
	}
	if final.Status != order.StatusDelivered {
		log.Fatalf("final status %s, want delivered", final.Status)
	}
	if final.PaymentConfirmedAt == nil || final.ShippedAt == nil || final.DeliveredAt == nil {
		log.Fatalf("lifecycle timestamps missing: %+v", final)
	}
	if final.TrackingNumber != "smoke-track" {
		log.Fatalf("tracking number %q, want smoke-track", final.TrackingNumber)
	}

	// Second order: a manager-path cancel is high risk and must go through
	// the staged confirmation before it commits.
	doomed, err := orders.Create(ctx, "smoke-customer", "", order.Money{Currency: "USD", Amount: 5_00})
	if err != nil {
		log.Fatalf("create doomed order: %v", err)
	}
	if !order.RequiresConfirmation(doomed, actor, order.StatusCancelled) {
		log.Fatal("admin cancel must be confirmation gated")
	}

	conf := workflow.NewConfirmation[transition.ChangeRequest]()
	cancelReq := transition.ChangeRequest{
		NewStatus: string(order.StatusCancelled),
		Reason:    "smoke cleanup",
	}
	if err := conf.Stage(workflow.PendingChange[transition.ChangeRequest]{Target: cancelReq, RequiresConfirmation: true}); err != nil {
		log.Fatalf("stage cancel: %v", err)
	}
	err = conf.Confirm(ctx, func(ctx context.Context, staged transition.ChangeRequest) error {
		_, applyErr := exec.Apply(ctx, actor, doomed.ID, staged)
		return applyErr
	})
	if err != nil {
		log.Fatalf("confirm cancel: %v", err)
	}

	cancelled, err := orders.Get(ctx, doomed.ID)
	if err != nil {
		log.Fatalf("fetch cancelled order: %v", err)
	}
	if cancelled.Status != order.StatusCancelled || cancelled.CancelledAt == nil {
		log.Fatalf("cancel not committed: %+v", cancelled)
	}

	fmt.Printf("✅ order lifecycle smoke test passed: order=%s cancelled=%s\n", created.ID, doomed.ID)
}
