package remote

import (
	"context"
	"fmt"
	"net/http"

	"vendra.org/internal/order"
	"vendra.org/internal/transition"
)

// Orders adapts the backend's order endpoints to the executor's Backend
// interface.
type Orders struct {
	c *Client
}

var _ transition.Backend[order.Order] = (*Orders)(nil)

// Create opens a fresh pending order for a customer.
func (o *Orders) Create(ctx context.Context, customerID, assignedSalesRepID string, total order.Money) (order.Order, error) {
	if customerID == "" {
		return order.Order{}, fmt.Errorf("%w: customer_id is required", transition.ErrValidation)
	}
	body := map[string]any{
		"customer_id":           customerID,
		"assigned_sales_rep_id": assignedSalesRepID,
		"total":                 total,
	}
	var out order.Order
	if err := o.c.do(ctx, http.MethodPost, "/v1/orders", body, &out); err != nil {
		return order.Order{}, err
	}
	return out, nil
}

// Get fetches the current order snapshot.
func (o *Orders) Get(ctx context.Context, id string) (order.Order, error) {
	var out order.Order
	if err := o.c.do(ctx, http.MethodGet, "/v1/orders/"+id, nil, &out); err != nil {
		return order.Order{}, err
	}
	return out, nil
}

// ChangeStatus posts a generic status change.
func (o *Orders) ChangeStatus(ctx context.Context, id string, req transition.ChangeRequest) (order.Order, error) {
	var out order.Order
	if err := o.c.do(ctx, http.MethodPost, "/v1/orders/"+id+"/status", req, &out); err != nil {
		return order.Order{}, err
	}
	return out, nil
}

// ConfirmPayment is the specialized confirm-payment call: a status change to
// Paid carrying the payment reference and optional notes.
func (o *Orders) ConfirmPayment(ctx context.Context, id, reference, notes string) (order.Order, error) {
	if reference == "" {
		return order.Order{}, fmt.Errorf("%w: payment_reference is required", transition.ErrValidation)
	}
	body := map[string]string{"payment_reference": reference, "notes": notes}
	var out order.Order
	if err := o.c.do(ctx, http.MethodPost, "/v1/orders/"+id+"/confirm-payment", body, &out); err != nil {
		return order.Order{}, err
	}
	return out, nil
}

// MarkShipped is the specialized mark-shipped call carrying tracking details.
func (o *Orders) MarkShipped(ctx context.Context, id, trackingNumber, carrier string) (order.Order, error) {
	if trackingNumber == "" || carrier == "" {
		return order.Order{}, fmt.Errorf("%w: tracking_number and carrier are required", transition.ErrValidation)
	}
	body := map[string]string{"tracking_number": trackingNumber, "carrier": carrier}
	var out order.Order
	if err := o.c.do(ctx, http.MethodPost, "/v1/orders/"+id+"/mark-shipped", body, &out); err != nil {
		return order.Order{}, err
	}
	return out, nil
}
