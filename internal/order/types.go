package order

import (
	"errors"
	"time"
)

// Status is one point in the order lifecycle.
type Status string

const (
	StatusPending                 Status = "pending"
	StatusWaitingCustomerApproval Status = "waiting_customer_approval"
	StatusPlaced                  Status = "placed"
	StatusPaid                    Status = "paid"
	StatusProcessing              Status = "processing"
	StatusShipped                 Status = "shipped"
	StatusDelivered               Status = "delivered"
	StatusCancelled               Status = "cancelled"
)

// Money is represented in minor units (e.g., cents). No floats.
type Money struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

func (m Money) IsPositive() bool { return m.Amount > 0 }

// Order is a customer order snapshot. Transition timestamps are set exactly
// once when the corresponding transition commits and are never cleared: a
// timestamp is present iff the order has ever reached or passed that status.
type Order struct {
	ID                 string `json:"id"`
	CustomerID         string `json:"customer_id"`
	AssignedSalesRepID string `json:"assigned_sales_rep_id,omitempty"`
	Status             Status `json:"status"`
	Total              Money  `json:"total"`

	TrackingNumber   string `json:"tracking_number,omitempty"`
	Carrier          string `json:"carrier,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`

	CreatedAt          time.Time  `json:"created_at"`
	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`
	ProcessingAt       *time.Time `json:"processing_at,omitempty"`
	ShippedAt          *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

var (
	ErrNotFound          = errors.New("order: not found")
	ErrInvalidInput      = errors.New("order: invalid input")
	ErrIllegalTransition = errors.New("order: illegal status transition")
	ErrUnknownStatus     = errors.New("order: unknown status")
)
