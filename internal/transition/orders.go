package transition

import (
	"fmt"
	"time"

	"vendra.org/internal/order"
	"vendra.org/internal/rbac"
)

// OrderHooks binds an executor to the order rule systems: the ordinal status
// machine, the order authorizer, and the side-payload requirements of the
// specialized transitions.
func OrderHooks(now func() time.Time) Hooks[order.Order] {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return Hooks[order.Order]{
		Legal: func(o order.Order, newStatus string) bool {
			return order.CanTransition(o.Status, order.Status(newStatus))
		},
		Authorize: func(o order.Order, actor rbac.ActorContext, newStatus string) bool {
			return order.AuthorizeTransition(o, actor, order.Status(newStatus))
		},
		Validate: func(o order.Order, req ChangeRequest) error {
			switch order.Status(req.NewStatus) {
			case order.StatusPaid:
				if req.Metadata["payment_reference"] == "" {
					return fmt.Errorf("%w: payment_reference is required", ErrValidation)
				}
			case order.StatusShipped:
				if req.Metadata["tracking_number"] == "" {
					return fmt.Errorf("%w: tracking_number is required", ErrValidation)
				}
				if req.Metadata["carrier"] == "" {
					return fmt.Errorf("%w: carrier is required", ErrValidation)
				}
			}
			return nil
		},
		ApplyLocal: func(o order.Order, req ChangeRequest) (order.Order, error) {
			if err := o.MarkStatus(order.Status(req.NewStatus), now()); err != nil {
				return order.Order{}, err
			}
			return o, nil
		},
		StatusOf: func(o order.Order) string { return string(o.Status) },
	}
}

// NewOrderExecutor wires an order executor against a backend.
func NewOrderExecutor(backend Backend[order.Order]) (*Executor[order.Order], error) {
	return NewExecutor[order.Order](backend, OrderHooks(nil))
}
