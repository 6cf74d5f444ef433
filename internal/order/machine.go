package order

import (
	"fmt"
	"time"
)

// happyPath is the canonical forward sequence. Cancelled sits outside of it
// as a side exit reachable from any non-terminal status.
var happyPath = []Status{
	StatusPending,
	StatusWaitingCustomerApproval,
	StatusPlaced,
	StatusPaid,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

var happyPathIndex = func() map[Status]int {
	idx := make(map[Status]int, len(happyPath))
	for i, s := range happyPath {
		idx[s] = i
	}
	return idx
}()

// KnownStatus reports whether s is a valid order status.
func KnownStatus(s Status) bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := happyPathIndex[s]
	return ok
}

// IsTerminal is true only for Delivered and Cancelled.
func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// NextStatus returns the single successor in the happy-path sequence, or
// ok=false when the status is terminal or unknown. Cancelled has no successor.
func NextStatus(s Status) (Status, bool) {
	i, ok := happyPathIndex[s]
	if !ok || i == len(happyPath)-1 {
		return "", false
	}
	return happyPath[i+1], true
}

// CanTransition reports structural legality only; it encodes no actor
// restrictions. A forward move is legal iff to is the immediate successor of
// from. Cancellation is legal from any non-terminal status. Backward moves and
// skips are never legal.
func CanTransition(from, to Status) bool {
	if !KnownStatus(from) || !KnownStatus(to) {
		return false
	}
	if to == StatusCancelled {
		return !IsTerminal(from)
	}
	next, ok := NextStatus(from)
	return ok && next == to
}

// ValidateTransition returns ErrIllegalTransition when the move is not legal.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// MarkStatus commits a validated transition on the snapshot and stamps the
// matching timestamp exactly once.
func (o *Order) MarkStatus(to Status, now time.Time) error {
	if err := ValidateTransition(o.Status, to); err != nil {
		return err
	}
	o.Status = to
	switch to {
	case StatusPaid:
		if o.PaymentConfirmedAt == nil {
			o.PaymentConfirmedAt = &now
		}
	case StatusProcessing:
		if o.ProcessingAt == nil {
			o.ProcessingAt = &now
		}
	case StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
	}
	return nil
}
