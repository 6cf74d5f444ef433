package order

import "vendra.org/internal/rbac"

// Actions is the flat set of capability flags for one actor against one order
// snapshot. Every flag combines structural legality from the status machine
// with a permission engine grant at the narrowest applicable scope.
type Actions struct {
	CanRead                bool `json:"can_read"`
	CanUpdate              bool `json:"can_update"`
	CanConfirmPayment      bool `json:"can_confirm_payment"`
	CanMarkProcessing      bool `json:"can_mark_processing"`
	CanMarkShipped         bool `json:"can_mark_shipped"`
	CanMarkDelivered       bool `json:"can_mark_delivered"`
	CanCancel              bool `json:"can_cancel"`
	CanRequestCancellation bool `json:"can_request_cancellation"`
	CanDelete              bool `json:"can_delete"`
}

// fulfillmentRole gates warehouse actions: the fulfillment coordinator role
// itself, or manager and above. A sales rep is excluded even when assigned.
func fulfillmentRole(level rbac.RoleLevel) bool {
	return level == rbac.RoleFulfillmentCoordinator || rbac.HasMinimumRole(level, rbac.RoleSalesManager)
}

// Authorize derives the action flags for one order and one actor. Relational
// facts are recomputed from the snapshot on every call; nothing is cached.
func Authorize(o Order, actor rbac.ActorContext) Actions {
	actor = actor.ForEntity(o.CustomerID, o.AssignedSalesRepID)

	var a Actions
	a.CanRead = rbac.HasScopedPermission(rbac.ResourceOrders, rbac.ActionRead, actor)
	a.CanUpdate = !IsTerminal(o.Status) &&
		rbac.HasScopedPermission(rbac.ResourceOrders, rbac.ActionUpdate, actor)

	a.CanConfirmPayment = o.Status == StatusPlaced &&
		rbac.HasScopedPermission(rbac.ResourceOrders, rbac.ActionConfirmPayment, actor)

	a.CanMarkProcessing = o.Status == StatusPaid &&
		fulfillmentRole(actor.RoleLevel) &&
		rbac.HasPermission(rbac.ResourceOrders, rbac.ActionMarkProcessing, rbac.ScopeAll, actor.RoleLevel)
	a.CanMarkShipped = o.Status == StatusProcessing &&
		fulfillmentRole(actor.RoleLevel) &&
		rbac.HasPermission(rbac.ResourceOrders, rbac.ActionMarkShipped, rbac.ScopeAll, actor.RoleLevel)
	a.CanMarkDelivered = o.Status == StatusShipped &&
		fulfillmentRole(actor.RoleLevel) &&
		rbac.HasPermission(rbac.ResourceOrders, rbac.ActionMarkDelivered, rbac.ScopeAll, actor.RoleLevel)

	// Manager-initiated cancel. Shipped orders are handled through the return
	// flow, never a direct cancel, so Shipped is excluded here even though the
	// status machine permits the move structurally.
	a.CanCancel = !IsTerminal(o.Status) && o.Status != StatusShipped &&
		rbac.HasPermission(rbac.ResourceOrders, rbac.ActionCancel, rbac.ScopeAll, actor.RoleLevel)

	// Customer cancellation request is a distinct low-risk action: plain
	// customers only, on their own order, before fulfillment starts.
	a.CanRequestCancellation = actor.IsOwner &&
		(o.Status == StatusPlaced || o.Status == StatusPaid) &&
		actor.RoleLevel < rbac.RoleSalesRep &&
		rbac.HasPermission(rbac.ResourceOrders, rbac.ActionRequestCancellation, rbac.ScopeOwn, actor.RoleLevel)

	a.CanDelete = rbac.HasPermission(rbac.ResourceOrders, rbac.ActionDelete, rbac.ScopeAll, actor.RoleLevel)

	return a
}

// RequiresConfirmation reports whether the transition must pass through the
// two-phase confirmation workflow. Only the customer's own cancellation
// request is low-risk; every other cancellation is confirmation-gated.
func RequiresConfirmation(o Order, actor rbac.ActorContext, to Status) bool {
	if to != StatusCancelled {
		return false
	}
	flags := Authorize(o, actor)
	return !flags.CanRequestCancellation
}

// AuthorizeTransition maps a requested target status to the flag that governs
// it, so executors can re-validate a transition right before it is sent.
func AuthorizeTransition(o Order, actor rbac.ActorContext, to Status) bool {
	flags := Authorize(o, actor)
	switch to {
	case StatusWaitingCustomerApproval, StatusPlaced:
		return flags.CanUpdate
	case StatusPaid:
		return flags.CanConfirmPayment
	case StatusProcessing:
		return flags.CanMarkProcessing
	case StatusShipped:
		return flags.CanMarkShipped
	case StatusDelivered:
		return flags.CanMarkDelivered
	case StatusCancelled:
		return flags.CanCancel || flags.CanRequestCancellation
	default:
		return false
	}
}
