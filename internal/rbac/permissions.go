package rbac

// Resource identifies an entity kind permissions apply to.
type Resource string

const (
	ResourceOrders   Resource = "orders"
	ResourceAccounts Resource = "accounts"
)

// Action identifies the verb being requested on a resource.
type Action string

const (
	ActionRead                Action = "read"
	ActionUpdate              Action = "update"
	ActionDelete              Action = "delete"
	ActionConfirmPayment      Action = "confirm_payment"
	ActionMarkProcessing      Action = "mark_processing"
	ActionMarkShipped         Action = "mark_shipped"
	ActionMarkDelivered       Action = "mark_delivered"
	ActionCancel              Action = "cancel"
	ActionRequestCancellation Action = "request_cancellation"
	ActionSuspend             Action = "suspend"
	ActionArchive             Action = "archive"
	ActionReactivate          Action = "reactivate"
	ActionForcePasswordReset  Action = "force_password_reset"
	ActionGrantRole           Action = "grant_role"
)

// Scope is the relational breadth a grant applies to.
type Scope string

const (
	ScopeOwn      Scope = "own"
	ScopeAssigned Scope = "assigned"
	ScopeAll      Scope = "all"
)

type grantKey struct {
	resource Resource
	action   Action
	scope    Scope
}

// grants maps a (resource, action, scope) triple to the minimum role level
// allowed to perform it. Absence of an entry means denied.
var grants = map[grantKey]RoleLevel{
	// Orders
	{ResourceOrders, ActionRead, ScopeOwn}:      RoleCustomer,
	{ResourceOrders, ActionRead, ScopeAssigned}: RoleSalesRep,
	{ResourceOrders, ActionRead, ScopeAll}:      RoleSalesManager,

	{ResourceOrders, ActionUpdate, ScopeOwn}:      RoleCustomer,
	{ResourceOrders, ActionUpdate, ScopeAssigned}: RoleSalesRep,
	{ResourceOrders, ActionUpdate, ScopeAll}:      RoleSalesManager,

	{ResourceOrders, ActionConfirmPayment, ScopeAssigned}: RoleSalesRep,
	{ResourceOrders, ActionConfirmPayment, ScopeAll}:      RoleSalesManager,

	{ResourceOrders, ActionMarkProcessing, ScopeAll}: RoleFulfillmentCoordinator,
	{ResourceOrders, ActionMarkShipped, ScopeAll}:    RoleFulfillmentCoordinator,
	{ResourceOrders, ActionMarkDelivered, ScopeAll}:  RoleFulfillmentCoordinator,

	{ResourceOrders, ActionCancel, ScopeAll}:              RoleSalesManager,
	{ResourceOrders, ActionRequestCancellation, ScopeOwn}: RoleCustomer,

	{ResourceOrders, ActionDelete, ScopeAll}: RoleAdmin,

	// Accounts
	{ResourceAccounts, ActionRead, ScopeOwn}:      RoleCustomer,
	{ResourceAccounts, ActionRead, ScopeAssigned}: RoleSalesRep,
	{ResourceAccounts, ActionRead, ScopeAll}:      RoleSalesManager,

	{ResourceAccounts, ActionUpdate, ScopeOwn}: RoleCustomer,
	{ResourceAccounts, ActionUpdate, ScopeAll}: RoleAdmin,

	{ResourceAccounts, ActionSuspend, ScopeAll}:            RoleAdmin,
	{ResourceAccounts, ActionArchive, ScopeAll}:            RoleAdmin,
	{ResourceAccounts, ActionReactivate, ScopeAll}:         RoleAdmin,
	{ResourceAccounts, ActionForcePasswordReset, ScopeAll}: RoleAdmin,
	{ResourceAccounts, ActionGrantRole, ScopeAll}:          RoleAdmin,

	{ResourceAccounts, ActionDelete, ScopeAll}: RoleAdmin,
}

// HasPermission reports whether a role level is granted the given triple.
// Unknown triples deny; there is no permissive default.
func HasPermission(resource Resource, action Action, scope Scope, level RoleLevel) bool {
	required, ok := grants[grantKey{resource, action, scope}]
	if !ok {
		return false
	}
	return HasMinimumRole(level, required)
}

// HasScopedPermission resolves an action against the actor context, checking
// the narrowest applicable scope first: Own when the actor is the subject,
// Assigned when the actor is linked to the entity, then All. The action is
// permitted if any scope passes with its relational fact true.
func HasScopedPermission(resource Resource, action Action, actor ActorContext) bool {
	if actor.IsOwner && HasPermission(resource, action, ScopeOwn, actor.RoleLevel) {
		return true
	}
	if actor.IsAssigned && HasPermission(resource, action, ScopeAssigned, actor.RoleLevel) {
		return true
	}
	return HasPermission(resource, action, ScopeAll, actor.RoleLevel)
}
