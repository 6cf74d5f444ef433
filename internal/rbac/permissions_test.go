package rbac

import "testing"

func TestHasPermissionGrantTable(t *testing.T) {
	cases := []struct {
		name     string
		resource Resource
		action   Action
		scope    Scope
		level    RoleLevel
		want     bool
	}{
		{"customer reads own order", ResourceOrders, ActionRead, ScopeOwn, RoleCustomer, true},
		{"customer cannot read all orders", ResourceOrders, ActionRead, ScopeAll, RoleCustomer, false},
		{"rep reads assigned order", ResourceOrders, ActionRead, ScopeAssigned, RoleSalesRep, true},
		{"manager reads any order", ResourceOrders, ActionRead, ScopeAll, RoleSalesManager, true},
		{"rep confirms payment on assigned", ResourceOrders, ActionConfirmPayment, ScopeAssigned, RoleSalesRep, true},
		{"rep cannot confirm payment on all", ResourceOrders, ActionConfirmPayment, ScopeAll, RoleSalesRep, false},
		{"rep cannot mark shipped", ResourceOrders, ActionMarkShipped, ScopeAll, RoleSalesRep, false},
		{"coordinator marks shipped", ResourceOrders, ActionMarkShipped, ScopeAll, RoleFulfillmentCoordinator, true},
		{"manager cancels", ResourceOrders, ActionCancel, ScopeAll, RoleSalesManager, true},
		{"customer requests cancellation of own order", ResourceOrders, ActionRequestCancellation, ScopeOwn, RoleCustomer, true},
		{"manager cannot delete orders", ResourceOrders, ActionDelete, ScopeAll, RoleSalesManager, false},
		{"admin deletes orders", ResourceOrders, ActionDelete, ScopeAll, RoleAdmin, true},
		{"admin suspends accounts", ResourceAccounts, ActionSuspend, ScopeAll, RoleAdmin, true},
		{"manager cannot suspend accounts", ResourceAccounts, ActionSuspend, ScopeAll, RoleSalesManager, false},
	}
	for _, tc := range cases {
		if got := HasPermission(tc.resource, tc.action, tc.scope, tc.level); got != tc.want {
			t.Fatalf("%s: HasPermission=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHasPermissionUnknownTripleDenies(t *testing.T) {
	unknown := []struct {
		resource Resource
		action   Action
		scope    Scope
	}{
		{ResourceOrders, ActionSuspend, ScopeAll},
		{ResourceAccounts, ActionMarkShipped, ScopeAll},
		{ResourceOrders, ActionConfirmPayment, ScopeOwn},
		{Resource("invoices"), ActionRead, ScopeAll},
		{ResourceOrders, Action("teleport"), ScopeAll},
		{ResourceOrders, ActionRead, Scope("galaxy")},
	}
	for _, u := range unknown {
		for _, level := range Levels() {
			if HasPermission(u.resource, u.action, u.scope, level) {
				t.Fatalf("unknown triple (%s,%s,%s) granted for %v", u.resource, u.action, u.scope, level)
			}
		}
	}
}

func TestHasScopedPermissionResolution(t *testing.T) {
	owner := ActorContext{ActorID: "cus-1", RoleLevel: RoleCustomer, IsOwner: true}
	if !HasScopedPermission(ResourceOrders, ActionRead, owner) {
		t.Fatalf("owner customer should read own order")
	}

	stranger := ActorContext{ActorID: "cus-2", RoleLevel: RoleCustomer}
	if HasScopedPermission(ResourceOrders, ActionRead, stranger) {
		t.Fatalf("unrelated customer must not read the order")
	}

	assignedRep := ActorContext{ActorID: "rep-1", RoleLevel: RoleSalesRep, IsAssigned: true}
	if !HasScopedPermission(ResourceOrders, ActionRead, assignedRep) {
		t.Fatalf("assigned rep should read the order")
	}

	unassignedRep := ActorContext{ActorID: "rep-2", RoleLevel: RoleSalesRep}
	if HasScopedPermission(ResourceOrders, ActionRead, unassignedRep) {
		t.Fatalf("unassigned rep must not read the order")
	}

	manager := ActorContext{ActorID: "mgr-1", RoleLevel: RoleSalesManager}
	if !HasScopedPermission(ResourceOrders, ActionRead, manager) {
		t.Fatalf("manager should read any order")
	}
}

func TestForEntityRecomputesRelationalFacts(t *testing.T) {
	actor := ActorContext{ActorID: "rep-1", RoleLevel: RoleSalesRep}

	ctx := actor.ForEntity("cus-1", "rep-1")
	if ctx.IsOwner || !ctx.IsAssigned {
		t.Fatalf("expected assigned-only facts, got %+v", ctx)
	}

	ctx = actor.ForEntity("rep-1", "")
	if !ctx.IsOwner || ctx.IsAssigned {
		t.Fatalf("expected owner-only facts, got %+v", ctx)
	}

	anonymous := ActorContext{RoleLevel: RoleCustomer}
	ctx = anonymous.ForEntity("", "")
	if ctx.IsOwner || ctx.IsAssigned {
		t.Fatalf("empty actor id must never match relational facts")
	}
}
