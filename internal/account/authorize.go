package account

import "vendra.org/internal/rbac"

// Actions is the flat set of capability flags for one actor against one
// account snapshot, combining the adjacency machine with grant-table checks.
type Actions struct {
	CanRead               bool `json:"can_read"`
	CanUpdate             bool `json:"can_update"`
	CanSuspend            bool `json:"can_suspend"`
	CanArchive            bool `json:"can_archive"`
	CanReactivate         bool `json:"can_reactivate"`
	CanForcePasswordReset bool `json:"can_force_password_reset"`
	CanGrantRole          bool `json:"can_grant_role"`
	CanGrantAdmin         bool `json:"can_grant_admin"`
	CanDelete             bool `json:"can_delete"`
}

// Authorize derives the action flags for one account and one actor. Relational
// facts are recomputed from the snapshot on every call.
func Authorize(acct Account, actor rbac.ActorContext) Actions {
	actor = actor.ForEntity(acct.ID, acct.AssignedSalesRepID)

	var a Actions
	a.CanRead = rbac.HasScopedPermission(rbac.ResourceAccounts, rbac.ActionRead, actor)
	a.CanUpdate = rbac.HasScopedPermission(rbac.ResourceAccounts, rbac.ActionUpdate, actor)

	a.CanSuspend = CanTransition(acct.Status, StatusSuspended) &&
		rbac.HasPermission(rbac.ResourceAccounts, rbac.ActionSuspend, rbac.ScopeAll, actor.RoleLevel)
	a.CanArchive = CanTransition(acct.Status, StatusArchived) &&
		rbac.HasPermission(rbac.ResourceAccounts, rbac.ActionArchive, rbac.ScopeAll, actor.RoleLevel)
	a.CanReactivate = CanTransition(acct.Status, StatusActive) &&
		rbac.HasPermission(rbac.ResourceAccounts, rbac.ActionReactivate, rbac.ScopeAll, actor.RoleLevel)
	a.CanForcePasswordReset = CanTransition(acct.Status, StatusForcePasswordChange) &&
		rbac.HasPermission(rbac.ResourceAccounts, rbac.ActionForcePasswordReset, rbac.ScopeAll, actor.RoleLevel)

	a.CanGrantRole = rbac.HasPermission(rbac.ResourceAccounts, rbac.ActionGrantRole, rbac.ScopeAll, actor.RoleLevel)
	// Admin and above is the highest tier a plain admin may hand out; the top
	// tier itself is reserved for super admins.
	a.CanGrantAdmin = a.CanGrantRole && rbac.HasMinimumRole(actor.RoleLevel, rbac.RoleSuperAdmin)

	a.CanDelete = rbac.HasPermission(rbac.ResourceAccounts, rbac.ActionDelete, rbac.ScopeAll, actor.RoleLevel)

	return a
}

// AuthorizeTransition maps a requested target status to its governing flag so
// executors can re-validate right before sending.
func AuthorizeTransition(acct Account, actor rbac.ActorContext, to Status) bool {
	flags := Authorize(acct, actor)
	switch to {
	case StatusSuspended:
		return flags.CanSuspend
	case StatusArchived:
		return flags.CanArchive
	case StatusActive:
		return flags.CanReactivate
	case StatusForcePasswordChange:
		return flags.CanForcePasswordReset
	default:
		return false
	}
}

// RequiresConfirmation reports whether a status change must pass through the
// two-phase confirmation workflow before it is committed.
func RequiresConfirmation(to Status) bool {
	switch to {
	case StatusSuspended, StatusLocked, StatusArchived:
		return true
	default:
		return false
	}
}

// RoleGrantRequiresConfirmation reports whether granting the given role level
// must be confirmed first: only the highest tiers are gated.
func RoleGrantRequiresConfirmation(level rbac.RoleLevel) bool {
	return rbac.HasMinimumRole(level, rbac.RoleAdmin)
}
