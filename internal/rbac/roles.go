package rbac

import (
	"fmt"
	"strings"
)

// RoleLevel is an integer-backed role with a total order. Higher means more
// authority. Gaps between levels are intentional so new roles can be inserted
// without renumbering.
type RoleLevel int

const (
	RoleCustomer               RoleLevel = 0
	RoleSalesRep               RoleLevel = 1000
	RoleFulfillmentCoordinator RoleLevel = 2000
	RoleSalesManager           RoleLevel = 4000
	RoleAdmin                  RoleLevel = 5000
	RoleSuperAdmin             RoleLevel = 9999
)

var roleNames = map[RoleLevel]string{
	RoleCustomer:               "customer",
	RoleSalesRep:               "sales_rep",
	RoleFulfillmentCoordinator: "fulfillment_coordinator",
	RoleSalesManager:           "sales_manager",
	RoleAdmin:                  "admin",
	RoleSuperAdmin:             "super_admin",
}

// Levels returns all known role levels in ascending order.
func Levels() []RoleLevel {
	return []RoleLevel{
		RoleCustomer,
		RoleSalesRep,
		RoleFulfillmentCoordinator,
		RoleSalesManager,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// String returns the canonical name for a known level, or a numeric form.
func (r RoleLevel) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRoleLevel resolves a canonical role name back to its level.
func ParseRoleLevel(name string) (RoleLevel, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for level, n := range roleNames {
		if n == name {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, name)
}

// HasMinimumRole reports whether actor is at least the required level.
func HasMinimumRole(actor, required RoleLevel) bool {
	return actor >= required
}
