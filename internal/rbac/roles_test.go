package rbac

import "testing"

func TestRoleLevelsStrictTotalOrder(t *testing.T) {
	levels := Levels()
	for i, a := range levels {
		for j, b := range levels {
			if i == j {
				continue
			}
			less := a < b
			greater := a > b
			if less == greater {
				t.Fatalf("levels %v and %v are not strictly ordered", a, b)
			}
		}
	}
	for i := 1; i < len(levels); i++ {
		if levels[i-1] >= levels[i] {
			t.Fatalf("Levels() not ascending at %d: %v >= %v", i, levels[i-1], levels[i])
		}
	}
}

func TestHasMinimumRole(t *testing.T) {
	if !HasMinimumRole(RoleSalesManager, RoleSalesRep) {
		t.Fatalf("manager should satisfy sales_rep minimum")
	}
	if !HasMinimumRole(RoleSalesRep, RoleSalesRep) {
		t.Fatalf("minimum role check must be inclusive")
	}
	if HasMinimumRole(RoleCustomer, RoleSalesRep) {
		t.Fatalf("customer must not satisfy sales_rep minimum")
	}
}

func TestParseRoleLevelRoundTrip(t *testing.T) {
	for _, level := range Levels() {
		parsed, err := ParseRoleLevel(level.String())
		if err != nil {
			t.Fatalf("parse %q: %v", level.String(), err)
		}
		if parsed != level {
			t.Fatalf("round trip mismatch: %v != %v", parsed, level)
		}
	}
	if _, err := ParseRoleLevel("warehouse_wizard"); err == nil {
		t.Fatalf("expected error for unknown role name")
	}
}
