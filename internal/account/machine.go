package account

import "fmt"

// MaxFailedLogins is the number of consecutive failed authentication attempts
// after which an account locks automatically.
const MaxFailedLogins = 5

var knownStatuses = map[Status]struct{}{
	StatusActive:              {},
	StatusSuspended:           {},
	StatusLocked:              {},
	StatusArchived:            {},
	StatusPendingVerification: {},
	StatusForcePasswordChange: {},
}

// KnownStatus reports whether s is a valid account status.
func KnownStatus(s Status) bool {
	_, ok := knownStatuses[s]
	return ok
}

// CanTransition reports whether a direct, operator-initiated move is legal.
// Locked and PendingVerification are excluded here on purpose: use
// ValidateTransition when the caller needs to know why.
func CanTransition(from, to Status) bool {
	return ValidateTransition(from, to) == nil
}

// ValidateTransition applies the adjacency rule for direct transitions.
// Locked is reachable automatically only; PendingVerification is reachable at
// creation only; the remaining statuses are mutually reachable. Permission
// checks are the authorizer's concern, not this machine's.
func ValidateTransition(from, to Status) error {
	if !KnownStatus(from) || !KnownStatus(to) {
		return fmt.Errorf("%w: %s -> %s", ErrUnknownStatus, from, to)
	}
	if to == StatusLocked {
		return fmt.Errorf("%w: %s -> %s", ErrAutomaticOnly, from, to)
	}
	if to == StatusPendingVerification {
		return fmt.Errorf("%w: %s -> %s", ErrCreationOnly, from, to)
	}
	if from == to {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// RecordFailedLogin increments the consecutive failure counter and locks the
// account when the threshold is reached. Returns true when this call locked
// the account.
func (a *Account) RecordFailedLogin() bool {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins && a.Status != StatusLocked {
		a.Status = StatusLocked
		return true
	}
	return false
}

// RecordSuccessfulLogin resets the consecutive failure counter.
func (a *Account) RecordSuccessfulLogin() {
	a.FailedLogins = 0
}

// Unlock is the administrative exit from Locked back to Active.
func (a *Account) Unlock() {
	if a.Status == StatusLocked {
		a.Status = StatusActive
		a.FailedLogins = 0
	}
}
