package account

import (
	"errors"
	"time"

	"vendra.org/internal/rbac"
)

// Status is one point in the account lifecycle. Unlike order statuses the set
// is not linearly ordered; legality is an explicit adjacency rule.
type Status string

const (
	StatusActive              Status = "active"
	StatusSuspended           Status = "suspended"
	StatusLocked              Status = "locked"
	StatusArchived            Status = "archived"
	StatusPendingVerification Status = "pending_verification"
	StatusForcePasswordChange Status = "force_password_change"
)

// Account is a customer or staff account snapshot.
type Account struct {
	ID                 string         `json:"id"`
	Email              string         `json:"email"`
	PasswordHash       string         `json:"-"`
	RoleLevel          rbac.RoleLevel `json:"role_level"`
	Status             Status         `json:"status"`
	AssignedSalesRepID string         `json:"assigned_sales_rep_id,omitempty"`
	FailedLogins       int            `json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

var (
	ErrNotFound          = errors.New("account: not found")
	ErrAlreadyExists     = errors.New("account: already exists")
	ErrInvalidInput      = errors.New("account: invalid input")
	ErrIllegalTransition = errors.New("account: illegal status transition")
	ErrUnknownStatus     = errors.New("account: unknown status")

	// ErrAutomaticOnly rejects operator-initiated moves into Locked; locking
	// happens only through consecutive failed authentication attempts.
	ErrAutomaticOnly = errors.New("account: status is reachable automatically only")

	// ErrCreationOnly rejects moves into PendingVerification after creation.
	ErrCreationOnly = errors.New("account: status is reachable at creation only")
)
