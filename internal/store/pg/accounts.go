package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"vendra.org/internal/account"
	"vendra.org/internal/ids"
	"vendra.org/internal/rbac"
)

const accountColumns = `id, email, password_hash, role_level, status, assigned_sales_rep_id,
	failed_logins, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (account.Account, error) {
	var a account.Account
	var assigned sql.NullString
	var role int
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &role, &a.Status, &assigned,
		&a.FailedLogins, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return account.Account{}, account.ErrNotFound
	}
	if err != nil {
		return account.Account{}, err
	}
	a.RoleLevel = rbac.RoleLevel(role)
	a.AssignedSalesRepID = assigned.String
	return a, nil
}

// CreateAccount inserts a new account in PendingVerification: the only moment
// that status is reachable.
func (s *Store) CreateAccount(ctx context.Context, email, passwordHash string, role rbac.RoleLevel) (account.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || passwordHash == "" {
		return account.Account{}, account.ErrInvalidInput
	}
	now := time.Now().UTC()
	a := account.Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: passwordHash,
		RoleLevel:    role,
		Status:       account.StatusPendingVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx, `
		insert into accounts(id, email, password_hash, role_level, status, failed_logins, created_at, updated_at)
		values ($1, $2, $3, $4, $5, 0, $6, $6)
	`, a.ID, a.Email, a.PasswordHash, int(a.RoleLevel), a.Status, now)
	if err != nil {
		return account.Account{}, err
	}
	return a, nil
}

// GetAccount loads one account snapshot.
func (s *Store) GetAccount(ctx context.Context, id string) (account.Account, error) {
	row := s.db.QueryRowContext(ctx, `select `+accountColumns+` from accounts where id=$1`, id)
	return scanAccount(row)
}

// GetAccountByEmail loads an account by its unique email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := s.db.QueryRowContext(ctx, `select `+accountColumns+` from accounts where email=$1`, email)
	return scanAccount(row)
}

// UpdateAccountStatus commits a status transition after validating it against
// the adjacency machine, with stale detection on the expected status.
func (s *Store) UpdateAccountStatus(ctx context.Context, id string, expected, to account.Status) (account.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return account.Account{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `select `+accountColumns+` from accounts where id=$1 for update`, id)
	a, err := scanAccount(row)
	if err != nil {
		return account.Account{}, err
	}
	if expected != "" && a.Status != expected {
		return account.Account{}, ErrStaleStatus
	}
	if err := account.ValidateTransition(a.Status, to); err != nil {
		return account.Account{}, err
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `update accounts set status=$2, updated_at=$3 where id=$1`,
		a.ID, a.Status, a.UpdatedAt); err != nil {
		return account.Account{}, err
	}
	if err := tx.Commit(); err != nil {
		return account.Account{}, err
	}
	return a, nil
}

// SetAccountLocked commits the automatic lock transition. This bypasses the
// adjacency machine on purpose: it is the only path into Locked.
func (s *Store) SetAccountLocked(ctx context.Context, id string) (account.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		update accounts set status=$2, updated_at=$3 where id=$1
		returning `+accountColumns,
		id, account.StatusLocked, time.Now().UTC())
	return scanAccount(row)
}

// UpdateAccountRole changes the role level.
func (s *Store) UpdateAccountRole(ctx context.Context, id string, role rbac.RoleLevel) (account.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		update accounts set role_level=$2, updated_at=$3 where id=$1
		returning `+accountColumns,
		id, int(role), time.Now().UTC())
	return scanAccount(row)
}

// RecordFailedLogin bumps the consecutive failure counter and returns the new
// value so the caller can decide whether the lockout threshold was reached.
func (s *Store) RecordFailedLogin(ctx context.Context, id string) (int, error) {
	var failures int
	err := s.db.QueryRowContext(ctx, `
		update accounts set failed_logins = failed_logins + 1, updated_at=$2
		where id=$1
		returning failed_logins
	`, id, time.Now().UTC()).Scan(&failures)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, account.ErrNotFound
	}
	return failures, err
}

// ResetFailedLogins clears the consecutive failure counter.
func (s *Store) ResetFailedLogins(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		update accounts set failed_logins = 0, updated_at=$2 where id=$1
	`, id, time.Now().UTC())
	return err
}

// DeleteAccount removes an account row.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}
