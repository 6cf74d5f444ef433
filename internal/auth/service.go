package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"vendra.org/internal/account"
)

var (
	ErrBadCredentials = errors.New("auth: bad credentials")
	ErrAccountLocked  = errors.New("auth: account locked")

	// ErrAccountInactive covers suspended, archived and unverified accounts.
	ErrAccountInactive = errors.New("auth: account inactive")
)

// AccountStore is the subset of account persistence the login flow needs.
type AccountStore interface {
	GetAccountByEmail(ctx context.Context, email string) (account.Account, error)
	RecordFailedLogin(ctx context.Context, id string) (int, error)
	ResetFailedLogins(ctx context.Context, id string) error
	SetAccountLocked(ctx context.Context, id string) (account.Account, error)
}

// Service authenticates credentials and issues access tokens. Consecutive
// failed attempts lock the account; that is the only path into Locked.
type Service struct {
	store  AccountStore
	signer *Signer
}

// NewService constructs the login service.
func NewService(store AccountStore, signer *Signer) *Service {
	return &Service{store: store, signer: signer}
}

// Session is the result of a successful login.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   account.Account `json:"account"`
}

// Login verifies the credentials and returns a signed session. Accounts in
// ForcePasswordChange may still log in so they can rotate the password;
// every other non-active status is rejected.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrBadCredentials
	}
	acc, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Session{}, ErrBadCredentials
		}
		return Session{}, err
	}

	switch acc.Status {
	case account.StatusActive, account.StatusForcePasswordChange:
	case account.StatusLocked:
		return Session{}, ErrAccountLocked
	default:
		return Session{}, ErrAccountInactive
	}

	if err := account.VerifyPassword(acc.PasswordHash, password); err != nil {
		failures, recErr := s.store.RecordFailedLogin(ctx, acc.ID)
		if recErr != nil {
			return Session{}, recErr
		}
		if failures >= account.MaxFailedLogins {
			if _, lockErr := s.store.SetAccountLocked(ctx, acc.ID); lockErr != nil {
				return Session{}, lockErr
			}
			return Session{}, ErrAccountLocked
		}
		return Session{}, ErrBadCredentials
	}

	if acc.FailedLogins > 0 {
		if err := s.store.ResetFailedLogins(ctx, acc.ID); err != nil {
			return Session{}, err
		}
	}

	token, expiresAt, err := s.signer.Generate(acc.ID, acc.RoleLevel)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, Account: acc}, nil
}
