package remote

import (
	"context"
	"net/http"

	"vendra.org/internal/account"
	"vendra.org/internal/transition"
)

// Accounts adapts the backend's account endpoints to the executor's Backend
// interface.
type Accounts struct {
	c *Client
}

var _ transition.Backend[account.Account] = (*Accounts)(nil)

// Get fetches the current account snapshot.
func (a *Accounts) Get(ctx context.Context, id string) (account.Account, error) {
	var out account.Account
	if err := a.c.do(ctx, http.MethodGet, "/v1/accounts/"+id, nil, &out); err != nil {
		return account.Account{}, err
	}
	return out, nil
}

// ChangeStatus posts a generic account status change.
func (a *Accounts) ChangeStatus(ctx context.Context, id string, req transition.ChangeRequest) (account.Account, error) {
	var out account.Account
	if err := a.c.do(ctx, http.MethodPost, "/v1/accounts/"+id+"/status", req, &out); err != nil {
		return account.Account{}, err
	}
	return out, nil
}

// GrantRole asks the backend to change the account's role level.
func (a *Accounts) GrantRole(ctx context.Context, id, role string) (account.Account, error) {
	body := map[string]string{"role": role}
	var out account.Account
	if err := a.c.do(ctx, http.MethodPost, "/v1/accounts/"+id+"/role", body, &out); err != nil {
		return account.Account{}, err
	}
	return out, nil
}
