package transition

import (
	"vendra.org/internal/account"
	"vendra.org/internal/rbac"
)

// AccountHooks binds an executor to the account adjacency machine and the
// account authorizer. Account changes are confirmation-gated where risky, so
// no optimistic apply is wired: the snapshot updates only after the backend
// confirms.
func AccountHooks() Hooks[account.Account] {
	return Hooks[account.Account]{
		Legal: func(a account.Account, newStatus string) bool {
			return account.CanTransition(a.Status, account.Status(newStatus))
		},
		Authorize: func(a account.Account, actor rbac.ActorContext, newStatus string) bool {
			return account.AuthorizeTransition(a, actor, account.Status(newStatus))
		},
		StatusOf: func(a account.Account) string { return string(a.Status) },
	}
}

// NewAccountExecutor wires an account executor against a backend.
func NewAccountExecutor(backend Backend[account.Account]) (*Executor[account.Account], error) {
	return NewExecutor[account.Account](backend, AccountHooks())
}
