package httpapi

import (
	"net/http"
	"strings"

	"vendra.org/internal/account"
	"vendra.org/internal/audit"
	"vendra.org/internal/obs"
	"vendra.org/internal/rbac"
	"vendra.org/internal/stream"
	"vendra.org/internal/transition"
)

type registerAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type grantRoleRequest struct {
	Role string `json:"role"`
}

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.registerAccount(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	id, action, hasAction := strings.Cut(path, "/")
	if id == "" || (hasAction && strings.Contains(action, "/")) {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if !hasAction {
		switch r.Method {
		case http.MethodGet:
			a.getAccount(w, r, id)
		case http.MethodDelete:
			a.deleteAccount(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
		}
		return
	}

	switch action {
	case "actions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.accountActions(w, r, id)
	case "status":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.changeAccountStatus(w, r, id)
	case "role":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.grantRole(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// registerAccount is public self-service signup. New accounts always start in
// PendingVerification and always as plain customers; staff roles are granted
// afterwards through the role endpoint.
func (a *API) registerAccount(w http.ResponseWriter, r *http.Request) {
	var req registerAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, r, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	role := rbac.RoleCustomer
	if strings.TrimSpace(req.Role) != "" {
		requested, err := rbac.ParseRoleLevel(req.Role)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		// Staff roles require an authenticated admin caller.
		if requested != rbac.RoleCustomer {
			actor, ok := rbac.ActorFromContext(r.Context())
			if !ok || !account.Authorize(account.Account{}, actor).CanGrantRole {
				writeError(w, r, http.StatusForbidden, "forbidden")
				return
			}
			role = requested
		}
	}

	hash, err := account.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acc, err := a.accounts.CreateAccount(r.Context(), email, hash, role)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "account.create", map[string]any{
		"account_id": acc.ID,
		"role":       acc.RoleLevel.String(),
	})
	w.Header().Set("Location", "/v1/accounts/"+acc.ID)
	writeEnvelope(w, http.StatusCreated, acc, "")
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	acc, err := a.accounts.GetAccount(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !account.Authorize(acc, actor).CanRead {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	writeEnvelope(w, http.StatusOK, acc, "")
}

func (a *API) accountActions(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	acc, err := a.accounts.GetAccount(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	flags := account.Authorize(acc, actor)
	if !flags.CanRead {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	writeEnvelope(w, http.StatusOK, flags, "")
}

func (a *API) changeAccountStatus(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	var req transition.ChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to := account.Status(strings.TrimSpace(req.NewStatus))
	if to == "" {
		writeError(w, r, http.StatusBadRequest, "new_status is required")
		return
	}

	acc, err := a.accounts.GetAccount(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	// Structural rejections (direct lock, back to pending verification) carry
	// 422 and must win over the permission check.
	if err := account.ValidateTransition(acc.Status, to); err != nil {
		obs.ObserveTransition("account", transitionOutcome(err))
		handleDomainError(w, r, err)
		return
	}
	if !account.AuthorizeTransition(acc, actor, to) {
		obs.ObserveTransition("account", "denied")
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	from := acc.Status
	updated, err := a.accounts.UpdateAccountStatus(r.Context(), id, account.Status(req.ExpectedStatus), to)
	if err != nil {
		obs.ObserveTransition("account", transitionOutcome(err))
		handleDomainError(w, r, err)
		return
	}
	obs.ObserveTransition("account", "committed")

	_ = audit.LogEvent(r.Context(), "account.status.change", map[string]any{
		"account_id": id,
		"from":       string(from),
		"to":         string(to),
		"reason":     req.Reason,
	})
	if a.stream != nil {
		a.stream.Publish(stream.TransitionEvent{
			EntityType: "account",
			EntityID:   id,
			From:       string(from),
			To:         string(to),
			ActorID:    actor.ActorID,
			Reason:     req.Reason,
		})
	}
	writeEnvelope(w, http.StatusOK, updated, "")
}

func (a *API) grantRole(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	var req grantRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := rbac.ParseRoleLevel(req.Role)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	acc, err := a.accounts.GetAccount(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	flags := account.Authorize(acc, actor)
	if !flags.CanGrantRole {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	// The top tier is reserved: only a super admin may mint admins and above.
	if rbac.HasMinimumRole(role, rbac.RoleAdmin) && !flags.CanGrantAdmin {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	updated, err := a.accounts.UpdateAccountRole(r.Context(), id, role)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.role.grant", map[string]any{
		"account_id": id,
		"role":       role.String(),
	})
	writeEnvelope(w, http.StatusOK, updated, "")
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	acc, err := a.accounts.GetAccount(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !account.Authorize(acc, actor).CanDelete {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	if err := a.accounts.DeleteAccount(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.delete", map[string]any{"account_id": id})
	writeEnvelope(w, http.StatusOK, map[string]any{"deleted": id}, "")
}
