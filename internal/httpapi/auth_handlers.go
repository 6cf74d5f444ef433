package httpapi

import (
	"errors"
	"net/http"

	"vendra.org/internal/audit"
	"vendra.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.login == nil {
		writeError(w, r, http.StatusNotImplemented, "login is not configured")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.login.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrBadCredentials):
			writeError(w, r, http.StatusUnauthorized, "bad credentials")
		case errors.Is(err, auth.ErrAccountLocked):
			_ = audit.LogEvent(r.Context(), "auth.login.locked", map[string]any{"email": req.Email})
			writeError(w, r, http.StatusForbidden, "account locked")
		case errors.Is(err, auth.ErrAccountInactive):
			writeError(w, r, http.StatusForbidden, "account inactive")
		default:
			writeError(w, r, http.StatusInternalServerError, "login failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"account_id": session.Account.ID,
		"role":       session.Account.RoleLevel.String(),
	})
	writeEnvelope(w, http.StatusOK, session, "")
}
