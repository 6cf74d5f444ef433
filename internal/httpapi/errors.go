package httpapi

import (
	"errors"
	"net/http"

	"vendra.org/internal/account"
	"vendra.org/internal/order"
	"vendra.org/internal/rbac"
	"vendra.org/internal/store/pg"
)

// handleDomainError maps store and rule-system errors onto the envelope
// status codes thin clients classify on: 409 stale, 422 illegal transition,
// 403 denied, 400 invalid input.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound), errors.Is(err, account.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, pg.ErrStaleStatus):
		writeError(w, r, http.StatusConflict, "status changed concurrently, refetch and retry")
	case errors.Is(err, order.ErrIllegalTransition),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, account.ErrIllegalTransition),
		errors.Is(err, account.ErrUnknownStatus),
		errors.Is(err, account.ErrAutomaticOnly),
		errors.Is(err, account.ErrCreationOnly):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, rbac.ErrDenied):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, rbac.ErrInvalidInput),
		errors.Is(err, order.ErrInvalidInput),
		errors.Is(err, account.ErrInvalidInput),
		errors.Is(err, account.ErrAlreadyExists):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// transitionOutcome labels a failed transition for the outcome counter.
func transitionOutcome(err error) string {
	switch {
	case errors.Is(err, pg.ErrStaleStatus):
		return "stale"
	case errors.Is(err, order.ErrIllegalTransition),
		errors.Is(err, account.ErrIllegalTransition),
		errors.Is(err, account.ErrAutomaticOnly),
		errors.Is(err, account.ErrCreationOnly):
		return "illegal"
	case errors.Is(err, order.ErrNotFound), errors.Is(err, account.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
