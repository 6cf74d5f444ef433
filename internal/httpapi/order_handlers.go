package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"vendra.org/internal/audit"
	"vendra.org/internal/obs"
	"vendra.org/internal/order"
	"vendra.org/internal/rbac"
	"vendra.org/internal/stream"
	"vendra.org/internal/transition"
)

type createOrderRequest struct {
	CustomerID         string      `json:"customer_id"`
	AssignedSalesRepID string      `json:"assigned_sales_rep_id"`
	Total              order.Money `json:"total"`
}

type confirmPaymentRequest struct {
	PaymentReference string `json:"payment_reference"`
	ExpectedStatus   string `json:"expected_status"`
	Notes            string `json:"notes"`
}

type markShippedRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	ExpectedStatus string `json:"expected_status"`
}

func (a *API) handleOrdersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createOrder(w, r)
	case http.MethodGet:
		a.listOrders(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrderResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
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
			a.getOrder(w, r, id)
		case http.MethodDelete:
			a.deleteOrder(w, r, id)
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
		a.orderActions(w, r, id)
	case "status":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.changeOrderStatus(w, r, id)
	case "confirm-payment":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.confirmPayment(w, r, id)
	case "mark-shipped":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.markShipped(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		customerID = actor.ActorID
	}
	// Customers open orders for themselves; staff may open one on a
	// customer's behalf.
	if customerID != actor.ActorID && !rbac.HasMinimumRole(actor.RoleLevel, rbac.RoleSalesRep) {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	if !req.Total.IsPositive() || strings.TrimSpace(req.Total.Currency) == "" {
		writeError(w, r, http.StatusBadRequest, "total requires a currency and a positive amount")
		return
	}

	o, err := a.orders.CreateOrder(r.Context(), customerID, strings.TrimSpace(req.AssignedSalesRepID), order.Money{
		Currency: strings.ToUpper(strings.TrimSpace(req.Total.Currency)),
		Amount:   req.Total.Amount,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "order.create", map[string]any{
		"order_id":    o.ID,
		"customer_id": o.CustomerID,
		"amount":      strconv.FormatInt(o.Total.Amount, 10),
		"currency":    o.Total.Currency,
	})

	w.Header().Set("Location", "/v1/orders/"+o.ID)
	writeEnvelope(w, http.StatusCreated, o, "")
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	o, err := a.orders.GetOrder(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !order.Authorize(o, actor).CanRead {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	writeEnvelope(w, http.StatusOK, o, "")
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	customerID := strings.TrimSpace(r.URL.Query().Get("customer_id"))
	if customerID == "" {
		customerID = actor.ActorID
	}
	if customerID != actor.ActorID && !rbac.HasMinimumRole(actor.RoleLevel, rbac.RoleSalesRep) {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = v
	}

	items, err := a.orders.ListOrdersByCustomer(r.Context(), customerID, limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]any{"items": items}, "")
}

// orderActions reports the flat capability flags for the calling actor, so
// clients enable or disable controls without duplicating policy.
func (a *API) orderActions(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	o, err := a.orders.GetOrder(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	flags := order.Authorize(o, actor)
	if !flags.CanRead {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	writeEnvelope(w, http.StatusOK, flags, "")
}

func (a *API) changeOrderStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req transition.ChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to := order.Status(strings.TrimSpace(req.NewStatus))
	if to == "" {
		writeError(w, r, http.StatusBadRequest, "new_status is required")
		return
	}
	a.commitOrderTransition(w, r, id, to, order.Status(req.ExpectedStatus), req.Reason, req.Metadata)
}

func (a *API) confirmPayment(w http.ResponseWriter, r *http.Request, id string) {
	var req confirmPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PaymentReference) == "" {
		writeError(w, r, http.StatusBadRequest, "payment_reference is required")
		return
	}
	a.commitOrderTransition(w, r, id, order.StatusPaid, order.Status(req.ExpectedStatus), req.Notes, map[string]string{
		"payment_reference": strings.TrimSpace(req.PaymentReference),
	})
}

func (a *API) markShipped(w http.ResponseWriter, r *http.Request, id string) {
	var req markShippedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.TrackingNumber) == "" || strings.TrimSpace(req.Carrier) == "" {
		writeError(w, r, http.StatusBadRequest, "tracking_number and carrier are required")
		return
	}
	a.commitOrderTransition(w, r, id, order.StatusShipped, order.Status(req.ExpectedStatus), "", map[string]string{
		"tracking_number": strings.TrimSpace(req.TrackingNumber),
		"carrier":         strings.TrimSpace(req.Carrier),
	})
}

// commitOrderTransition authorizes against the current snapshot and commits
// through the store, which re-validates under a row lock.
func (a *API) commitOrderTransition(w http.ResponseWriter, r *http.Request, id string, to, expected order.Status, reason string, meta map[string]string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	o, err := a.orders.GetOrder(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	// Structural illegality carries 422 and must win over the permission
	// check: a role-sufficient actor asking for an impossible move is not
	// "denied".
	if err := order.ValidateTransition(o.Status, to); err != nil {
		obs.ObserveTransition("order", transitionOutcome(err))
		handleDomainError(w, r, err)
		return
	}
	if !order.AuthorizeTransition(o, actor, to) {
		obs.ObserveTransition("order", "denied")
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	from := o.Status
	updated, err := a.orders.UpdateOrderStatus(r.Context(), id, expected, to, meta)
	if err != nil {
		obs.ObserveTransition("order", transitionOutcome(err))
		handleDomainError(w, r, err)
		return
	}
	obs.ObserveTransition("order", "committed")

	_ = audit.LogEvent(r.Context(), "order.status.change", map[string]any{
		"order_id": id,
		"from":     string(from),
		"to":       string(to),
		"reason":   reason,
	})
	if a.stream != nil {
		a.stream.Publish(stream.TransitionEvent{
			EntityType: "order",
			EntityID:   id,
			From:       string(from),
			To:         string(to),
			ActorID:    actor.ActorID,
			Reason:     reason,
		})
	}
	writeEnvelope(w, http.StatusOK, updated, "")
}

func (a *API) deleteOrder(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFor(w, r)
	if !ok {
		return
	}
	o, err := a.orders.GetOrder(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !order.Authorize(o, actor).CanDelete {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	if err := a.orders.DeleteOrder(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "order.delete", map[string]any{"order_id": id})
	writeEnvelope(w, http.StatusOK, map[string]any{"deleted": id}, "")
}

// --- helpers ---

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
