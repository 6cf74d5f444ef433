package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"vendra.org/internal/account"
	"vendra.org/internal/auth"
	"vendra.org/internal/obs"
	"vendra.org/internal/order"
	"vendra.org/internal/rbac"
	"vendra.org/internal/stream"
)

// OrderStore is the order persistence surface the handlers need.
type OrderStore interface {
	CreateOrder(ctx context.Context, customerID, assignedSalesRepID string, total order.Money) (order.Order, error)
	GetOrder(ctx context.Context, id string) (order.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string, limit int) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, expected, to order.Status, meta map[string]string) (order.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// AccountStore is the account persistence surface the handlers need.
type AccountStore interface {
	CreateAccount(ctx context.Context, email, passwordHash string, role rbac.RoleLevel) (account.Account, error)
	GetAccount(ctx context.Context, id string) (account.Account, error)
	UpdateAccountStatus(ctx context.Context, id string, expected, to account.Status) (account.Account, error)
	UpdateAccountRole(ctx context.Context, id string, role rbac.RoleLevel) (account.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// ReadyProbe checks dependencies for the readiness endpoint.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the stores and rule systems.
type API struct {
	mux      *http.ServeMux
	orders   OrderStore
	accounts AccountStore
	login    *auth.Service
	signer   *auth.Signer
	stream   *stream.Stream

	readyProbe ReadyProbe
	version    string

	rateBurst     int
	ratePerSecond int
	maxBodyBytes  int64
}

// Option configures API behavior.
type Option func(*API)

// WithAuth enables bearer token verification and the login endpoint.
func WithAuth(signer *auth.Signer, login *auth.Service) Option {
	return func(a *API) {
		a.signer = signer
		a.login = login
	}
}

// WithStream enables the transition event SSE endpoint.
func WithStream(s *stream.Stream) Option {
	return func(a *API) { a.stream = s }
}

// WithReadyProbe wires the readiness check.
func WithReadyProbe(rp ReadyProbe) Option {
	return func(a *API) { a.readyProbe = rp }
}

// WithVersion sets the version reported by /healthz and /v1/info.
func WithVersion(v string) Option {
	return func(a *API) { a.version = v }
}

// WithRateLimit overrides the per-IP rate limit.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSecond > 0 {
			a.ratePerSecond = perSecond
		}
	}
}

// WithMaxBodyBytes overrides the request body cap.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// New builds the API and registers all routes.
func New(orders OrderStore, accounts AccountStore, opts ...Option) *API {
	a := &API{
		mux:           http.NewServeMux(),
		orders:        orders,
		accounts:      accounts,
		version:       "dev",
		rateBurst:     40,
		ratePerSecond: 20,
		maxBodyBytes:  1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux.HandleFunc("/healthz", a.healthz)
	a.mux.HandleFunc("/readyz", a.ready)
	a.mux.HandleFunc("/v1/info", a.info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)

	a.mux.HandleFunc("/v1/orders", a.handleOrdersCollection)
	a.mux.HandleFunc("/v1/orders/", a.handleOrderResource)
	a.mux.HandleFunc("/v1/accounts", a.handleAccountsCollection)
	a.mux.HandleFunc("/v1/accounts/", a.handleAccountResource)

	a.mux.HandleFunc("/v1/stream", a.handleStream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "vendra-api",
		"version": a.version,
	}, "")
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeEnvelope(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready"}, err.Error())
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]any{"status": "ready"}, "")
}

func (a *API) info(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, map[string]any{
		"name":    "vendra-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	}, "")
}

// envelope is the uniform response shape: the transport-level HTTP status is
// mirrored in status_code so thin clients can classify without reading
// headers.
type envelope struct {
	StatusCode int    `json:"status_code"`
	Payload    any    `json:"payload,omitempty"`
	Message    string `json:"message,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, code int, payload any, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{StatusCode: code, Payload: payload, Message: message})
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		w.Header().Set("X-Request-Id", rid)
	}
	writeEnvelope(w, code, nil, msg)
}
