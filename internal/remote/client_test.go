package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vendra.org/internal/order"
	"vendra.org/internal/transition"
)

func envelope(t *testing.T, code int, payload any, message string) []byte {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		raw = data
	}
	out, err := json.Marshal(Envelope{StatusCode: code, Payload: raw, Message: message})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestGetOrderDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders/ord-1" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write(envelope(t, http.StatusOK, order.Order{ID: "ord-1", Status: order.StatusPlaced}, ""))
	}))
	defer srv.Close()

	o, err := New(srv.URL).Orders().Get(context.Background(), "ord-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.ID != "ord-1" || o.Status != order.StatusPlaced {
		t.Fatalf("unexpected order %+v", o)
	}
}

func TestCreateAcceptsCreatedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		// The server mirrors the HTTP status into the envelope on creation.
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(envelope(t, http.StatusCreated, order.Order{
			ID:         "ord-9",
			CustomerID: "cust-1",
			Status:     order.StatusPending,
			Total:      order.Money{Currency: "USD", Amount: 4999},
		}, ""))
	}))
	defer srv.Close()

	o, err := New(srv.URL).Orders().Create(context.Background(), "cust-1", "", order.Money{Currency: "USD", Amount: 4999})
	if err != nil {
		t.Fatalf("create must treat 201 as success, got %v", err)
	}
	if o.ID != "ord-9" || o.Status != order.StatusPending {
		t.Fatalf("unexpected order %+v", o)
	}
}

func TestChangeStatusSendsIdempotencyKeyAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Idempotency-Key") == "" {
			t.Fatalf("mutating call must carry an idempotency key")
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Fatalf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		var req transition.ChangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.NewStatus != string(order.StatusPaid) {
			t.Fatalf("new_status=%s", req.NewStatus)
		}
		_, _ = w.Write(envelope(t, http.StatusOK, order.Order{ID: "ord-1", Status: order.StatusPaid}, ""))
	}))
	defer srv.Close()

	o, err := New(srv.URL, WithToken("tok-1")).Orders().ChangeStatus(context.Background(), "ord-1", transition.ChangeRequest{
		NewStatus: string(order.StatusPaid),
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != order.StatusPaid {
		t.Fatalf("status=%s, want paid", o.Status)
	}
}

func TestEnvelopeFailureClassification(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusForbidden, transition.ErrDenied},
		{http.StatusUnauthorized, transition.ErrDenied},
		{http.StatusConflict, transition.ErrStaleState},
		{http.StatusUnprocessableEntity, transition.ErrIllegal},
		{http.StatusBadRequest, transition.ErrValidation},
		{http.StatusInternalServerError, transition.ErrTransport},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(envelope(t, tc.code, nil, "nope"))
		}))
		_, err := New(srv.URL).Orders().ChangeStatus(context.Background(), "ord-1", transition.ChangeRequest{
			NewStatus: string(order.StatusPaid),
		})
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("code %d: got %v, want %v", tc.code, err, tc.want)
		}
	}
}

func TestEmptyPayloadOnMutatingCallFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(t, http.StatusOK, nil, ""))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Orders().ChangeStatus(context.Background(), "ord-1", transition.ChangeRequest{
		NewStatus: string(order.StatusPaid),
	})
	if !errors.Is(err, transition.ErrTransport) {
		t.Fatalf("null payload on mutation must fail, got %v", err)
	}
}

func TestSpecializedCallsValidateLocally(t *testing.T) {
	client := New("http://backend.invalid")

	if _, err := client.Orders().ConfirmPayment(context.Background(), "ord-1", "", ""); !errors.Is(err, transition.ErrValidation) {
		t.Fatalf("missing payment reference must fail locally, got %v", err)
	}
	if _, err := client.Orders().MarkShipped(context.Background(), "ord-1", "", "ups"); !errors.Is(err, transition.ErrValidation) {
		t.Fatalf("missing tracking number must fail locally, got %v", err)
	}
}
