package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vendra.org/internal/account"
	"vendra.org/internal/auth"
	"vendra.org/internal/rbac"
)

func TestRequireRoleAllowsMatchingLevel(t *testing.T) {
	handler := RequireRole(rbac.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = req.WithContext(rbac.ContextWithActor(req.Context(), rbac.ActorContext{ActorID: "a-1", RoleLevel: rbac.RoleSuperAdmin}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireRoleRejectsLowerLevel(t *testing.T) {
	handler := RequireRole(rbac.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = req.WithContext(rbac.ContextWithActor(req.Context(), rbac.ActorContext{ActorID: "a-1", RoleLevel: rbac.RoleSalesManager}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	handler := RequireRole(rbac.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/internal", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestWithAuthAttachesActor(t *testing.T) {
	signer, err := auth.NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	api := New(newFakeOrders(testOrder()), newFakeAccounts(), WithAuth(signer, nil))

	token, _, err := signer.Generate("cust-1", rbac.RoleCustomer)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/ord-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWithAuthRejectsMissingToken(t *testing.T) {
	signer, err := auth.NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	api := New(newFakeOrders(testOrder()), newFakeAccounts(), WithAuth(signer, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/ord-1", nil)
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header")
	}
}

func TestLoginEndpointIssuesSession(t *testing.T) {
	hash, err := account.HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	acc := account.Account{
		ID:           "acc-1",
		Email:        "ada@example.com",
		PasswordHash: hash,
		RoleLevel:    rbac.RoleSalesRep,
		Status:       account.StatusActive,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	signer, err := auth.NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	login := auth.NewService(&loginStore{acc: acc}, signer)
	api := New(newFakeOrders(), newFakeAccounts(), WithAuth(signer, login))

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(map[string]string{"email": "ada@example.com", "password": "correct horse"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", &buf)
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var env struct {
		Payload auth.Session `json:"payload"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Payload.Token == "" {
		t.Fatal("expected token in payload")
	}
	if _, err := signer.Verify(env.Payload.Token); err != nil {
		t.Fatalf("issued token must verify: %v", err)
	}
}

type loginStore struct {
	acc account.Account
}

func (s *loginStore) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	if email != s.acc.Email {
		return account.Account{}, account.ErrNotFound
	}
	return s.acc, nil
}

func (s *loginStore) RecordFailedLogin(_ context.Context, _ string) (int, error) {
	return s.acc.FailedLogins + 1, nil
}

func (s *loginStore) ResetFailedLogins(_ context.Context, _ string) error { return nil }

func (s *loginStore) SetAccountLocked(_ context.Context, _ string) (account.Account, error) {
	s.acc.Status = account.StatusLocked
	return s.acc, nil
}
