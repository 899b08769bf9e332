package authhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"

	"workpay/internal/domain/auth"
	"workpay/internal/transport/http/middleware"
)

type fakeUsers struct {
	user auth.AuthUser
}

func (f fakeUsers) FindActiveUserByEmail(_ context.Context, email string) (auth.AuthUser, error) {
	if email != f.user.Email {
		return auth.AuthUser{}, pgx.ErrNoRows
	}
	return f.user, nil
}

func (f fakeUsers) UpdateLastLogin(context.Context, string) error { return nil }

func newHandler(t *testing.T) *Handler {
	t.Helper()
	hash, err := auth.HashPassword("operator-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := fakeUsers{user: auth.AuthUser{ID: "u1", Email: "op@example.com", Role: auth.RoleOperator, CompanyID: "c1", PasswordHash: hash}}
	return NewHandler(auth.NewService(users, "test-secret", 0))
}

func postLogin(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)
	return rec
}

func TestHandleLogin(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "valid credentials", body: `{"email":"op@example.com","password":"operator-pass"}`, status: http.StatusOK},
		{name: "wrong password", body: `{"email":"op@example.com","password":"nope"}`, status: http.StatusUnauthorized},
		{name: "unknown user", body: `{"email":"ghost@example.com","password":"operator-pass"}`, status: http.StatusUnauthorized},
		{name: "malformed email", body: `{"email":"op","password":"operator-pass"}`, status: http.StatusBadRequest},
		{name: "empty body", body: ``, status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postLogin(h, tc.body); rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLoginTokenRoundTripsThroughMiddleware(t *testing.T) {
	h := newHandler(t)
	rec := postLogin(h, `{"email":"op@example.com","password":"operator-pass"}`)
	var env struct {
		Data auth.LoginResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}

	me := middleware.Auth("test-secret")(http.HandlerFunc(h.HandleMe))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+env.Data.Token)
	meRec := httptest.NewRecorder()
	me.ServeHTTP(meRec, req)
	if meRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", meRec.Code)
	}
	var claims struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(meRec.Body.Bytes(), &claims); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.Data["role"] != auth.RoleOperator || claims.Data["companyId"] != "c1" {
		t.Fatalf("unexpected claims: %v", claims.Data)
	}
}
