package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"workpay/internal/domain/auth"
)

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(auth.PermPayrollAdjust, auth.StaticPermissions{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		ctx    context.Context
		status int
	}{
		{"anonymous", context.Background(), http.StatusUnauthorized},
		{"operator", WithUser(context.Background(), auth.UserContext{UserID: "u1", Role: auth.RoleOperator}), http.StatusForbidden},
		{"finance", WithUser(context.Background(), auth.UserContext{UserID: "u2", Role: auth.RoleFinance}), http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs/r1/adjustments", nil).WithContext(tc.ctx)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}
