package leavehandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"workpay/internal/domain/auth"
	"workpay/internal/transport/http/middleware"
)

func TestLeaveRoutesRejectBeforeService(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(nil, auth.StaticPermissions{}, nil, nil).RegisterRoutes(router)

	employee := auth.UserContext{UserID: "e1", Role: auth.RoleEmployee, EmployeeID: "emp-1"}
	tests := []struct {
		name   string
		user   auth.UserContext
		path   string
		body   string
		status int
	}{
		{"employee cannot approve", employee, "/leave/requests/r1/approve", `{}`, http.StatusForbidden},
		{"billing cannot reject", auth.UserContext{UserID: "b1", Role: auth.RoleBilling}, "/leave/requests/r1/reject", `{}`, http.StatusForbidden},
		{"finance cannot file", auth.UserContext{UserID: "f1", Role: auth.RoleFinance}, "/leave/requests", `{}`, http.StatusForbidden},
		{"missing dates", employee, "/leave/requests", `{"leave_type":"vacation"}`, http.StatusBadRequest},
		{"reversed dates", employee, "/leave/requests", `{"start_date":"2026-03-10","end_date":"2026-03-01","leave_type":"vacation"}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			req = req.WithContext(middleware.WithUser(context.Background(), tc.user))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestActorOf(t *testing.T) {
	actor := actorOf(auth.UserContext{UserID: "u1", Role: auth.RoleAgency, AgencyID: "ag-1"})
	assert.Equal(t, "u1", actor.UserID)
	assert.Equal(t, auth.RoleAgency, actor.Role)
	assert.Equal(t, "ag-1", actor.AgencyID)
}
