package authhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"workpay/internal/domain/auth"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
	"workpay/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{Service: service}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Warn("login rejected", "ip", shared.ClientIP(r), "requestId", requestID)
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		api.WriteError(w, err, "failed to sign in", requestID)
		return
	}
	api.Success(w, result, requestID)
}

// HandleMe echoes the caller's token claims.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"userId":       user.UserID,
		"role":         user.Role,
		"companyId":    user.CompanyID,
		"agencyId":     user.AgencyID,
		"employeeId":   user.EmployeeID,
		"capabilities": auth.WorkflowCapabilities(user.Role),
		"permissions":  auth.RolePermissions[user.Role],
	}, middleware.GetRequestID(r.Context()))
}
