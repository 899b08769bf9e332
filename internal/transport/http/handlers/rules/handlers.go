package ruleshandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workpay/internal/domain/auth"
	"workpay/internal/domain/rules"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
	"workpay/internal/transport/http/shared"
)

type Resolver interface {
	Resolve(ctx context.Context, companyID string, date time.Time) (rules.RuleSet, error)
}

type Handler struct {
	Resolver Resolver
	Perms    middleware.PermissionStore
}

func NewHandler(resolver Resolver, perms middleware.PermissionStore) *Handler {
	return &Handler{Resolver: resolver, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermRulesRead, h.Perms)).Get("/rules/resolve", h.handleResolve)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	companyID := q.Get("company_id")
	if user.CompanyID != "" {
		if companyID != "" && companyID != user.CompanyID {
			api.Fail(w, http.StatusForbidden, "forbidden", "company outside caller scope", requestID)
			return
		}
		companyID = user.CompanyID
	}
	v := shared.NewValidator()
	v.UUID("company_id", companyID)
	date := v.Date("date", q.Get("date"))
	if v.Reject(w, requestID) {
		return
	}

	ruleSet, err := h.Resolver.Resolve(r.Context(), companyID, date)
	if err != nil {
		api.WriteError(w, err, "failed to resolve rules", requestID)
		return
	}
	api.Success(w, ruleSet, requestID)
}
