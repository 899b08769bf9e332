package analyticshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"workpay/internal/domain/analytics"
	"workpay/internal/domain/auth"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
)

type Handler struct {
	Service *analytics.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *analytics.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAnalyticsRead, h.Perms)).Get("/overtime", h.handleList(analytics.TypeOvertime))
		r.With(middleware.RequirePermission(auth.PermAnalyticsRead, h.Perms)).Get("/absence", h.handleList(analytics.TypeAbsence))
	})
}

func (h *Handler) handleList(snapshotType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUser(r.Context())
		requestID := middleware.GetRequestID(r.Context())
		companyID := r.URL.Query().Get("company_id")
		if user.CompanyID != "" {
			if companyID != "" && companyID != user.CompanyID {
				api.Fail(w, http.StatusForbidden, "forbidden", "company outside caller scope", requestID)
				return
			}
			companyID = user.CompanyID
		}

		out, err := h.Service.List(r.Context(), analytics.Filter{
			Type:      snapshotType,
			CompanyID: companyID,
			RunID:     r.URL.Query().Get("run_id"),
		})
		if err != nil {
			api.WriteError(w, err, "failed to list analytics", requestID)
			return
		}
		api.Success(w, out, requestID)
	}
}
