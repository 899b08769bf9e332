package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"workpay/internal/domain/audit"
	"workpay/internal/domain/auth"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
	"workpay/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/audit/events", h.handleListEvents)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	limit, offset := v.Page(q, 100, 500)
	if v.Reject(w, requestID) {
		return
	}
	filter := audit.Filter{
		CompanyID:  q.Get("company_id"),
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	if user.CompanyID != "" {
		filter.CompanyID = user.CompanyID
	}

	events, err := h.Service.List(r.Context(), filter, limit, offset)
	if err != nil {
		api.WriteError(w, err, "failed to list audit events", requestID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	api.Success(w, events, requestID)
}
