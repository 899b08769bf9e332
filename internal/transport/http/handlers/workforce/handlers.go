package workforcehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"workpay/internal/domain/auth"
	"workpay/internal/domain/workforce"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
	"workpay/internal/transport/http/shared"
)

type Handler struct {
	Service *workforce.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *workforce.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workforce", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermWorkforceRead, h.Perms)).Get("/employees", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermWorkforceRead, h.Perms)).Get("/employees/{employeeID}", h.handleGetEmployee)
	})
}

// filterFor narrows a listing to the caller's company or agency.
func filterFor(user auth.UserContext, r *http.Request) workforce.EmployeeFilter {
	q := r.URL.Query()
	filter := workforce.EmployeeFilter{
		CompanyID: q.Get("company_id"),
		AgencyID:  q.Get("agency_id"),
		Status:    q.Get("status"),
	}
	if user.CompanyID != "" {
		filter.CompanyID = user.CompanyID
	}
	if user.Role == auth.RoleAgency {
		filter.AgencyID = user.AgencyID
	}
	return filter
}

func visible(user auth.UserContext, employee workforce.Employee) bool {
	if user.CompanyID != "" && employee.CompanyID != user.CompanyID {
		return false
	}
	if user.Role == auth.RoleAgency && employee.AgencyID != user.AgencyID {
		return false
	}
	return true
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	filter := filterFor(user, r)
	v := shared.NewValidator()
	v.OneOf("status", filter.Status, []string{workforce.EmployeeStatusActive, workforce.EmployeeStatusInactive})
	if v.Reject(w, requestID) {
		return
	}

	out, err := h.Service.ListEmployees(r.Context(), filter)
	if err != nil {
		api.WriteError(w, err, "failed to list employees", requestID)
		return
	}
	api.Success(w, out, requestID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	employee, err := h.Service.FindEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.WriteError(w, err, "failed to load employee", requestID)
		return
	}
	if !visible(user, employee) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	api.Success(w, employee, requestID)
}
