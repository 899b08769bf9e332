package leavehandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workpay/internal/domain/audit"
	"workpay/internal/domain/auth"
	"workpay/internal/domain/leave"
	"workpay/internal/platform/metrics"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
	"workpay/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
	Metrics *metrics.Collector
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore, auditSvc *audit.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRequest, h.Perms)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveDecide, h.Perms)).Post("/requests/{requestID}/approve", h.handleDecide(leave.StatusApproved))
		r.With(middleware.RequirePermission(auth.PermLeaveDecide, h.Perms)).Post("/requests/{requestID}/reject", h.handleDecide(leave.StatusRejected))
	})
}

func actorOf(user auth.UserContext) leave.Actor {
	return leave.Actor{UserID: user.UserID, Role: user.Role, AgencyID: user.AgencyID, EmployeeID: user.EmployeeID}
}

type createRequestPayload struct {
	EmployeeID string `json:"employee_id" validate:"omitempty,uuid"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	LeaveType  string `json:"leave_type" validate:"required,max=64"`
	IsPaid     bool   `json:"is_paid"`
	Reason     string `json:"reason" validate:"max=1000"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	var payload createRequestPayload
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	start, end := v.Period("start_date", payload.StartDate, "end_date", payload.EndDate)
	if v.Reject(w, requestID) {
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), actorOf(user), leave.CreateInput{
		EmployeeID: payload.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		LeaveType:  payload.LeaveType,
		IsPaid:     payload.IsPaid,
		Reason:     payload.Reason,
	})
	if err != nil {
		api.WriteError(w, err, "failed to create leave request", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), req.CompanyID, user.UserID, audit.ActionLeaveCreate, "leave_request", req.ID, requestID, shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.create failed", "err", err)
	}
	api.Created(w, req, requestID)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	status := r.URL.Query().Get("status")
	v := shared.NewValidator()
	v.OneOf("status", status, []string{leave.StatusPending, leave.StatusApproved, leave.StatusRejected})
	if v.Reject(w, requestID) {
		return
	}

	out, err := h.Service.ListRequests(r.Context(), actorOf(user), leave.Filter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Status:     status,
	})
	if err != nil {
		api.WriteError(w, err, "failed to list leave requests", requestID)
		return
	}
	api.Success(w, out, requestID)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	req, err := h.Service.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		api.WriteError(w, err, "failed to load leave request", requestID)
		return
	}
	if user.Role == auth.RoleEmployee && req.EmployeeID != user.EmployeeID {
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestID)
		return
	}
	api.Success(w, req, requestID)
}

type decisionPayload struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

func (h *Handler) handleDecide(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUser(r.Context())
		requestID := middleware.GetRequestID(r.Context())
		var payload decisionPayload
		if r.ContentLength != 0 && !shared.Bind(w, r, &payload, requestID) {
			return
		}

		id := chi.URLParam(r, "requestID")
		var (
			req leave.Request
			err error
		)
		if status == leave.StatusApproved {
			req, err = h.Service.Approve(r.Context(), actorOf(user), id, payload.Remarks)
		} else {
			req, err = h.Service.Reject(r.Context(), actorOf(user), id, payload.Remarks)
		}
		if err != nil {
			api.WriteError(w, err, "failed to decide leave request", requestID)
			return
		}
		if h.Metrics != nil {
			h.Metrics.Inc("leave." + status)
		}
		if err := h.Audit.Record(r.Context(), req.CompanyID, user.UserID, audit.ActionLeaveDecide, "leave_request", req.ID, requestID, shared.ClientIP(r), nil, map[string]string{"status": req.Status, "remarks": req.Remarks}); err != nil {
			slog.Warn("audit leave.request.decide failed", "err", err)
		}
		api.Success(w, req, requestID)
	}
}
