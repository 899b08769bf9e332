package attendancehandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workpay/internal/domain/attendance"
	"workpay/internal/domain/audit"
	"workpay/internal/domain/auth"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
	"workpay/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *attendance.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/days", h.handleListDays)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/punches", h.handleListPunches)
		r.With(middleware.RequirePermission(auth.PermAttendanceNormalize, h.Perms)).Post("/punches", h.handleRecordPunch)
		r.With(middleware.RequirePermission(auth.PermAttendanceNormalize, h.Perms)).Post("/normalize", h.handleNormalize)
	})
}

// employeeScope pins employee callers to their own records.
func employeeScope(user auth.UserContext, requested string) string {
	if user.Role == auth.RoleEmployee {
		return user.EmployeeID
	}
	return requested
}

func (h *Handler) handleListDays(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	from := v.OptionalDate("from", q.Get("from"))
	to := v.OptionalDate("to", q.Get("to"))
	v.Ordered("from", from, "to", to)
	if v.Reject(w, requestID) {
		return
	}
	companyID := q.Get("company_id")
	if user.CompanyID != "" {
		companyID = user.CompanyID
	}

	days, err := h.Service.ListDays(r.Context(), attendance.DayFilter{
		CompanyID:  companyID,
		EmployeeID: employeeScope(user, q.Get("employee_id")),
		From:       from,
		To:         to,
	})
	if err != nil {
		api.WriteError(w, err, "failed to list attendance days", requestID)
		return
	}
	api.Success(w, days, requestID)
}

func (h *Handler) handleListPunches(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	employeeID := employeeScope(user, q.Get("employee_id"))
	v := shared.NewValidator()
	v.UUID("employee_id", employeeID)
	from, to := v.Period("from", q.Get("from"), "to", q.Get("to"))
	if v.Reject(w, requestID) {
		return
	}

	punches, err := h.Service.ListPunches(r.Context(), employeeID, from, to)
	if err != nil {
		api.WriteError(w, err, "failed to list punches", requestID)
		return
	}
	api.Success(w, punches, requestID)
}

type punchPayload struct {
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	PunchTime  time.Time `json:"punch_time" validate:"required"`
}

func (h *Handler) handleRecordPunch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload punchPayload
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}
	punch, err := h.Service.RecordPunch(r.Context(), payload.EmployeeID, payload.PunchTime)
	if err != nil {
		api.WriteError(w, err, "failed to record punch", requestID)
		return
	}
	api.Created(w, punch, requestID)
}

type normalizePayload struct {
	WorkDate string `json:"work_date" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	var payload normalizePayload
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}
	workDate, err := shared.ParseDate(payload.WorkDate)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "work_date", Reason: "must be a valid date in YYYY-MM-DD format"}})
		return
	}

	result, err := h.Service.Normalize(r.Context(), workDate)
	if err != nil {
		api.WriteError(w, err, "failed to normalize attendance", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.CompanyID, user.UserID, audit.ActionAttendanceRun, "attendance_day", payload.WorkDate, requestID, shared.ClientIP(r), nil, result); err != nil {
		slog.Warn("audit attendance.normalize failed", "err", err)
	}
	api.Success(w, result, requestID)
}
