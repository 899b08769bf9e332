package payrollhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"workpay/internal/domain/audit"
	"workpay/internal/domain/auth"
	"workpay/internal/domain/payroll"
	"workpay/internal/platform/metrics"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
	"workpay/internal/transport/http/shared"
)

type Handler struct {
	Service     *payroll.Service
	Perms       middleware.PermissionStore
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(service *payroll.Service, perms middleware.PermissionStore, auditSvc *audit.Service, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Idempotency: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Post("/sandbox", h.handleSandbox)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/runs", h.handleListRuns)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/runs", h.handleCreateRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/runs/{runID}", h.handleGetRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/runs/{runID}/snapshot", h.handleSnapshot)
		r.With(middleware.RequirePermission(auth.PermPayrollWorkflow, h.Perms)).Post("/runs/{runID}/submit", h.handleTransition(payroll.ActionSubmit))
		r.With(middleware.RequirePermission(auth.PermPayrollWorkflow, h.Perms)).Post("/runs/{runID}/approve", h.handleTransition(payroll.ActionApprove))
		r.With(middleware.RequirePermission(auth.PermPayrollWorkflow, h.Perms)).Post("/runs/{runID}/lock", h.handleTransition(payroll.ActionLock))
		r.With(middleware.RequirePermission(auth.PermPayrollWorkflow, h.Perms)).Post("/runs/{runID}/acknowledge", h.handleAcknowledge)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/runs/{runID}/history", h.handleHistory)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/runs/{runID}/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/runs/{runID}/adjustments", h.handleListAdjustments)
		r.With(middleware.RequirePermission(auth.PermPayrollAdjust, h.Perms)).Post("/runs/{runID}/adjustments", h.handleCreateAdjustment)
	})
}

func actorOf(user auth.UserContext) payroll.Actor {
	return payroll.Actor{UserID: user.UserID, Role: user.Role, Capabilities: auth.WorkflowCapabilities(user.Role)}
}

// companyScope resolves the company a request may act on. Users bound to a
// company cannot reach another one.
func companyScope(user auth.UserContext, requested string) (string, bool) {
	if user.CompanyID == "" {
		return requested, true
	}
	if requested == "" || requested == user.CompanyID {
		return user.CompanyID, true
	}
	return "", false
}

func (h *Handler) inc(event string) {
	if h.Metrics != nil {
		h.Metrics.Inc(event)
	}
}

func (h *Handler) record(r *http.Request, user auth.UserContext, companyID, action, entityType, entityID string, after any) {
	if err := h.Audit.Record(r.Context(), companyID, user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, after); err != nil {
		slog.Warn("audit failed", "action", action, "entityId", entityID, "err", err)
	}
}

// loadRun fetches the path's run and enforces the caller's company scope.
func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request, user auth.UserContext) (payroll.Run, bool) {
	requestID := middleware.GetRequestID(r.Context())
	run, err := h.Service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		api.WriteError(w, err, "failed to load payroll run", requestID)
		return payroll.Run{}, false
	}
	if _, ok := companyScope(user, run.CompanyID); !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
		return payroll.Run{}, false
	}
	return run, true
}

type periodPayload struct {
	CompanyID   string `json:"company_id" validate:"omitempty,uuid"`
	PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" validate:"required,datetime=2006-01-02"`
	Type        string `json:"type" validate:"omitempty,oneof=regular"`
}

func (h *Handler) parsePeriod(w http.ResponseWriter, r *http.Request, user auth.UserContext) (string, periodPayload, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload periodPayload
	if !shared.Bind(w, r, &payload, requestID) {
		return "", payload, false
	}
	companyID, ok := companyScope(user, payload.CompanyID)
	if !ok {
		api.Fail(w, http.StatusForbidden, "forbidden", "company outside caller scope", requestID)
		return "", payload, false
	}
	if companyID == "" {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "company_id", Reason: "is required"}})
		return "", payload, false
	}
	return companyID, payload, true
}

func (h *Handler) handleSandbox(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	companyID, payload, ok := h.parsePeriod(w, r, user)
	if !ok {
		return
	}
	v := shared.NewValidator()
	start, end := v.Period("period_start", payload.PeriodStart, "period_end", payload.PeriodEnd)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Sandbox(r.Context(), companyID, start, end)
	if err != nil {
		api.WriteError(w, err, "failed to compute sandbox payroll", middleware.GetRequestID(r.Context()))
		return
	}
	h.inc("payroll.sandbox")
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	companyID, payload, ok := h.parsePeriod(w, r, user)
	if !ok {
		return
	}
	v := shared.NewValidator()
	start, end := v.Period("period_start", payload.PeriodStart, "period_end", payload.PeriodEnd)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	run, err := h.Service.CreateRun(r.Context(), actorOf(user), payroll.CreateRunInput{
		CompanyID:   companyID,
		PeriodStart: start,
		PeriodEnd:   end,
		Type:        payload.Type,
	})
	if err != nil {
		api.WriteError(w, err, "failed to create payroll run", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, run.CompanyID, audit.ActionRunCreate, "payroll_run", run.ID, run)
	api.Created(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	companyID, ok := companyScope(user, r.URL.Query().Get("company_id"))
	if !ok {
		api.Fail(w, http.StatusForbidden, "forbidden", "company outside caller scope", requestID)
		return
	}
	status := r.URL.Query().Get("status")
	v := shared.NewValidator()
	v.OneOf("status", status, payroll.Statuses)
	if v.Reject(w, requestID) {
		return
	}

	runs, err := h.Service.ListRuns(r.Context(), payroll.RunFilter{CompanyID: companyID, Status: status})
	if err != nil {
		api.WriteError(w, err, "failed to list payroll runs", requestID)
		return
	}
	api.Success(w, runs, requestID)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	run, ok := h.loadRun(w, r, user)
	if !ok {
		return
	}
	api.Success(w, map[string]any{
		"run":            run,
		"allowedActions": payroll.AllowedActions(run.Status, actorOf(user)),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	run, ok := h.loadRun(w, r, user)
	if !ok {
		return
	}
	result, err := h.Service.Snapshot(r.Context(), actorOf(user), run.ID)
	if err != nil {
		var exists *payroll.SnapshotAlreadyExistsError
		if errors.As(err, &exists) {
			h.inc("payroll.snapshot.duplicate")
		}
		api.WriteError(w, err, "failed to snapshot payroll run", middleware.GetRequestID(r.Context()))
		return
	}
	h.inc("payroll.snapshot")
	h.record(r, user, run.CompanyID, audit.ActionRunSnapshot, "payroll_run", run.ID, result)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTransition(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUser(r.Context())
		run, ok := h.loadRun(w, r, user)
		if !ok {
			return
		}
		actor := actorOf(user)
		var updated payroll.Run
		var err error
		switch action {
		case payroll.ActionSubmit:
			updated, err = h.Service.Submit(r.Context(), actor, run.ID)
		case payroll.ActionApprove:
			updated, err = h.Service.Approve(r.Context(), actor, run.ID)
		case payroll.ActionLock:
			updated, err = h.Service.Lock(r.Context(), actor, run.ID)
		}
		if err != nil {
			api.WriteError(w, err, "failed to "+action+" payroll run", middleware.GetRequestID(r.Context()))
			return
		}
		h.inc("payroll." + action)
		h.record(r, user, run.CompanyID, audit.ActionRunTransition, "payroll_run", run.ID, map[string]string{
			"action": action,
			"from":   run.Status,
			"to":     updated.Status,
		})
		api.Success(w, updated, middleware.GetRequestID(r.Context()))
	}
}

type acknowledgePayload struct {
	Remarks string `json:"remarks" validate:"max=2000"`
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	var payload acknowledgePayload
	if r.ContentLength != 0 && !shared.Bind(w, r, &payload, requestID) {
		return
	}
	run, ok := h.loadRun(w, r, user)
	if !ok {
		return
	}
	ack, err := h.Service.Acknowledge(r.Context(), actorOf(user), run.ID, payload.Remarks)
	if err != nil {
		api.WriteError(w, err, "failed to acknowledge payroll run", requestID)
		return
	}
	h.record(r, user, run.CompanyID, audit.ActionRunAcknowledge, "payroll_run", run.ID, ack)
	api.Created(w, ack, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	run, ok := h.loadRun(w, r, user)
	if !ok {
		return
	}
	history, err := h.Service.History(r.Context(), run.ID)
	if err != nil {
		api.WriteError(w, err, "failed to load payroll history", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	run, ok := h.loadRun(w, r, user)
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), run.ID)
	if err != nil {
		api.WriteError(w, err, "failed to summarize payroll run", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	run, ok := h.loadRun(w, r, user)
	if !ok {
		return
	}
	adjustments, err := h.Service.ListAdjustments(r.Context(), run.ID)
	if err != nil {
		api.WriteError(w, err, "failed to list adjustments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, adjustments, middleware.GetRequestID(r.Context()))
}

type adjustmentPayload struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Amount     string `json:"amount" validate:"required,numeric"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	body, ok := shared.ReadBody(w, r, requestID)
	if !ok {
		return
	}
	var payload adjustmentPayload
	if !shared.BindBytes(w, body, &payload, requestID) {
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "amount", Reason: "must be a decimal amount"}})
		return
	}
	run, ok := h.loadRun(w, r, user)
	if !ok {
		return
	}

	endpoint := "payroll.adjustments:" + run.ID
	key := r.Header.Get(middleware.IdempotencyHeader)
	hash := middleware.RequestHash(body)
	stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, endpoint, key, hash)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_error", err.Error(), requestID)
		return
	}
	if err != nil {
		slog.Warn("idempotency check failed", "endpoint", endpoint, "err", err)
	}
	if found {
		api.WriteJSON(w, http.StatusCreated, api.Envelope{Success: true, Data: stored, RequestID: requestID})
		return
	}

	adjustment, err := h.Service.AddAdjustment(r.Context(), actorOf(user), payroll.AdjustmentInput{
		RunID:      run.ID,
		EmployeeID: payload.EmployeeID,
		Amount:     amount,
		Reason:     payload.Reason,
	})
	if err != nil {
		api.WriteError(w, err, "failed to record adjustment", requestID)
		return
	}
	if err := h.Idempotency.Save(r.Context(), user.UserID, endpoint, key, hash, adjustment); err != nil {
		slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
	}
	h.inc("payroll.adjustment")
	h.record(r, user, run.CompanyID, audit.ActionAdjustmentAdd, "payroll_adjustment", adjustment.ID, adjustment)
	api.Created(w, adjustment, requestID)
}
