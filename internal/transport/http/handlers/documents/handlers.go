package documentshandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"workpay/internal/domain/audit"
	"workpay/internal/domain/auth"
	"workpay/internal/domain/payroll"
	"workpay/internal/platform/metrics"
	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/middleware"
	"workpay/internal/transport/http/shared"
)

type Handler struct {
	Payroll     *payroll.Service
	Payslips    *payroll.PayslipGenerator
	Perms       middleware.PermissionStore
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(payrollSvc *payroll.Service, payslips *payroll.PayslipGenerator, perms middleware.PermissionStore, auditSvc *audit.Service, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Payroll: payrollSvc, Payslips: payslips, Perms: perms, Audit: auditSvc, Idempotency: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayslipsGenerate, h.Perms)).Post("/payroll/{runID}/payslips", h.handleGeneratePayslips)
		r.With(middleware.RequirePermission(auth.PermPayslipsRead, h.Perms)).Get("/payslips", h.handleListPayslips)
		r.With(middleware.RequirePermission(auth.PermPayslipsRead, h.Perms)).Get("/payslips/{documentID}/download", h.handleDownloadPayslip)
	})
}

// RecordSkip is a payroll.SkipHook that audits employees left without a
// payslip. The request context carries the acting user when there is one.
func (h *Handler) RecordSkip(ctx context.Context, run payroll.Run, employeeID string, reason error) {
	actorID := ""
	if user, ok := middleware.GetUser(ctx); ok {
		actorID = user.UserID
	}
	if h.Metrics != nil {
		h.Metrics.Inc("payslip.skipped")
	}
	detail := map[string]string{"runId": run.ID, "reason": reason.Error()}
	if err := h.Audit.Record(ctx, run.CompanyID, actorID, audit.ActionPayslipSkipped, "employee", employeeID, middleware.GetRequestID(ctx), "", nil, detail); err != nil {
		slog.Warn("audit payslip.skipped failed", "runId", run.ID, "employeeId", employeeID, "err", err)
	}
}

func inScope(user auth.UserContext, run payroll.Run) bool {
	return user.CompanyID == "" || user.CompanyID == run.CompanyID
}

func (h *Handler) handleGeneratePayslips(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	run, err := h.Payroll.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		api.WriteError(w, err, "failed to load payroll run", requestID)
		return
	}
	if !inScope(user, run) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
		return
	}

	endpoint := "documents.payslips:" + run.ID
	key := r.Header.Get(middleware.IdempotencyHeader)
	hash := middleware.RequestHash([]byte(run.ID))
	stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, endpoint, key, hash)
	if err != nil {
		slog.Warn("idempotency check failed", "endpoint", endpoint, "err", err)
	}
	if found {
		api.Success(w, stored, requestID)
		return
	}

	result, err := h.Payslips.Generate(r.Context(), payroll.Actor{UserID: user.UserID, Role: user.Role}, run.ID)
	if err != nil {
		api.WriteError(w, err, "failed to generate payslips", requestID)
		return
	}
	if err := h.Idempotency.Save(r.Context(), user.UserID, endpoint, key, hash, result); err != nil {
		slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
	}
	if h.Metrics != nil {
		h.Metrics.Inc("payslip.generate")
	}
	if err := h.Audit.Record(r.Context(), run.CompanyID, user.UserID, audit.ActionPayslipGenerate, "payroll_run", run.ID, requestID, shared.ClientIP(r), nil, result); err != nil {
		slog.Warn("audit payslip.generate failed", "runId", run.ID, "err", err)
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	filter := payroll.DocumentFilter{
		RunID:      r.URL.Query().Get("run_id"),
		EmployeeID: r.URL.Query().Get("employee_id"),
	}

	if user.Role == auth.RoleEmployee {
		if user.EmployeeID == "" {
			api.Success(w, []payroll.Document{}, requestID)
			return
		}
		filter.EmployeeID = user.EmployeeID
	} else {
		if filter.RunID == "" {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "run_id", Reason: "is required"}})
			return
		}
		run, err := h.Payroll.GetRun(r.Context(), filter.RunID)
		if err != nil {
			api.WriteError(w, err, "failed to load payroll run", requestID)
			return
		}
		if !inScope(user, run) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
			return
		}
	}

	docs, err := h.Payslips.ListDocuments(r.Context(), filter)
	if err != nil {
		api.WriteError(w, err, "failed to list payslips", requestID)
		return
	}
	api.Success(w, docs, requestID)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	doc, err := h.Payslips.Document(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		api.WriteError(w, err, "failed to load payslip", requestID)
		return
	}
	if err := h.authorizeDocument(r.Context(), user, doc); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "document not found", requestID)
		return
	}
	content, err := h.Payslips.Read(r.Context(), doc)
	if err != nil {
		api.WriteError(w, err, "failed to open payslip", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s-%s.pdf", doc.RunID, doc.EmployeeID))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Header().Set("X-Content-SHA256", doc.ContentHash)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		slog.Warn("payslip download write failed", "documentId", doc.ID, "err", err)
	}
}

var errOutOfScope = errors.New("document outside caller scope")

func (h *Handler) authorizeDocument(ctx context.Context, user auth.UserContext, doc payroll.Document) error {
	if user.Role == auth.RoleEmployee {
		if user.EmployeeID == "" || doc.EmployeeID != user.EmployeeID {
			return errOutOfScope
		}
		return nil
	}
	run, err := h.Payroll.GetRun(ctx, doc.RunID)
	if err != nil {
		return err
	}
	if !inScope(user, run) {
		return errOutOfScope
	}
	return nil
}
