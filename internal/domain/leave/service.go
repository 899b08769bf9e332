package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"workpay/internal/domain/apperr"
	"workpay/internal/domain/auth"
	"workpay/internal/domain/payroll"
	"workpay/internal/domain/workforce"
)

// LockChecker finds locked payroll runs touching a date range.
type LockChecker interface {
	LockedRunsOverlapping(ctx context.Context, companyID string, start, end time.Time) ([]payroll.Run, error)
}

type Directory interface {
	FindEmployee(ctx context.Context, id string) (workforce.Employee, error)
}

type Service struct {
	store     StoreAPI
	locks     LockChecker
	directory Directory
}

func NewService(store StoreAPI, locks LockChecker, directory Directory) *Service {
	return &Service{store: store, locks: locks, directory: directory}
}

func (s *Service) CreateRequest(ctx context.Context, actor Actor, input CreateInput) (Request, error) {
	employeeID := strings.TrimSpace(input.EmployeeID)
	if actor.Role == auth.RoleEmployee {
		if input.EmployeeID != "" && input.EmployeeID != actor.EmployeeID {
			return Request{}, &ForbiddenError{Reason: "employees may only request leave for themselves"}
		}
		employeeID = actor.EmployeeID
	}
	if employeeID == "" {
		return Request{}, &ValidationError{Field: "employeeId", Reason: "is required"}
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return Request{}, &ValidationError{Field: "startDate", Reason: "and endDate are required"}
	}
	if _, err := CalculateDays(input.StartDate, input.EndDate); err != nil {
		return Request{}, &ValidationError{Field: "endDate", Reason: "must be on or after startDate"}
	}
	leaveType := strings.TrimSpace(input.LeaveType)
	if leaveType == "" {
		return Request{}, &ValidationError{Field: "leaveType", Reason: "is required"}
	}
	if _, err := s.directory.FindEmployee(ctx, employeeID); err != nil {
		if errors.Is(err, apperr.NotFound) {
			return Request{}, &ValidationError{Field: "employeeId", Reason: "does not exist"}
		}
		return Request{}, err
	}

	return s.store.CreateRequest(ctx, Request{
		EmployeeID: employeeID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		LeaveType:  leaveType,
		IsPaid:     input.IsPaid,
		Reason:     strings.TrimSpace(input.Reason),
	})
}

// ListRequests scopes the listing to what actor may see.
func (s *Service) ListRequests(ctx context.Context, actor Actor, filter Filter) ([]Request, error) {
	switch actor.Role {
	case auth.RoleEmployee:
		filter.EmployeeID = actor.EmployeeID
	case auth.RoleAgency:
		filter.AgencyID = actor.AgencyID
	}
	out, err := s.store.ListRequests(ctx, filter)
	if out == nil && err == nil {
		out = []Request{}
	}
	return out, err
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (Request, error) {
	return s.store.GetRequest(ctx, requestID)
}

// Approve accepts a pending request unless a locked payroll run of the
// employee's company overlaps it.
func (s *Service) Approve(ctx context.Context, actor Actor, requestID, remarks string) (Request, error) {
	req, err := s.decidable(ctx, actor, requestID)
	if err != nil {
		return Request{}, err
	}
	locked, err := s.locks.LockedRunsOverlapping(ctx, req.CompanyID, req.StartDate, req.EndDate)
	if err != nil {
		return Request{}, fmt.Errorf("check locked payroll: %w", err)
	}
	if len(locked) > 0 {
		slog.Warn("leave approval blocked by locked payroll", "request_id", req.ID, "run_id", locked[0].ID)
		return Request{}, &LockedConflictError{RequestID: req.ID, RunID: locked[0].ID}
	}
	return s.store.Decide(ctx, Decision{RequestID: req.ID, Status: StatusApproved, ActorID: actor.UserID, Role: actor.Role, Remarks: strings.TrimSpace(remarks)})
}

// Reject does not depend on payroll state.
func (s *Service) Reject(ctx context.Context, actor Actor, requestID, remarks string) (Request, error) {
	req, err := s.decidable(ctx, actor, requestID)
	if err != nil {
		return Request{}, err
	}
	return s.store.Decide(ctx, Decision{RequestID: req.ID, Status: StatusRejected, ActorID: actor.UserID, Role: actor.Role, Remarks: strings.TrimSpace(remarks)})
}

func (s *Service) decidable(ctx context.Context, actor Actor, requestID string) (Request, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, &NotPendingError{RequestID: req.ID, Status: req.Status}
	}
	if actor.Role == auth.RoleAgency {
		employee, err := s.directory.FindEmployee(ctx, req.EmployeeID)
		if err != nil {
			return Request{}, err
		}
		if employee.AgencyID != actor.AgencyID {
			return Request{}, &ForbiddenError{Reason: "leave request belongs to another agency"}
		}
	}
	return req, nil
}

// ApprovedOn lists approved requests covering date.
func (s *Service) ApprovedOn(ctx context.Context, date time.Time) ([]Request, error) {
	return s.store.ApprovedOn(ctx, date)
}
