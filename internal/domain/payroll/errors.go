package payroll

import (
	"errors"
	"fmt"
	"strings"

	"workpay/internal/domain/apperr"
)

var (
	ErrRunNotFound      = &NotFoundError{Entity: "payroll run"}
	ErrDocumentNotFound = &NotFoundError{Entity: "document"}
)

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	if target == apperr.NotFound {
		return true
	}
	var other *NotFoundError
	return errors.As(target, &other) && other.Entity == e.Entity
}

func runNotFound(id string) error {
	return &NotFoundError{Entity: "payroll run", ID: id}
}

type MissingRateError struct {
	EmployeeID string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("missing rate for employee %s", e.EmployeeID)
}

func (e *MissingRateError) Is(target error) bool {
	return target == apperr.Resolution
}

func (e *MissingRateError) Details() any {
	return map[string]string{"employeeId": e.EmployeeID}
}

type InvalidStatusTransitionError struct {
	RunID  string
	Status string
	Action string
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("cannot %s payroll run %s in status %s", e.Action, e.RunID, e.Status)
}

func (e *InvalidStatusTransitionError) Is(target error) bool {
	return target == apperr.State
}

func (e *InvalidStatusTransitionError) Details() any {
	return map[string]string{"runId": e.RunID, "status": e.Status, "action": e.Action}
}

type SnapshotAlreadyExistsError struct {
	RunID string
}

func (e *SnapshotAlreadyExistsError) Error() string {
	return fmt.Sprintf("payroll run %s already has a snapshot", e.RunID)
}

func (e *SnapshotAlreadyExistsError) Is(target error) bool {
	return target == apperr.Idempotency
}

type AdjustmentNotAllowedError struct {
	RunID  string
	Status string
}

func (e *AdjustmentNotAllowedError) Error() string {
	return fmt.Sprintf("adjustments require a locked payroll run; run %s is %s", e.RunID, e.Status)
}

func (e *AdjustmentNotAllowedError) Is(target error) bool {
	return target == apperr.State
}

type PayrollNotLockedError struct {
	RunID  string
	Status string
}

func (e *PayrollNotLockedError) Error() string {
	return fmt.Sprintf("payroll run %s is %s, not locked", e.RunID, e.Status)
}

func (e *PayrollNotLockedError) Is(target error) bool {
	return target == apperr.State
}

type NoSnapshotError struct {
	RunID string
}

func (e *NoSnapshotError) Error() string {
	return fmt.Sprintf("payroll run %s has no attendance snapshot", e.RunID)
}

func (e *NoSnapshotError) Is(target error) bool {
	return target == apperr.State
}

type CapabilityError struct {
	RunID    string
	Action   string
	Role     string
	Required []string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("role %s cannot %s payroll run %s (requires %s)", e.Role, e.Action, e.RunID, strings.Join(e.Required, " or "))
}

func (e *CapabilityError) Is(target error) bool {
	return target == apperr.Forbidden
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == apperr.Validation
}

func (e *ValidationError) Details() any {
	return map[string]string{"field": e.Field, "reason": e.Reason}
}
