package leave

import (
	"fmt"

	"workpay/internal/domain/apperr"
)

// LockedConflictMessage is shown when approval would touch a locked payroll period.
const LockedConflictMessage = "Payroll is locked for this period. Create a payroll adjustment."

type LockedConflictError struct {
	RequestID string
	RunID     string
}

func (e *LockedConflictError) Error() string {
	return LockedConflictMessage
}

func (e *LockedConflictError) Is(target error) bool {
	return target == apperr.State
}

type NotPendingError struct {
	RequestID string
	Status    string
}

func (e *NotPendingError) Error() string {
	return fmt.Sprintf("leave request %s is already %s", e.RequestID, e.Status)
}

func (e *NotPendingError) Is(target error) bool {
	return target == apperr.State
}

type NotFoundError struct {
	RequestID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("leave request %s not found", e.RequestID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == apperr.NotFound
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

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

func (e *ForbiddenError) Is(target error) bool {
	return target == apperr.Forbidden
}
