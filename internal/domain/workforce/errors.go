package workforce

import (
	"errors"
	"fmt"

	"workpay/internal/domain/apperr"
)

var ErrEmployeeNotFound = &NotFoundError{Entity: "employee"}

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
