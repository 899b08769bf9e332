// Package apperr holds the error kinds shared by the domain packages.
// Typed domain errors match a kind through errors.Is.
package apperr

import "errors"

var (
	Resolution  = errors.New("resolution error")
	Validation  = errors.New("validation error")
	State       = errors.New("state error")
	Idempotency = errors.New("idempotency error")
	NotFound    = errors.New("not found")
	Forbidden   = errors.New("forbidden")
)

// Kind returns the kind sentinel err matches, or nil.
func Kind(err error) error {
	for _, kind := range []error{Validation, Idempotency, State, Resolution, NotFound, Forbidden} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
