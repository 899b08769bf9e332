package api

import (
	"errors"
	"log/slog"
	"net/http"

	"workpay/internal/domain/apperr"
)

// StatusFor maps a domain error to its HTTP status and error code.
// Errors without a kind are internal failures.
func StatusFor(err error) (int, string) {
	switch apperr.Kind(err) {
	case apperr.Validation:
		return http.StatusBadRequest, "validation_error"
	case apperr.NotFound:
		return http.StatusNotFound, "not_found"
	case apperr.Resolution:
		return http.StatusUnprocessableEntity, "resolution_error"
	case apperr.State:
		return http.StatusConflict, "state_error"
	case apperr.Idempotency:
		return http.StatusConflict, "idempotency_error"
	case apperr.Forbidden:
		return http.StatusForbidden, "forbidden"
	}
	return http.StatusInternalServerError, "internal_error"
}

// WriteError writes err with the status of its kind. Internal errors are
// logged and reported with fallback instead of err's text.
func WriteError(w http.ResponseWriter, err error, fallback, requestID string) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(fallback, "err", err, "requestId", requestID)
		Fail(w, status, code, fallback, requestID)
		return
	}
	var detailed interface{ Details() any }
	if errors.As(err, &detailed) {
		FailWithDetails(w, status, code, err.Error(), detailed.Details(), requestID)
		return
	}
	Fail(w, status, code, err.Error(), requestID)
}
