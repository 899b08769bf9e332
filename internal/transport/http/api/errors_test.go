package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"workpay/internal/domain/apperr"
)

type kindError struct {
	kind error
	msg  string
}

func (e kindError) Error() string        { return e.msg }
func (e kindError) Is(target error) bool { return target == e.kind }

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{kindError{apperr.Validation, "bad"}, http.StatusBadRequest},
		{kindError{apperr.NotFound, "missing"}, http.StatusNotFound},
		{kindError{apperr.Resolution, "no rule"}, http.StatusUnprocessableEntity},
		{kindError{apperr.State, "locked"}, http.StatusConflict},
		{kindError{apperr.Idempotency, "twice"}, http.StatusConflict},
		{kindError{apperr.Forbidden, "nope"}, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", kindError{apperr.State, "locked"}), http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if status, _ := StatusFor(tc.err); status != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, status)
		}
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused"), "failed to list runs", "req-1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == nil || env.Error.Message != "failed to list runs" || env.RequestID != "req-1" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteErrorUsesDomainMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, kindError{apperr.State, "Payroll is locked for this period. Create a payroll adjustment."}, "failed", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != "Payroll is locked for this period. Create a payroll adjustment." {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
}
