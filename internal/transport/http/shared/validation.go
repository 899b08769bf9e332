package shared

import (
	"cmp"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"workpay/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects field issues from query strings and decoded payloads
// that struct tags cannot express, such as period ordering.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: reason})
}

// Date parses a required YYYY-MM-DD value.
func (v *Validator) Date(field, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, "is required")
		return time.Time{}
	}
	return v.OptionalDate(field, raw)
}

// OptionalDate parses raw when present and returns the zero time otherwise.
func (v *Validator) OptionalDate(field, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		v.Add(field, "must be a date in YYYY-MM-DD format")
		return time.Time{}
	}
	return parsed
}

// Ordered flags a range whose end precedes its start. Unset bounds pass.
func (v *Validator) Ordered(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() || !end.Before(start) {
		return
	}
	v.Add(endField, "must be on or after "+startField)
}

// Period parses a required inclusive date range.
func (v *Validator) Period(startField, startRaw, endField, endRaw string) (time.Time, time.Time) {
	start := v.Date(startField, startRaw)
	end := v.Date(endField, endRaw)
	v.Ordered(startField, start, endField, end)
	return start, end
}

// UUID checks a required identifier.
func (v *Validator) UUID(field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, "is required")
		return ""
	}
	if uuid.Validate(raw) != nil {
		v.Add(field, "must be a UUID")
		return ""
	}
	return raw
}

// OneOf accepts an empty value or one of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) {
	if value == "" || slices.Contains(allowed, value) {
		return
	}
	v.Add(field, "must be one of: "+strings.Join(allowed, ", "))
}

// Page reads limit and offset, capping limit at maxLimit.
func (v *Validator) Page(q url.Values, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			v.Add("limit", "must be a positive integer")
		} else {
			limit = min(n, maxLimit)
		}
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			v.Add("offset", "must be a non-negative integer")
		} else {
			offset = n
		}
	}
	return limit, offset
}

func (v *Validator) HasIssues() bool {
	return len(v.issues) > 0
}

// Issues returns the collected issues ordered by field.
func (v *Validator) Issues() []ValidationIssue {
	out := slices.Clone(v.issues)
	slices.SortStableFunc(out, func(a, b ValidationIssue) int {
		if c := cmp.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return cmp.Compare(a.Reason, b.Reason)
	})
	return out
}

// Reject answers 400 with every issue and reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": issues}, requestID)
}
