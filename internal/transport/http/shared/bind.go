package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Bind decodes a JSON body into dst and runs its validate tags. On failure it
// writes a 400 envelope and returns false.
func Bind(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	body, ok := ReadBody(w, r, requestID)
	if !ok {
		return false
	}
	return BindBytes(w, body, dst, requestID)
}

// ReadBody reads the whole request body for handlers that hash it.
func ReadBody(w http.ResponseWriter, r *http.Request, requestID string) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		FailValidation(w, requestID, []ValidationIssue{decodeIssue(err)})
		return nil, false
	}
	return body, true
}

func BindBytes(w http.ResponseWriter, body []byte, dst any, requestID string) bool {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		FailValidation(w, requestID, []ValidationIssue{decodeIssue(err)})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			issues := make([]ValidationIssue, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				issues = append(issues, ValidationIssue{Field: fe.Field(), Reason: fieldReason(fe)})
			}
			FailValidation(w, requestID, issues)
			return false
		}
		FailValidation(w, requestID, []ValidationIssue{{Reason: err.Error()}})
		return false
	}
	return true
}

func decodeIssue(err error) ValidationIssue {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return ValidationIssue{Field: "body", Reason: "request body is empty"}
	case errors.As(err, &syntaxErr):
		return ValidationIssue{Field: "body", Reason: fmt.Sprintf("invalid JSON at byte offset %d", syntaxErr.Offset)}
	case errors.As(err, &typeErr):
		return ValidationIssue{Field: typeErr.Field, Reason: "must be of type " + typeErr.Type.String()}
	case errors.As(err, &maxErr):
		return ValidationIssue{Field: "body", Reason: "request body too large"}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return ValidationIssue{Field: strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`), Reason: "is not a known field"}
	}
	return ValidationIssue{Field: "body", Reason: "invalid request payload"}
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "numeric":
		return "must be numeric"
	}
	return "failed validation for " + fe.Tag()
}
