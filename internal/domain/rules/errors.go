package rules

import (
	"fmt"
	"time"

	"workpay/internal/domain/apperr"
)

type RuleNotFoundError struct {
	CompanyID string
	Date      time.Time
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("no rule set found for company %s on %s", e.CompanyID, e.Date.Format(time.DateOnly))
}

func (e *RuleNotFoundError) Is(target error) bool {
	return target == apperr.Resolution
}

type InvalidRuleValueError struct {
	RuleSetID string
	Key       string
	Value     string
}

func (e *InvalidRuleValueError) Error() string {
	return fmt.Sprintf("invalid %s %q in rule set %s", e.Key, e.Value, e.RuleSetID)
}

func (e *InvalidRuleValueError) Is(target error) bool {
	return target == apperr.Validation
}
