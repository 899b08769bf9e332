package rules

import (
	"time"

	"github.com/shopspring/decimal"
)

type RuleSetRow struct {
	ID            string     `json:"id"`
	CompanyID     string     `json:"companyId"`
	EffectiveFrom time.Time  `json:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty"`
}

func (r RuleSetRow) Window() Window {
	return Window{From: r.EffectiveFrom, To: r.EffectiveTo}
}

type PayRule struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RuleSet is the resolved, fully defaulted rule set handed to the calculation engine.
type RuleSet struct {
	ID                  string          `json:"id"`
	CompanyID           string          `json:"companyId"`
	EffectiveFrom       time.Time       `json:"effectiveFrom"`
	Rounding            RoundingPolicy  `json:"rounding"`
	HourlyRate          decimal.Decimal `json:"hourlyRate"`
	OvertimeMultiplier  decimal.Decimal `json:"overtimeMultiplier"`
	NightDiffMultiplier decimal.Decimal `json:"nightDiffMultiplier"`
	HolidayMultiplier   decimal.Decimal `json:"holidayMultiplier"`
	RestDayMultiplier   decimal.Decimal `json:"restDayMultiplier"`
	OTThresholdMinutes  int             `json:"otThresholdMinutes"`
}
