package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeOvertime = "ot_summary"
	TypeAbsence  = "absence_summary"
)

var Types = []string{TypeOvertime, TypeAbsence}

type Snapshot struct {
	ID         string         `json:"id"`
	CompanyID  string         `json:"companyId"`
	RunID      string         `json:"runId"`
	Type       string         `json:"snapshotType"`
	Dimensions map[string]any `json:"dimensions"`
	Metrics    map[string]any `json:"metrics"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// PayableTotals aggregates the frozen payables of one run.
type PayableTotals struct {
	OvertimeMinutes int
	PayrollAmount   decimal.Decimal
	Employees       int
}

type Filter struct {
	Type      string
	CompanyID string
	RunID     string
}
