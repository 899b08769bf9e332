package payroll

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"workpay/internal/domain/rules"
)

type AttendanceDay struct {
	EmployeeID       string    `json:"employeeId"`
	WorkDate         time.Time `json:"workDate"`
	RegularMinutes   int       `json:"regularMinutes"`
	OvertimeMinutes  int       `json:"overtimeMinutes"`
	NightDiffMinutes int       `json:"nightDiffMinutes"`
	HolidayMinutes   int       `json:"holidayMinutes"`
	RestDayMinutes   int       `json:"restDayMinutes"`
}

// RateRow is one effective-dated row of an employee's rate history.
// Multipliers left empty fall back to the resolved rule set.
type RateRow struct {
	EmployeeID          string
	HourlyRate          decimal.Decimal
	OvertimeMultiplier  decimal.NullDecimal
	NightDiffMultiplier decimal.NullDecimal
	HolidayMultiplier   decimal.NullDecimal
	RestDayMultiplier   decimal.NullDecimal
	EffectiveFrom       time.Time
	EffectiveTo         *time.Time
}

func (r RateRow) Window() rules.Window {
	return rules.Window{From: r.EffectiveFrom, To: r.EffectiveTo}
}

type EmployeeRate struct {
	EmployeeID          string          `json:"employeeId"`
	HourlyRate          decimal.Decimal `json:"hourlyRate"`
	OvertimeMultiplier  decimal.Decimal `json:"overtimeMultiplier"`
	NightDiffMultiplier decimal.Decimal `json:"nightDiffMultiplier"`
	HolidayMultiplier   decimal.Decimal `json:"holidayMultiplier"`
	RestDayMultiplier   decimal.Decimal `json:"restDayMultiplier"`
}

type LineItem struct {
	EmployeeID   string          `json:"employeeId"`
	WorkDate     time.Time       `json:"workDate"`
	RegularPay   decimal.Decimal `json:"regularPay"`
	OvertimePay  decimal.Decimal `json:"overtimePay"`
	NightDiffPay decimal.Decimal `json:"nightDiffPay"`
	HolidayPay   decimal.Decimal `json:"holidayPay"`
	RestDayPay   decimal.Decimal `json:"restDayPay"`
	GrossPay     decimal.Decimal `json:"grossPay"`
}

type Breakdown struct {
	Regular     decimal.Decimal `json:"regular"`
	Overtime    decimal.Decimal `json:"overtime"`
	NightDiff   decimal.Decimal `json:"nightDiff"`
	Holiday     decimal.Decimal `json:"holiday"`
	RestDay     decimal.Decimal `json:"restDay"`
	Adjustments decimal.Decimal `json:"adjustments"`
}

type EmployeeSummary struct {
	EmployeeID string          `json:"employeeId"`
	GrossPay   decimal.Decimal `json:"grossPay"`
	NetPay     decimal.Decimal `json:"netPay"`
	Breakdown  Breakdown       `json:"breakdown"`
}

type CalculationInput struct {
	Mode        Mode
	Attendance  []AttendanceDay
	Rates       RateMap
	Rules       rules.RuleSet
	Adjustments map[string]decimal.Decimal
}

type CalculationResult struct {
	Items     []LineItem        `json:"items"`
	Summaries []EmployeeSummary `json:"summaries"`
}

type Totals struct {
	Employees int             `json:"employees"`
	Gross     decimal.Decimal `json:"gross"`
	Net       decimal.Decimal `json:"net"`
}

type SandboxResult struct {
	Totals    Totals            `json:"totals"`
	Summaries []EmployeeSummary `json:"summaries"`
	Items     []LineItem        `json:"items"`
}

type RunSummary struct {
	RunID     string            `json:"runId"`
	Totals    Totals            `json:"totals"`
	Summaries []EmployeeSummary `json:"summaries"`
}

type Run struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"companyId"`
	PeriodStart time.Time  `json:"periodStart"`
	PeriodEnd   time.Time  `json:"periodEnd"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LockedAt    *time.Time `json:"lockedAt,omitempty"`
}

type RunFilter struct {
	CompanyID string
	Status    string
}

type CreateRunInput struct {
	CompanyID   string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Type        string
}

// Payable is a frozen attendance row of a payroll run. The bucket pays and
// PayrollAmount are priced once at snapshot time and never recomputed.
type Payable struct {
	RunID            string          `json:"runId"`
	EmployeeID       string          `json:"employeeId"`
	WorkDate         time.Time       `json:"workDate"`
	RegularMinutes   int             `json:"regularMinutes"`
	OvertimeMinutes  int             `json:"overtimeMinutes"`
	NightDiffMinutes int             `json:"nightDiffMinutes"`
	HolidayMinutes   int             `json:"holidayMinutes"`
	RestDayMinutes   int             `json:"restDayMinutes"`
	RegularPay       decimal.Decimal `json:"regularPay"`
	OvertimePay      decimal.Decimal `json:"overtimePay"`
	NightDiffPay     decimal.Decimal `json:"nightDiffPay"`
	HolidayPay       decimal.Decimal `json:"holidayPay"`
	RestDayPay       decimal.Decimal `json:"restDayPay"`
	PayrollAmount    decimal.Decimal `json:"payrollAmount"`
}

type SnapshotResult struct {
	RunID string `json:"runId"`
	Rows  int    `json:"rows"`
}

type Adjustment struct {
	ID         string          `json:"id"`
	RunID      string          `json:"runId"`
	EmployeeID string          `json:"employeeId"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	CreatedBy  string          `json:"createdBy"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type AdjustmentInput struct {
	RunID      string
	EmployeeID string
	Amount     decimal.Decimal
	Reason     string
}

type Acknowledgment struct {
	ID        string    `json:"id"`
	RunID     string    `json:"runId"`
	ActorID   string    `json:"actorId"`
	Role      string    `json:"role"`
	RunStatus string    `json:"runStatus"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Approval struct {
	ID         string    `json:"id"`
	RunID      string    `json:"runId"`
	ActorID    string    `json:"actorId"`
	Role       string    `json:"role"`
	Action     string    `json:"action"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	CreatedAt  time.Time `json:"createdAt"`
}

type History struct {
	Acknowledgments []Acknowledgment `json:"acknowledgments"`
	Approvals       []Approval       `json:"approvals"`
}

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	UserID       string
	Role         string
	Capabilities []string
}

func (a Actor) Has(capability string) bool {
	return slices.Contains(a.Capabilities, capability)
}

type Document struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	RunID       string    `json:"runId"`
	EmployeeID  string    `json:"employeeId"`
	StorageKey  string    `json:"-"`
	ContentHash string    `json:"contentHash"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type DocumentFilter struct {
	RunID      string
	EmployeeID string
	Type       string
}

type PayslipResult struct {
	RunID   string   `json:"runId"`
	Count   int      `json:"count"`
	Skipped []string `json:"skipped"`
}
