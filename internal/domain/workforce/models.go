package workforce

import "time"

const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Agency struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Employee struct {
	ID        string    `json:"id"`
	Code      string    `json:"employeeCode"`
	FullName  string    `json:"fullName"`
	CompanyID string    `json:"companyId"`
	AgencyID  string    `json:"agencyId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type EmployeeFilter struct {
	CompanyID string
	AgencyID  string
	Status    string
}

type RateInput struct {
	EmployeeID          string
	HourlyRate          string
	OvertimeMultiplier  string
	NightDiffMultiplier string
	HolidayMultiplier   string
	RestDayMultiplier   string
	EffectiveFrom       time.Time
	EffectiveTo         *time.Time
}
