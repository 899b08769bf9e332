package attendance

import "time"

const (
	SourceBiometric   = "biometric"
	SourceLeave       = "leave"
	SourceUnpaidLeave = "unpaid_leave"

	// StandardShiftMinutes is credited for a worked or paid-leave day.
	StandardShiftMinutes = 480
)

type Day struct {
	EmployeeID       string    `json:"employeeId"`
	WorkDate         time.Time `json:"workDate"`
	RegularMinutes   int       `json:"regularMinutes"`
	OvertimeMinutes  int       `json:"overtimeMinutes"`
	NightDiffMinutes int       `json:"nightDiffMinutes"`
	HolidayMinutes   int       `json:"holidayMinutes"`
	RestDayMinutes   int       `json:"restDayMinutes"`
	Source           string    `json:"source"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Punch struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	PunchTime  time.Time `json:"punchTime"`
	CreatedAt  time.Time `json:"createdAt"`
}

type DayFilter struct {
	CompanyID  string
	EmployeeID string
	From       time.Time
	To         time.Time
}

type NormalizeResult struct {
	WorkDate  time.Time `json:"workDate"`
	Biometric int       `json:"biometric"`
	Leave     int       `json:"leave"`
	Unpaid    int       `json:"unpaidLeave"`
}
