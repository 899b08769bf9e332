package leave

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Request struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	CompanyID  string     `json:"companyId"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	Days       float64    `json:"days"`
	LeaveType  string     `json:"leaveType"`
	IsPaid     bool       `json:"isPaid"`
	Reason     string     `json:"reason,omitempty"`
	Status     string     `json:"status"`
	Remarks    string     `json:"remarks,omitempty"`
	DecidedBy  string     `json:"decidedBy,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type CreateInput struct {
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	LeaveType  string
	IsPaid     bool
	Reason     string
}

type Filter struct {
	EmployeeID string
	AgencyID   string
	Status     string
}

// Decision is one approve or reject of a request.
type Decision struct {
	RequestID string
	Status    string
	ActorID   string
	Role      string
	Remarks   string
}

type Actor struct {
	UserID     string
	Role       string
	AgencyID   string
	EmployeeID string
}
