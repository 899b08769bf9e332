package payroll

const (
	StatusDraft             = "draft"
	StatusOperatorSubmitted = "operator_submitted"
	StatusBillingApproved   = "billing_approved"
	StatusAgencyApproved    = "agency_approved"
	StatusFinanceApproved   = "finance_approved"
	StatusLocked            = "locked"

	ActionSnapshot    = "snapshot"
	ActionSubmit      = "submit"
	ActionAcknowledge = "acknowledge"
	ActionApprove     = "approve"
	ActionLock        = "lock"

	CapOperator = "operator"
	CapBilling  = "billing"
	CapAgency   = "agency"
	CapFinance  = "finance"

	RunTypeRegular = "regular"

	DocumentTypePayslip = "payslip"
)

type Mode string

const (
	ModeSandbox Mode = "sandbox"
	ModeReal    Mode = "real"
)

// Statuses lists run statuses in lifecycle order.
var Statuses = []string{
	StatusDraft,
	StatusOperatorSubmitted,
	StatusBillingApproved,
	StatusAgencyApproved,
	StatusFinanceApproved,
	StatusLocked,
}

var Actions = []string{ActionSnapshot, ActionSubmit, ActionAcknowledge, ActionApprove, ActionLock}
