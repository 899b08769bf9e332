package auth

import "context"

const (
	RoleOperator = "operator"
	RoleBilling  = "billing"
	RoleAgency   = "agency"
	RoleFinance  = "finance"
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

var Roles = []string{RoleOperator, RoleBilling, RoleAgency, RoleFinance, RoleAdmin, RoleEmployee}

const (
	PermRulesRead           = "rules.read"
	PermPayrollRead         = "payroll.read"
	PermPayrollRun          = "payroll.run"
	PermPayrollWorkflow     = "payroll.workflow"
	PermPayrollAdjust       = "payroll.adjust"
	PermPayslipsGenerate    = "payslips.generate"
	PermPayslipsRead        = "payslips.read"
	PermLeaveRead           = "leave.read"
	PermLeaveRequest        = "leave.request"
	PermLeaveDecide         = "leave.decide"
	PermAttendanceRead      = "attendance.read"
	PermAttendanceNormalize = "attendance.normalize"
	PermAnalyticsRead       = "analytics.read"
	PermWorkforceRead       = "workforce.read"
	PermAuditRead           = "audit.read"
)

var RolePermissions = map[string][]string{
	RoleOperator: {
		PermRulesRead,
		PermPayrollRead,
		PermPayrollRun,
		PermPayrollWorkflow,
		PermLeaveRead,
		PermAttendanceRead,
		PermAttendanceNormalize,
		PermAnalyticsRead,
		PermWorkforceRead,
	},
	RoleBilling: {
		PermRulesRead,
		PermPayrollRead,
		PermPayrollWorkflow,
		PermLeaveRead,
		PermAnalyticsRead,
	},
	RoleAgency: {
		PermPayrollRead,
		PermPayrollWorkflow,
		PermLeaveRead,
		PermLeaveDecide,
		PermAttendanceRead,
		PermAnalyticsRead,
		PermWorkforceRead,
	},
	RoleFinance: {
		PermRulesRead,
		PermPayrollRead,
		PermPayrollWorkflow,
		PermPayrollAdjust,
		PermPayslipsGenerate,
		PermPayslipsRead,
		PermLeaveRead,
		PermAnalyticsRead,
		PermAuditRead,
	},
	RoleAdmin: {
		PermRulesRead,
		PermPayrollRead,
		PermPayrollAdjust,
		PermPayslipsGenerate,
		PermPayslipsRead,
		PermLeaveRead,
		PermLeaveDecide,
		PermAttendanceRead,
		PermAttendanceNormalize,
		PermAnalyticsRead,
		PermWorkforceRead,
		PermAuditRead,
	},
	RoleEmployee: {
		PermPayslipsRead,
		PermLeaveRead,
		PermLeaveRequest,
		PermAttendanceRead,
	},
}

// workflowCapabilities lists the payroll-run capabilities each role carries.
// Admin carries none: run transitions stay with the named parties.
var workflowCapabilities = map[string][]string{
	RoleOperator: {RoleOperator},
	RoleBilling:  {RoleBilling},
	RoleAgency:   {RoleAgency},
	RoleFinance:  {RoleFinance},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

func HasPermission(role, permission string) bool {
	for _, candidate := range RolePermissions[role] {
		if candidate == permission {
			return true
		}
	}
	return false
}

func WorkflowCapabilities(role string) []string {
	caps := workflowCapabilities[role]
	out := make([]string, len(caps))
	copy(out, caps)
	return out
}

// StaticPermissions resolves permissions from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return HasPermission(role, permission), nil
}
