package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"workpay/internal/domain/rules"
)

type RuleResolver interface {
	Resolve(ctx context.Context, companyID string, date time.Time) (rules.RuleSet, error)
}

// LockHook runs after a payroll run reaches locked.
type LockHook func(ctx context.Context, run Run)

type Service struct {
	store    StoreAPI
	rules    RuleResolver
	onLocked []LockHook
}

func NewService(store StoreAPI, resolver RuleResolver) *Service {
	return &Service{store: store, rules: resolver}
}

func (s *Service) OnLocked(hook LockHook) {
	s.onLocked = append(s.onLocked, hook)
}

func validatePeriod(start, end time.Time) error {
	if start.IsZero() {
		return &ValidationError{Field: "periodStart", Reason: "is required"}
	}
	if end.IsZero() {
		return &ValidationError{Field: "periodEnd", Reason: "is required"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "periodEnd", Reason: "must be on or after periodStart"}
	}
	return nil
}

// priceContext resolves the rule set anchored on the period start and the
// rates overlapping the period.
func (s *Service) priceContext(ctx context.Context, companyID string, start, end time.Time) (rules.RuleSet, RateMap, error) {
	ruleSet, err := s.rules.Resolve(ctx, companyID, start)
	if err != nil {
		return rules.RuleSet{}, nil, err
	}
	rateRows, err := s.store.FindRatesOverlapping(ctx, start, end)
	if err != nil {
		return rules.RuleSet{}, nil, fmt.Errorf("load rates: %w", err)
	}
	return ruleSet, BuildRateMap(rateRows, start, end, ruleSet), nil
}

// Sandbox prices live attendance for a period without persisting anything.
func (s *Service) Sandbox(ctx context.Context, companyID string, start, end time.Time) (SandboxResult, error) {
	if strings.TrimSpace(companyID) == "" {
		return SandboxResult{}, &ValidationError{Field: "companyId", Reason: "is required"}
	}
	if err := validatePeriod(start, end); err != nil {
		return SandboxResult{}, err
	}
	ruleSet, rates, err := s.priceContext(ctx, companyID, start, end)
	if err != nil {
		return SandboxResult{}, err
	}
	days, err := s.store.FindAttendance(ctx, companyID, start, end)
	if err != nil {
		return SandboxResult{}, fmt.Errorf("load attendance: %w", err)
	}
	result, err := Calculate(CalculationInput{Mode: ModeSandbox, Attendance: days, Rates: rates, Rules: ruleSet})
	if err != nil {
		return SandboxResult{}, err
	}
	return SandboxResult{Totals: Total(result.Summaries), Summaries: result.Summaries, Items: result.Items}, nil
}

func (s *Service) CreateRun(ctx context.Context, actor Actor, input CreateRunInput) (Run, error) {
	if !actor.Has(CapOperator) {
		return Run{}, &CapabilityError{Action: "create", Role: actor.Role, Required: []string{CapOperator}}
	}
	if strings.TrimSpace(input.CompanyID) == "" {
		return Run{}, &ValidationError{Field: "companyId", Reason: "is required"}
	}
	if err := validatePeriod(input.PeriodStart, input.PeriodEnd); err != nil {
		return Run{}, err
	}
	runType := strings.TrimSpace(input.Type)
	if runType == "" {
		runType = RunTypeRegular
	}
	return s.store.CreateRun(ctx, Run{
		CompanyID:   input.CompanyID,
		PeriodStart: rules.DateOnly(input.PeriodStart),
		PeriodEnd:   rules.DateOnly(input.PeriodEnd),
		Type:        runType,
		Status:      StatusDraft,
		CreatedBy:   actor.UserID,
	})
}

func (s *Service) GetRun(ctx context.Context, runID string) (Run, error) {
	return s.store.GetRun(ctx, runID)
}

func (s *Service) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	return s.store.ListRuns(ctx, filter)
}

// Snapshot freezes the run's attendance into payable rows. It runs once per
// run and only while the run is draft.
func (s *Service) Snapshot(ctx context.Context, actor Actor, runID string) (SnapshotResult, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return SnapshotResult{}, err
	}
	t, err := NextTransition(run.ID, run.Status, ActionSnapshot)
	if err != nil {
		return SnapshotResult{}, err
	}
	if err := t.Authorize(run.ID, actor); err != nil {
		return SnapshotResult{}, err
	}
	exists, err := s.store.HasSnapshot(ctx, run.ID)
	if err != nil {
		return SnapshotResult{}, err
	}
	if exists {
		return SnapshotResult{}, &SnapshotAlreadyExistsError{RunID: run.ID}
	}

	ruleSet, rates, err := s.priceContext(ctx, run.CompanyID, run.PeriodStart, run.PeriodEnd)
	if err != nil {
		return SnapshotResult{}, err
	}
	rows, err := s.store.Freeze(ctx, run.ID, actor.UserID, func(locked Run, days []AttendanceDay) ([]Payable, error) {
		result, err := Calculate(CalculationInput{Mode: ModeSandbox, Attendance: days, Rates: rates, Rules: ruleSet})
		if err != nil {
			return nil, err
		}
		payables := make([]Payable, 0, len(days))
		for i, day := range days {
			item := result.Items[i]
			payables = append(payables, Payable{
				RunID:            locked.ID,
				EmployeeID:       day.EmployeeID,
				WorkDate:         day.WorkDate,
				RegularMinutes:   day.RegularMinutes,
				OvertimeMinutes:  day.OvertimeMinutes,
				NightDiffMinutes: day.NightDiffMinutes,
				HolidayMinutes:   day.HolidayMinutes,
				RestDayMinutes:   day.RestDayMinutes,
				RegularPay:       item.RegularPay,
				OvertimePay:      item.OvertimePay,
				NightDiffPay:     item.NightDiffPay,
				HolidayPay:       item.HolidayPay,
				RestDayPay:       item.RestDayPay,
				PayrollAmount:    item.GrossPay,
			})
		}
		return payables, nil
	})
	if err != nil {
		return SnapshotResult{}, err
	}
	slog.Info("payroll snapshot created", "run_id", run.ID, "rows", rows)
	return SnapshotResult{RunID: run.ID, Rows: rows}, nil
}

func (s *Service) Submit(ctx context.Context, actor Actor, runID string) (Run, error) {
	return s.advance(ctx, actor, runID, ActionSubmit)
}

func (s *Service) Approve(ctx context.Context, actor Actor, runID string) (Run, error) {
	return s.advance(ctx, actor, runID, ActionApprove)
}

func (s *Service) Lock(ctx context.Context, actor Actor, runID string) (Run, error) {
	return s.advance(ctx, actor, runID, ActionLock)
}

func (s *Service) advance(ctx context.Context, actor Actor, runID, action string) (Run, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	t, err := NextTransition(run.ID, run.Status, action)
	if err != nil {
		return Run{}, err
	}
	if err := t.Authorize(run.ID, actor); err != nil {
		return Run{}, err
	}
	if action == ActionSubmit {
		exists, err := s.store.HasSnapshot(ctx, run.ID)
		if err != nil {
			return Run{}, err
		}
		if !exists {
			return Run{}, &NoSnapshotError{RunID: run.ID}
		}
	}

	updated, err := s.store.TransitionRun(ctx, Approval{
		RunID:      run.ID,
		ActorID:    actor.UserID,
		Role:       actor.Role,
		Action:     action,
		FromStatus: t.From,
		ToStatus:   t.To,
	})
	if err != nil {
		return Run{}, err
	}
	slog.Info("payroll run transitioned", "run_id", run.ID, "action", action, "from", t.From, "to", t.To, "actor", actor.UserID)

	if updated.Status == StatusLocked {
		for _, hook := range s.onLocked {
			hook(ctx, updated)
		}
	}
	return updated, nil
}

// Acknowledge records that actor has seen the run. The status is unchanged.
func (s *Service) Acknowledge(ctx context.Context, actor Actor, runID, remarks string) (Acknowledgment, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return Acknowledgment{}, err
	}
	t, err := NextTransition(run.ID, run.Status, ActionAcknowledge)
	if err != nil {
		return Acknowledgment{}, err
	}
	if err := t.Authorize(run.ID, actor); err != nil {
		return Acknowledgment{}, err
	}
	return s.store.InsertAcknowledgment(ctx, Acknowledgment{
		RunID:     run.ID,
		ActorID:   actor.UserID,
		Role:      actor.Role,
		RunStatus: run.Status,
		Remarks:   strings.TrimSpace(remarks),
	})
}

func (s *Service) History(ctx context.Context, runID string) (History, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return History{}, err
	}
	acks, err := s.store.ListAcknowledgments(ctx, runID)
	if err != nil {
		return History{}, err
	}
	approvals, err := s.store.ListApprovals(ctx, runID)
	if err != nil {
		return History{}, err
	}
	if acks == nil {
		acks = []Acknowledgment{}
	}
	if approvals == nil {
		approvals = []Approval{}
	}
	return History{Acknowledgments: acks, Approvals: approvals}, nil
}

// AddAdjustment appends a signed correction to a locked run.
func (s *Service) AddAdjustment(ctx context.Context, actor Actor, input AdjustmentInput) (Adjustment, error) {
	if strings.TrimSpace(input.EmployeeID) == "" {
		return Adjustment{}, &ValidationError{Field: "employeeId", Reason: "is required"}
	}
	if input.Amount.IsZero() {
		return Adjustment{}, &ValidationError{Field: "amount", Reason: "must be non-zero"}
	}
	if !input.Amount.Equal(input.Amount.Round(2)) {
		return Adjustment{}, &ValidationError{Field: "amount", Reason: "must have at most 2 decimal places"}
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return Adjustment{}, &ValidationError{Field: "reason", Reason: "is required"}
	}
	run, err := s.store.GetRun(ctx, input.RunID)
	if err != nil {
		return Adjustment{}, err
	}
	if run.Status != StatusLocked {
		return Adjustment{}, &AdjustmentNotAllowedError{RunID: run.ID, Status: run.Status}
	}
	employed, err := s.store.HasPayables(ctx, run.ID, input.EmployeeID)
	if err != nil {
		return Adjustment{}, err
	}
	if !employed {
		return Adjustment{}, &ValidationError{Field: "employeeId", Reason: "has no payable rows in this run"}
	}
	return s.store.InsertAdjustment(ctx, Adjustment{
		RunID:      run.ID,
		EmployeeID: input.EmployeeID,
		Amount:     input.Amount.Round(2),
		Reason:     reason,
		CreatedBy:  actor.UserID,
	})
}

func (s *Service) ListAdjustments(ctx context.Context, runID string) ([]Adjustment, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	out, err := s.store.ListAdjustments(ctx, runID)
	if out == nil && err == nil {
		out = []Adjustment{}
	}
	return out, err
}

// Summary totals a locked run from the amounts frozen at snapshot time.
// Adjustments reach net pay. Rate or rule changes after the snapshot do not.
func (s *Service) Summary(ctx context.Context, runID string) (RunSummary, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}
	if run.Status != StatusLocked {
		return RunSummary{}, &PayrollNotLockedError{RunID: run.ID, Status: run.Status}
	}
	payables, err := s.store.ListPayables(ctx, run.ID)
	if err != nil {
		return RunSummary{}, err
	}
	adjustments, err := s.store.SumAdjustments(ctx, run.ID)
	if err != nil {
		return RunSummary{}, err
	}
	summaries := summarizePayables(payables, adjustments)
	return RunSummary{RunID: run.ID, Totals: Total(summaries), Summaries: summaries}, nil
}

// summarizePayables totals frozen payable rows per employee in first-appearance
// order. Payslips read the same rows, so both always agree on gross pay.
func summarizePayables(payables []Payable, adjustments map[string]decimal.Decimal) []EmployeeSummary {
	index := make(map[string]int)
	out := []EmployeeSummary{}
	for _, p := range payables {
		i, ok := index[p.EmployeeID]
		if !ok {
			i = len(out)
			index[p.EmployeeID] = i
			out = append(out, EmployeeSummary{EmployeeID: p.EmployeeID})
		}
		summary := &out[i]
		summary.Breakdown.Regular = summary.Breakdown.Regular.Add(p.RegularPay)
		summary.Breakdown.Overtime = summary.Breakdown.Overtime.Add(p.OvertimePay)
		summary.Breakdown.NightDiff = summary.Breakdown.NightDiff.Add(p.NightDiffPay)
		summary.Breakdown.Holiday = summary.Breakdown.Holiday.Add(p.HolidayPay)
		summary.Breakdown.RestDay = summary.Breakdown.RestDay.Add(p.RestDayPay)
		summary.GrossPay = summary.GrossPay.Add(p.PayrollAmount)
	}
	for i := range out {
		adjustment := adjustments[out[i].EmployeeID]
		out[i].Breakdown.Adjustments = adjustment
		out[i].NetPay = out[i].GrossPay.Add(adjustment).Round(2)
	}
	return out
}

// LockedRunsOverlapping lists locked runs of a company that intersect [start, end].
func (s *Service) LockedRunsOverlapping(ctx context.Context, companyID string, start, end time.Time) ([]Run, error) {
	return s.store.FindLockedRunsOverlapping(ctx, companyID, start, end)
}

func (s *Service) ListPayables(ctx context.Context, runID string) ([]Payable, error) {
	return s.store.ListPayables(ctx, runID)
}
