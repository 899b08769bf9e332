package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"workpay/internal/domain/payroll"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func dimensions(run payroll.Run) map[string]any {
	return map[string]any{
		"period_start": run.PeriodStart.Format(time.DateOnly),
		"period_end":   run.PeriodEnd.Format(time.DateOnly),
		"run_type":     run.Type,
	}
}

// OvertimeSummary reports overtime hours and, as total_ot_cost, the run's
// whole payroll amount.
func OvertimeSummary(run payroll.Run, totals PayableTotals) Snapshot {
	hours := decimal.NewFromInt(int64(totals.OvertimeMinutes)).Div(decimal.NewFromInt(60)).Round(2)
	return Snapshot{
		CompanyID:  run.CompanyID,
		RunID:      run.ID,
		Type:       TypeOvertime,
		Dimensions: dimensions(run),
		Metrics: map[string]any{
			"total_ot_hours": hours.InexactFloat64(),
			"total_ot_cost":  totals.PayrollAmount.Round(2).InexactFloat64(),
		},
	}
}

// AbsenceSummary divides paid leave days by the employees present in the
// run's payables. Unpaid leave never reaches the numerator or denominator.
func AbsenceSummary(run payroll.Run, totals PayableTotals, paidLeaveDays int) Snapshot {
	rate := decimal.Zero
	if totals.Employees > 0 {
		rate = decimal.NewFromInt(int64(paidLeaveDays)).Div(decimal.NewFromInt(int64(totals.Employees))).Round(4)
	}
	return Snapshot{
		CompanyID:  run.CompanyID,
		RunID:      run.ID,
		Type:       TypeAbsence,
		Dimensions: dimensions(run),
		Metrics: map[string]any{
			"paid_leave_days":   paidLeaveDays,
			"unpaid_leave_days": 0,
			"absence_rate":      rate.InexactFloat64(),
		},
	}
}

// Compute refreshes both snapshots of a locked run.
func (s *Service) Compute(ctx context.Context, run payroll.Run) ([]Snapshot, error) {
	if run.Status != payroll.StatusLocked {
		return nil, &payroll.PayrollNotLockedError{RunID: run.ID, Status: run.Status}
	}
	totals, err := s.store.PayableTotals(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("payable totals: %w", err)
	}
	leaveDays, err := s.store.CountLeaveDays(ctx, run.CompanyID, run.PeriodStart, run.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("count leave days: %w", err)
	}

	var out []Snapshot
	for _, snap := range []Snapshot{OvertimeSummary(run, totals), AbsenceSummary(run, totals, leaveDays)} {
		saved, err := s.store.Upsert(ctx, snap)
		if err != nil {
			return nil, fmt.Errorf("upsert %s: %w", snap.Type, err)
		}
		out = append(out, saved)
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Snapshot, error) {
	out, err := s.store.List(ctx, filter)
	if out == nil && err == nil {
		out = []Snapshot{}
	}
	return out, err
}
