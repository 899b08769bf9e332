package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"workpay/internal/domain/leave"
	"workpay/internal/domain/rules"
)

type LeaveSource interface {
	ApprovedOn(ctx context.Context, date time.Time) ([]leave.Request, error)
}

type Service struct {
	store  StoreAPI
	leaves LeaveSource
}

func NewService(store StoreAPI, leaves LeaveSource) *Service {
	return &Service{store: store, leaves: leaves}
}

func (s *Service) RecordPunch(ctx context.Context, employeeID string, at time.Time) (Punch, error) {
	if employeeID == "" {
		return Punch{}, fmt.Errorf("employee id is required")
	}
	return s.store.RecordPunch(ctx, employeeID, at.UTC())
}

func (s *Service) ListPunches(ctx context.Context, employeeID string, from, to time.Time) ([]Punch, error) {
	out, err := s.store.ListPunches(ctx, employeeID, rules.DateOnly(from), rules.DateOnly(to).AddDate(0, 0, 1))
	if out == nil && err == nil {
		out = []Punch{}
	}
	return out, err
}

func (s *Service) ListDays(ctx context.Context, filter DayFilter) ([]Day, error) {
	out, err := s.store.ListDays(ctx, filter)
	if out == nil && err == nil {
		out = []Day{}
	}
	return out, err
}

// Normalize builds one attendance day per employee for workDate. Approved
// leave wins over punches.
func (s *Service) Normalize(ctx context.Context, workDate time.Time) (NormalizeResult, error) {
	workDate = rules.DateOnly(workDate)
	result := NormalizeResult{WorkDate: workDate}

	leaves, err := s.leaves.ApprovedOn(ctx, workDate)
	if err != nil {
		return result, fmt.Errorf("load approved leave: %w", err)
	}
	punched, err := s.store.EmployeesWithPunches(ctx, workDate)
	if err != nil {
		return result, fmt.Errorf("load punches: %w", err)
	}

	byEmployee := make(map[string]Day)
	for _, req := range leaves {
		if _, seen := byEmployee[req.EmployeeID]; seen {
			continue
		}
		d := Day{EmployeeID: req.EmployeeID, WorkDate: workDate, Source: SourceUnpaidLeave}
		if req.IsPaid {
			d.RegularMinutes = StandardShiftMinutes
			d.Source = SourceLeave
			result.Leave++
		} else {
			result.Unpaid++
		}
		byEmployee[req.EmployeeID] = d
	}
	for _, employeeID := range punched {
		if _, onLeave := byEmployee[employeeID]; onLeave {
			continue
		}
		byEmployee[employeeID] = Day{EmployeeID: employeeID, WorkDate: workDate, RegularMinutes: StandardShiftMinutes, Source: SourceBiometric}
		result.Biometric++
	}

	days := make([]Day, 0, len(byEmployee))
	for _, d := range byEmployee {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].EmployeeID < days[j].EmployeeID })
	if err := s.store.UpsertDays(ctx, days); err != nil {
		return result, fmt.Errorf("upsert attendance days: %w", err)
	}
	slog.Info("attendance normalized", "work_date", workDate.Format(time.DateOnly), "biometric", result.Biometric, "leave", result.Leave, "unpaid_leave", result.Unpaid)
	return result, nil
}
