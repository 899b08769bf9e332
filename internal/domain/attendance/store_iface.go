package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	RecordPunch(ctx context.Context, employeeID string, at time.Time) (Punch, error)
	ListPunches(ctx context.Context, employeeID string, from, to time.Time) ([]Punch, error)
	EmployeesWithPunches(ctx context.Context, workDate time.Time) ([]string, error)
	UpsertDays(ctx context.Context, days []Day) error
	ListDays(ctx context.Context, filter DayFilter) ([]Day, error)
}
