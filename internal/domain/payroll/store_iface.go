package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FreezeFunc prices the attendance read inside the snapshot transaction.
type FreezeFunc func(run Run, days []AttendanceDay) ([]Payable, error)

type StoreAPI interface {
	FindAttendance(ctx context.Context, companyID string, start, end time.Time) ([]AttendanceDay, error)
	FindRatesOverlapping(ctx context.Context, start, end time.Time) ([]RateRow, error)

	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	FindLockedRunsOverlapping(ctx context.Context, companyID string, start, end time.Time) ([]Run, error)

	HasSnapshot(ctx context.Context, runID string) (bool, error)
	Freeze(ctx context.Context, runID, actorID string, price FreezeFunc) (int, error)
	ListPayables(ctx context.Context, runID string) ([]Payable, error)
	HasPayables(ctx context.Context, runID, employeeID string) (bool, error)

	TransitionRun(ctx context.Context, approval Approval) (Run, error)
	InsertAcknowledgment(ctx context.Context, ack Acknowledgment) (Acknowledgment, error)
	ListAcknowledgments(ctx context.Context, runID string) ([]Acknowledgment, error)
	ListApprovals(ctx context.Context, runID string) ([]Approval, error)

	InsertAdjustment(ctx context.Context, adj Adjustment) (Adjustment, error)
	ListAdjustments(ctx context.Context, runID string) ([]Adjustment, error)
	SumAdjustments(ctx context.Context, runID string) (map[string]decimal.Decimal, error)

	UpsertDocument(ctx context.Context, doc Document) (Document, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error)
	GetDocument(ctx context.Context, documentID string) (Document, error)
}
