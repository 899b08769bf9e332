package analytics

import (
	"context"
	"time"
)

type StoreAPI interface {
	PayableTotals(ctx context.Context, runID string) (PayableTotals, error)
	CountLeaveDays(ctx context.Context, companyID string, start, end time.Time) (int, error)
	Upsert(ctx context.Context, snap Snapshot) (Snapshot, error)
	List(ctx context.Context, filter Filter) ([]Snapshot, error)
}
