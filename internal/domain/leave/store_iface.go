package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateRequest(ctx context.Context, req Request) (Request, error)
	GetRequest(ctx context.Context, requestID string) (Request, error)
	ListRequests(ctx context.Context, filter Filter) ([]Request, error)
	Decide(ctx context.Context, decision Decision) (Request, error)
	ApprovedOn(ctx context.Context, date time.Time) ([]Request, error)
}
