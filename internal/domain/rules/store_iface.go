package rules

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListRuleSets(ctx context.Context, companyID string, onOrBefore time.Time) ([]RuleSetRow, error)
	FindPayRules(ctx context.Context, ruleSetID string) ([]PayRule, error)
}
