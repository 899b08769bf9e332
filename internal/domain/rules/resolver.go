package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Resolver picks the effective rule set for a company and date. It never
// caches: rule sets are effective-dated and resolved on every call.
type Resolver struct {
	store StoreAPI
}

func NewResolver(store StoreAPI) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) FindRuleSet(ctx context.Context, companyID string, date time.Time) (RuleSetRow, error) {
	candidates, err := r.store.ListRuleSets(ctx, companyID, DateOnly(date))
	if err != nil {
		return RuleSetRow{}, fmt.Errorf("list rule sets: %w", err)
	}
	row, ok := LatestOverlapping(candidates, RuleSetRow.Window, date, date)
	if !ok {
		return RuleSetRow{}, &RuleNotFoundError{CompanyID: companyID, Date: DateOnly(date)}
	}
	return row, nil
}

func (r *Resolver) Resolve(ctx context.Context, companyID string, date time.Time) (RuleSet, error) {
	row, err := r.FindRuleSet(ctx, companyID, date)
	if err != nil {
		return RuleSet{}, err
	}
	payRules, err := r.store.FindPayRules(ctx, row.ID)
	if err != nil {
		return RuleSet{}, fmt.Errorf("load rules for rule set %s: %w", row.ID, err)
	}
	return Normalize(row, payRules)
}

// Normalize applies defaults and validation to a rule set's key/value rules.
func Normalize(row RuleSetRow, payRules []PayRule) (RuleSet, error) {
	values := make(map[string]string, len(payRules))
	for _, rule := range payRules {
		values[strings.TrimSpace(rule.Key)] = strings.TrimSpace(rule.Value)
	}

	out := RuleSet{
		ID:            row.ID,
		CompanyID:     row.CompanyID,
		EffectiveFrom: row.EffectiveFrom,
		Rounding:      RoundingExact,
	}
	if raw, ok := values[KeyRoundingPolicy]; ok && raw != "" {
		policy := RoundingPolicy(strings.ToLower(raw))
		if !policy.Valid() {
			return RuleSet{}, &InvalidRuleValueError{RuleSetID: row.ID, Key: KeyRoundingPolicy, Value: raw}
		}
		out.Rounding = policy
	}

	var err error
	fields := []struct {
		key      string
		fallback string
		dst      *decimal.Decimal
	}{
		{KeyHourlyRate, defaultHourlyRate, &out.HourlyRate},
		{KeyOvertimeMultiplier, defaultOvertimeMultiplier, &out.OvertimeMultiplier},
		{KeyNightDiffMultiplier, defaultNightDiffMultiplier, &out.NightDiffMultiplier},
		{KeyHolidayMultiplier, defaultHolidayMultiplier, &out.HolidayMultiplier},
		{KeyRestDayMultiplier, defaultRestDayMultiplier, &out.RestDayMultiplier},
	}
	for _, field := range fields {
		if *field.dst, err = decimalRule(row.ID, field.key, values[field.key], field.fallback); err != nil {
			return RuleSet{}, err
		}
	}

	out.OTThresholdMinutes = defaultOTThresholdMinutes
	if raw := values[KeyOTThresholdMinutes]; raw != "" {
		minutes, convErr := strconv.Atoi(raw)
		if convErr != nil || minutes < 0 {
			return RuleSet{}, &InvalidRuleValueError{RuleSetID: row.ID, Key: KeyOTThresholdMinutes, Value: raw}
		}
		out.OTThresholdMinutes = minutes
	}
	return out, nil
}

func decimalRule(ruleSetID, key, raw, fallback string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.RequireFromString(fallback), nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return decimal.Decimal{}, &InvalidRuleValueError{RuleSetID: ruleSetID, Key: key, Value: raw}
	}
	return value, nil
}
