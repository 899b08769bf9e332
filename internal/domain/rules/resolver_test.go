package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workpay/internal/domain/apperr"
)

type fakeStore struct {
	sets  []RuleSetRow
	rules map[string][]PayRule
	calls int
}

func (f *fakeStore) ListRuleSets(_ context.Context, companyID string, onOrBefore time.Time) ([]RuleSetRow, error) {
	f.calls++
	var out []RuleSetRow
	for _, set := range f.sets {
		if set.CompanyID == companyID && !set.EffectiveFrom.After(onOrBefore) {
			out = append(out, set)
		}
	}
	return out, nil
}

func (f *fakeStore) FindPayRules(_ context.Context, ruleSetID string) ([]PayRule, error) {
	return f.rules[ruleSetID], nil
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func newFakeStore() *fakeStore {
	return &fakeStore{
		sets: []RuleSetRow{
			{ID: "rs-2025", CompanyID: "c1", EffectiveFrom: day("2025-01-01"), EffectiveTo: ptr(day("2025-12-31"))},
			{ID: "rs-2026", CompanyID: "c1", EffectiveFrom: day("2026-01-01")},
			{ID: "rs-2026-mid", CompanyID: "c1", EffectiveFrom: day("2026-06-01")},
			{ID: "other", CompanyID: "c2", EffectiveFrom: day("2020-01-01")},
		},
		rules: map[string][]PayRule{
			"rs-2025": {{Key: KeyRoundingPolicy, Value: "floor"}},
			"rs-2026": {{Key: KeyRoundingPolicy, Value: "ceil"}, {Key: KeyOvertimeMultiplier, Value: "1.25"}},
		},
	}
}

func TestResolvePicksLatestEffectiveRuleSet(t *testing.T) {
	resolver := NewResolver(newFakeStore())

	got, err := resolver.Resolve(context.Background(), "c1", day("2025-07-15"))
	require.NoError(t, err)
	assert.Equal(t, "rs-2025", got.ID)
	assert.Equal(t, RoundingFloor, got.Rounding)

	got, err = resolver.Resolve(context.Background(), "c1", day("2026-03-01"))
	require.NoError(t, err)
	assert.Equal(t, "rs-2026", got.ID)
	assert.Equal(t, RoundingCeil, got.Rounding)
	assert.True(t, got.OvertimeMultiplier.Equal(decimal.RequireFromString("1.25")))

	got, err = resolver.Resolve(context.Background(), "c1", day("2026-06-01"))
	require.NoError(t, err)
	assert.Equal(t, "rs-2026-mid", got.ID)
}

func TestResolveAppliesDefaults(t *testing.T) {
	resolver := NewResolver(newFakeStore())

	got, err := resolver.Resolve(context.Background(), "c1", day("2026-07-01"))
	require.NoError(t, err)
	assert.Equal(t, RoundingExact, got.Rounding)
	assert.True(t, got.HourlyRate.IsZero())
	assert.True(t, got.OvertimeMultiplier.Equal(decimal.NewFromInt(1)))
	assert.True(t, got.NightDiffMultiplier.IsZero())
	assert.True(t, got.HolidayMultiplier.Equal(decimal.NewFromInt(1)))
	assert.True(t, got.RestDayMultiplier.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 0, got.OTThresholdMinutes)
}

func TestResolveNotFound(t *testing.T) {
	resolver := NewResolver(newFakeStore())

	_, err := resolver.Resolve(context.Background(), "c1", day("2024-12-31"))
	var notFound *RuleNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "c1", notFound.CompanyID)
	assert.True(t, errors.Is(err, apperr.Resolution))
	assert.Contains(t, err.Error(), "2024-12-31")
}

func TestResolveSkipsExpiredRuleSet(t *testing.T) {
	store := &fakeStore{
		sets: []RuleSetRow{{ID: "old", CompanyID: "c1", EffectiveFrom: day("2024-01-01"), EffectiveTo: ptr(day("2024-06-30"))}},
	}
	_, err := NewResolver(store).Resolve(context.Background(), "c1", day("2024-07-01"))
	assert.ErrorIs(t, err, apperr.Resolution)
}

func TestResolveIsIdempotent(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)

	first, err := resolver.Resolve(context.Background(), "c1", day("2026-02-01"))
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), "c1", day("2026-02-01"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.calls, "resolution must not be cached")
}

func TestNormalizeRejectsInvalidRoundingPolicy(t *testing.T) {
	_, err := Normalize(RuleSetRow{ID: "rs"}, []PayRule{{Key: KeyRoundingPolicy, Value: "banker"}})
	var invalid *InvalidRuleValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, KeyRoundingPolicy, invalid.Key)
	assert.ErrorIs(t, err, apperr.Validation)
}

func TestNormalizeRejectsMalformedNumbers(t *testing.T) {
	_, err := Normalize(RuleSetRow{ID: "rs"}, []PayRule{{Key: KeyHolidayMultiplier, Value: "double"}})
	assert.ErrorIs(t, err, apperr.Validation)

	_, err = Normalize(RuleSetRow{ID: "rs"}, []PayRule{{Key: KeyOTThresholdMinutes, Value: "-5"}})
	assert.ErrorIs(t, err, apperr.Validation)
}

func TestRoundingPolicies(t *testing.T) {
	value := decimal.RequireFromString("10.005")
	assert.Equal(t, "10", RoundingFloor.Apply(value).StringFixed(0))
	assert.Equal(t, "10.00", RoundingFloor.Apply(value).StringFixed(2))
	assert.Equal(t, "10.01", RoundingCeil.Apply(value).StringFixed(2))
	assert.Equal(t, "10.01", RoundingExact.Apply(value).StringFixed(2))
	assert.Equal(t, "10.00", RoundingExact.Apply(decimal.RequireFromString("10.004")).StringFixed(2))
}

func TestWindowOverlaps(t *testing.T) {
	closed := Window{From: day("2026-01-10"), To: ptr(day("2026-01-20"))}
	assert.True(t, closed.Overlaps(day("2026-01-01"), day("2026-01-10")))
	assert.True(t, closed.Overlaps(day("2026-01-20"), day("2026-01-31")))
	assert.False(t, closed.Overlaps(day("2026-01-21"), day("2026-01-31")))
	assert.False(t, closed.Overlaps(day("2026-01-01"), day("2026-01-09")))

	open := Window{From: day("2026-01-10")}
	assert.True(t, open.Covers(day("2030-01-01")))
}
