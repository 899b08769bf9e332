package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"workpay/internal/domain/rules"
)

// RateMap holds the resolved rate of every employee priced in a period.
type RateMap map[string]EmployeeRate

// Lookup returns the employee's rate or a MissingRateError.
func (m RateMap) Lookup(employeeID string) (EmployeeRate, error) {
	rate, ok := m[employeeID]
	if !ok {
		return EmployeeRate{}, &MissingRateError{EmployeeID: employeeID}
	}
	return rate, nil
}

// BuildRateMap keeps, per employee, the rate row overlapping [start, end] with
// the latest effective_from. Multipliers missing on the row come from ruleSet.
func BuildRateMap(rows []RateRow, start, end time.Time, ruleSet rules.RuleSet) RateMap {
	byEmployee := make(map[string][]RateRow)
	for _, row := range rows {
		byEmployee[row.EmployeeID] = append(byEmployee[row.EmployeeID], row)
	}

	out := make(RateMap, len(byEmployee))
	for employeeID, candidates := range byEmployee {
		row, ok := rules.LatestOverlapping(candidates, RateRow.Window, start, end)
		if !ok {
			continue
		}
		out[employeeID] = EmployeeRate{
			EmployeeID:          employeeID,
			HourlyRate:          row.HourlyRate,
			OvertimeMultiplier:  orDefault(row.OvertimeMultiplier, ruleSet.OvertimeMultiplier),
			NightDiffMultiplier: orDefault(row.NightDiffMultiplier, ruleSet.NightDiffMultiplier),
			HolidayMultiplier:   orDefault(row.HolidayMultiplier, ruleSet.HolidayMultiplier),
			RestDayMultiplier:   orDefault(row.RestDayMultiplier, ruleSet.RestDayMultiplier),
		}
	}
	return out
}

func orDefault(value decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if value.Valid {
		return value.Decimal
	}
	return fallback
}
