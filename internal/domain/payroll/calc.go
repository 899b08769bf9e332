package payroll

import (
	"github.com/shopspring/decimal"

	"workpay/internal/domain/rules"
)

var minutesPerHour = decimal.NewFromInt(60)

// Calculate prices every attendance day and accumulates per-employee
// summaries in first-appearance order. Adjustments only apply in real mode.
// A single unpriced employee fails the whole calculation.
func Calculate(in CalculationInput) (CalculationResult, error) {
	policy := in.Rules.Rounding
	result := CalculationResult{
		Items:     make([]LineItem, 0, len(in.Attendance)),
		Summaries: []EmployeeSummary{},
	}
	index := make(map[string]int)

	for _, day := range in.Attendance {
		rate, err := in.Rates.Lookup(day.EmployeeID)
		if err != nil {
			return CalculationResult{}, err
		}
		item := priceDay(day, rate, policy)
		result.Items = append(result.Items, item)

		i, ok := index[day.EmployeeID]
		if !ok {
			i = len(result.Summaries)
			index[day.EmployeeID] = i
			result.Summaries = append(result.Summaries, EmployeeSummary{EmployeeID: day.EmployeeID})
		}
		summary := &result.Summaries[i]
		summary.Breakdown.Regular = summary.Breakdown.Regular.Add(item.RegularPay)
		summary.Breakdown.Overtime = summary.Breakdown.Overtime.Add(item.OvertimePay)
		summary.Breakdown.NightDiff = summary.Breakdown.NightDiff.Add(item.NightDiffPay)
		summary.Breakdown.Holiday = summary.Breakdown.Holiday.Add(item.HolidayPay)
		summary.Breakdown.RestDay = summary.Breakdown.RestDay.Add(item.RestDayPay)
		summary.GrossPay = summary.GrossPay.Add(item.GrossPay)
	}

	for i := range result.Summaries {
		summary := &result.Summaries[i]
		adjustment := decimal.Zero
		if in.Mode == ModeReal {
			adjustment = in.Adjustments[summary.EmployeeID]
		}
		summary.Breakdown.Adjustments = adjustment
		summary.NetPay = policy.Apply(summary.GrossPay.Add(adjustment))
	}
	return result, nil
}

func priceDay(day AttendanceDay, rate EmployeeRate, policy rules.RoundingPolicy) LineItem {
	item := LineItem{
		EmployeeID:   day.EmployeeID,
		WorkDate:     day.WorkDate,
		RegularPay:   bucketPay(day.RegularMinutes, rate.HourlyRate, decimal.NewFromInt(1), policy),
		OvertimePay:  bucketPay(day.OvertimeMinutes, rate.HourlyRate, rate.OvertimeMultiplier, policy),
		NightDiffPay: bucketPay(day.NightDiffMinutes, rate.HourlyRate, rate.NightDiffMultiplier, policy),
		HolidayPay:   bucketPay(day.HolidayMinutes, rate.HourlyRate, rate.HolidayMultiplier, policy),
		RestDayPay:   bucketPay(day.RestDayMinutes, rate.HourlyRate, rate.RestDayMultiplier, policy),
	}
	item.GrossPay = policy.Apply(item.RegularPay.
		Add(item.OvertimePay).
		Add(item.NightDiffPay).
		Add(item.HolidayPay).
		Add(item.RestDayPay))
	return item
}

// bucketPay multiplies before dividing by 60 so whole-cent results stay exact.
func bucketPay(minutes int, hourlyRate, multiplier decimal.Decimal, policy rules.RoundingPolicy) decimal.Decimal {
	if minutes == 0 {
		return decimal.Zero
	}
	return policy.Apply(decimal.NewFromInt(int64(minutes)).Mul(hourlyRate).Mul(multiplier).Div(minutesPerHour))
}

// Total sums the summaries of a calculation.
func Total(summaries []EmployeeSummary) Totals {
	totals := Totals{Employees: len(summaries), Gross: decimal.Zero, Net: decimal.Zero}
	for _, summary := range summaries {
		totals.Gross = totals.Gross.Add(summary.GrossPay)
		totals.Net = totals.Net.Add(summary.NetPay)
	}
	return totals
}
