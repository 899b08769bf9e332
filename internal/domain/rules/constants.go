package rules

const (
	KeyRoundingPolicy      = "rounding_policy"
	KeyHourlyRate          = "hourly_rate"
	KeyOvertimeMultiplier  = "ot_multiplier"
	KeyNightDiffMultiplier = "night_diff_multiplier"
	KeyHolidayMultiplier   = "holiday_multiplier"
	KeyRestDayMultiplier   = "rest_day_multiplier"
	KeyOTThresholdMinutes  = "ot_threshold_minutes"
)

const (
	defaultHourlyRate          = "0"
	defaultOvertimeMultiplier  = "1"
	defaultNightDiffMultiplier = "0"
	defaultHolidayMultiplier   = "1"
	defaultRestDayMultiplier   = "1"
	defaultOTThresholdMinutes  = 0
)
