package rules

import "github.com/shopspring/decimal"

type RoundingPolicy string

const (
	RoundingExact RoundingPolicy = "exact"
	RoundingFloor RoundingPolicy = "floor"
	RoundingCeil  RoundingPolicy = "ceil"
)

const centPlaces = 2

func (p RoundingPolicy) Valid() bool {
	switch p {
	case RoundingExact, RoundingFloor, RoundingCeil:
		return true
	}
	return false
}

// Apply rounds value to whole cents. Exact rounds half away from zero.
func (p RoundingPolicy) Apply(value decimal.Decimal) decimal.Decimal {
	switch p {
	case RoundingFloor:
		return value.RoundFloor(centPlaces)
	case RoundingCeil:
		return value.RoundCeil(centPlaces)
	default:
		return value.Round(centPlaces)
	}
}
