package calculator

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountRequired = errors.New("amount is required")
	ErrInvalidAmount  = errors.New("amount must be a positive number")
)

// FormatMoney renders v with two decimals, rounding half away from zero.
func FormatMoney(v float64) string {
	return formatFixed(v, 2)
}

// FormatPercent renders v with one decimal.
func FormatPercent(v float64) string {
	return formatFixed(v, 1)
}

// ParseAmount parses a positive amount typed into a form.
// Decimal commas are accepted ("12,50").
func ParseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return 0, ErrAmountRequired
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

func formatFixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
