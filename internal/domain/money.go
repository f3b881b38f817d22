package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const minorUnitsPerMajor = 100

// maxAmount bounds a single parsed amount so arithmetic on balances stays well inside int64.
var maxAmount = decimal.NewFromInt(1_000_000_000_000)

var hundred = decimal.NewFromInt(minorUnitsPerMajor)

// ParseAmount converts a major-unit decimal string such as "50.25" into minor
// units, rounding half away from zero. The result is always > 0.
func ParseAmount(s string) (int64, error) {
	minor, err := parseMinor(s)
	if err != nil {
		return 0, fmt.Errorf("ParseAmount: %w", err)
	}
	if minor <= 0 {
		return 0, fmt.Errorf("ParseAmount: %q: %w", s, ErrInvalidAmount)
	}
	return minor, nil
}

// ParseFee is ParseAmount that also accepts zero.
func ParseFee(s string) (int64, error) {
	minor, err := parseMinor(s)
	if err != nil {
		return 0, fmt.Errorf("ParseFee: %w", err)
	}
	if minor < 0 {
		return 0, fmt.Errorf("ParseFee: %q: %w", s, ErrInvalidAmount)
	}
	return minor, nil
}

func parseMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty: %w", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidAmount)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%q out of range: %w", s, ErrInvalidAmount)
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// FormatAmount renders minor units as "100.00 SAR".
func FormatAmount(minor int64, currency string) string {
	s := decimal.New(minor, -2).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
