// Package utils provides formatting, ticker and clock helpers for Indian
// equity portfolios.
package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatINR formats a number in Indian Rupee format (₹12,34,567.89).
// Uses the Indian numbering system: last 3 digits, then groups of 2.
func FormatINR(amount float64) string {
	negative := amount < 0
	amount = math.Round(math.Abs(amount)*100) / 100

	intPart := int64(amount)
	paise := int64(math.Round((amount - float64(intPart)) * 100))

	formatted := fmt.Sprintf("%s.%02d", formatIndianNumber(intPart), paise)
	if negative {
		return "-₹" + formatted
	}
	return "₹" + formatted
}

// FormatSignedINR is FormatINR with an explicit "+" for gains.
func FormatSignedINR(amount float64) string {
	if amount > 0 {
		return "+" + FormatINR(amount)
	}
	return FormatINR(amount)
}

// FormatINRCompact formats a number in compact Indian notation.
// e.g., 1927345 → "₹19.27 L", 192734500000 → "₹19273.45 Cr"
func FormatINRCompact(amount float64) string {
	prefix := "₹"
	if amount < 0 {
		prefix = "-₹"
	}
	amount = math.Abs(amount)

	switch {
	case amount >= 1e12:
		return fmt.Sprintf("%s%s L Cr", prefix, trimDecimals(amount/1e12))
	case amount >= 1e7:
		return fmt.Sprintf("%s%s Cr", prefix, trimDecimals(amount/1e7))
	case amount >= 1e5:
		return fmt.Sprintf("%s%s L", prefix, trimDecimals(amount/1e5))
	default:
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
}

// EarningsLabel renders a trailing-twelve-month EPS figure the way the
// dashboard shows it, e.g. 45.671 → "₹45.67 (TTM)".
func EarningsLabel(eps float64) string {
	paise := decimal.NewFromFloat(eps).Shift(2).Round(0).IntPart()
	return money.New(paise, money.INR).Display() + " (TTM)"
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// formatIndianNumber formats an integer with Indian grouping (last 3, then 2s).
func formatIndianNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	result := s[len(s)-3:]
	remaining := s[:len(s)-3]
	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	return remaining + "," + result
}

// trimDecimals formats with up to 2 decimal places, dropping trailing zeros.
func trimDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
