// Package format renders aggregation results for display. Formatting is
// presentation-only: values are rendered, never rounded back into any
// computation.
package format

import (
	"fmt"
	"math"
	"strconv"
)

// Placeholder is shown wherever a statistic is undefined.
const Placeholder = "—"

// Number renders a value as an integer when it is whole and with two decimals
// otherwise ("1998" vs "8.43"). NaN and infinities render as the placeholder.
func Number(x float64) string {
	if !finite(x) {
		return Placeholder
	}
	if x == math.Trunc(x) {
		return strconv.FormatInt(int64(x), 10)
	}
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// Fixed2 renders a value with exactly two decimals.
func Fixed2(x float64) string {
	if !finite(x) {
		return Placeholder
	}
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// Percent renders a signed percentage with two decimals ("+1.25%").
func Percent(x float64) string {
	if !finite(x) {
		return Placeholder
	}
	return fmt.Sprintf("%+.2f%%", x)
}

// Rank renders a rank, whole when untied ("3") and fractional when a tie
// splits positions ("2.5").
func Rank(r float64) string {
	if !finite(r) {
		return Placeholder
	}
	if r == math.Trunc(r) {
		return strconv.FormatInt(int64(r), 10)
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// ValueWithYear renders a value annotated with the year it occurred in
// ("8.43 (2021)").
func ValueWithYear(x float64, year int) string {
	if !finite(x) {
		return Placeholder
	}
	return Number(x) + " (" + strconv.Itoa(year) + ")"
}

// MaybeFixed2 renders an optional value, nil meaning undefined.
func MaybeFixed2(x *float64) string {
	if x == nil {
		return Placeholder
	}
	return Fixed2(*x)
}

// MaybePercent renders an optional percentage, nil meaning undefined.
func MaybePercent(x *float64) string {
	if x == nil {
		return Placeholder
	}
	return Percent(*x)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
