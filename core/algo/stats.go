// Package algo has the numeric and classification rules behind every analytic.
package algo

import (
	"math"
	"slices"
	"time"
)

// Round2 rounds x to 2 decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Percent returns part*100/whole rounded to 2 decimals, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return Round2(float64(part) * 100 / float64(whole))
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean[T int | int64 | float64](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

// PercentileCont returns the continuous percentile p (0..1) of values using
// linear interpolation between the two closest ranks at p*(n-1).
func PercentileCont[T int | int64 | float64](values []T, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	for i, v := range values {
		sorted[i] = float64(v)
	}
	slices.Sort(sorted)

	p = math.Min(math.Max(p, 0), 1)
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (rank-float64(lo))*(sorted[hi]-sorted[lo])
}

// DateDiff counts the unit boundaries crossed between a and b, like the catalog's DATEDIFF.
// A run from 10:59:59 to 11:00:01 spans one minute and one hour.
func DateDiff(a, b time.Time, unit time.Duration) int64 {
	if unit <= 0 {
		return 0
	}
	if unit >= 24*time.Hour {
		return int64(Day(b).Sub(Day(a)) / unit)
	}
	if unit == time.Hour {
		return int64(Hour(b).Sub(Hour(a)) / unit)
	}
	return int64(b.Truncate(unit).Sub(a.Truncate(unit)) / unit)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Hour truncates t to the start of its hour in its own location.
func Hour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}
