package algo

import "github.com/huangsam/runlens/schema"

// MTBF tier floors, in hours.
const (
	MTBFExcellentHours = 168
	MTBFGoodHours      = 72
	MTBFFairHours      = 24

	// MTBFCeilingHours is reported for packages without a failure gap.
	MTBFCeilingHours = 720
)

// MTBFTier classifies a mean time between failures.
func MTBFTier(hours float64) string {
	switch {
	case hours >= MTBFExcellentHours:
		return schema.ExcellentTier
	case hours >= MTBFGoodHours:
		return schema.GoodTier
	case hours >= MTBFFairHours:
		return schema.FairTier
	default:
		return schema.PoorTier
	}
}

// SLATier classifies a compliance percentage.
func SLATier(pct float64) string {
	switch {
	case pct >= 95:
		return schema.ExcellentTier
	case pct >= 85:
		return schema.GoodTier
	case pct >= 70:
		return schema.FairTier
	default:
		return schema.PoorTier
	}
}

// SeverityTier classifies an error cluster by frequency.
func SeverityTier(frequency int) string {
	return countTier(frequency, 50, 20, 10)
}

// UtilizationTier classifies an hour slot by concurrent executions.
func UtilizationTier(concurrent int) string {
	return countTier(concurrent, 20, 10, 5)
}

func countTier(n, critical, high, medium int) string {
	switch {
	case n > critical:
		return schema.CriticalTier
	case n > high:
		return schema.HighTier
	case n > medium:
		return schema.MediumTier
	default:
		return schema.LowTier
	}
}

// ReliabilityTrend compares the recent success rate with the overall one.
func ReliabilityTrend(recent, overall float64) string {
	switch {
	case recent > overall:
		return schema.ImprovingTrend
	case recent < overall:
		return schema.DecliningTrend
	default:
		return schema.StableTrend
	}
}

// PerformanceTrend compares a day's average duration with the previous day's.
// Moving more than 10% either way changes the label; prev nil means no history.
func PerformanceTrend(avg float64, prev *float64) string {
	switch {
	case prev == nil:
		return schema.StableTrend
	case avg > *prev*1.1:
		return schema.DegradingTrend
	case avg < *prev*0.9:
		return schema.ImprovingTrend
	default:
		return schema.StableTrend
	}
}
