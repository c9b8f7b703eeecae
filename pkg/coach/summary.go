// Package coach holds the pure data transformations of the pipeline:
// rolling-week aggregation, the degenerate-activity filter and the prompt
// templates sent to the completion service.
package coach

import (
	"time"

	"github.com/peakform/coachrelay/pkg/strava"
)

// WeekSummary is the trailing 7-day aggregate derived from the athlete's
// recent activity list. It is ephemeral, recomputed per pipeline run.
type WeekSummary struct {
	Workouts  int `json:"workouts"`
	DurationS int `json:"duration_s"`
	DistM     int `json:"dist_m"`
	ElevM     int `json:"elev_m"`
}

// SummarizeWeek aggregates the activities starting strictly after now minus
// 7 days. Malformed start timestamps are skipped; absent numeric fields
// count as zero, not as exclusion.
func SummarizeWeek(now time.Time, activities []strava.Activity) WeekSummary {
	cutoff := now.Add(-7 * 24 * time.Hour)

	var summary WeekSummary
	for _, a := range activities {
		start, err := time.Parse(time.RFC3339, a.StartDate)
		if err != nil {
			continue
		}
		if !start.After(cutoff) {
			continue
		}

		summary.Workouts++
		summary.DurationS += a.MovingTime
		summary.DistM += int(a.Distance)
		summary.ElevM += int(a.TotalElevationGain)
	}
	return summary
}

// IsSignificant rejects degenerate activities: fully empty recordings and
// sub-minute, sub-200m taps. Exactly 60s or 200m passes; thresholds are
// strict less-than.
//
// Extension point: type-based exclusion (VirtualRide, EBikeRide and
// similar) would slot in here once the upstream activity types warrant it.
func IsSignificant(a *strava.Activity) bool {
	if a.Distance <= 0 && a.MovingTime <= 0 {
		return false
	}
	if a.MovingTime < 60 && a.Distance < 200 {
		return false
	}
	return true
}
