package coach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/peakform/coachrelay/pkg/strava"
)

func TestIsSignificant(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		moving   int
		want     bool
	}{
		{"fully empty", 0, 0, false},
		{"negative distance no time", -5, 0, false},
		{"short tap", 199, 59, false},
		{"one second walk", 10, 1, false},
		{"exactly 60 seconds", 0.5, 60, true},
		{"exactly 200 meters", 200, 30, true},
		{"long stationary session", 0, 3600, true},
		{"normal run", 5000, 1500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &strava.Activity{Distance: tt.distance, MovingTime: tt.moving}
			assert.Equal(t, tt.want, IsSignificant(a))
		})
	}
}

func TestSummarizeWeek_Empty(t *testing.T) {
	got := SummarizeWeek(time.Now(), nil)
	assert.Equal(t, WeekSummary{}, got)
}

func TestSummarizeWeek_Window(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	stamp := func(d time.Duration) string {
		return now.Add(d).Format(time.RFC3339)
	}

	activities := []strava.Activity{
		{StartDate: stamp(-2 * time.Hour), MovingTime: 1800, Distance: 6000, TotalElevationGain: 120},
		{StartDate: stamp(-6 * 24 * time.Hour), MovingTime: 3600, Distance: 12000, TotalElevationGain: 300},
		// Exactly on the boundary: excluded, inclusion is strictly after.
		{StartDate: stamp(-7 * 24 * time.Hour), MovingTime: 999, Distance: 999},
		// Too old.
		{StartDate: stamp(-8 * 24 * time.Hour), MovingTime: 999, Distance: 999},
		// Malformed timestamp: skipped, not fatal.
		{StartDate: "not-a-timestamp", MovingTime: 999, Distance: 999},
	}

	got := SummarizeWeek(now, activities)
	assert.Equal(t, WeekSummary{
		Workouts:  2,
		DurationS: 5400,
		DistM:     18000,
		ElevM:     420,
	}, got)
}

func TestSummarizeWeek_AbsentFieldsCountAsZero(t *testing.T) {
	now := time.Now().UTC()
	activities := []strava.Activity{
		{StartDate: now.Add(-time.Hour).Format(time.RFC3339)},
	}

	got := SummarizeWeek(now, activities)
	assert.Equal(t, WeekSummary{Workouts: 1}, got)
}
