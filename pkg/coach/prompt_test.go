package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peakform/coachrelay/pkg/strava"
)

func TestBuildSessionPrompt(t *testing.T) {
	activity := &strava.Activity{
		Name:             "Morning Trail Run",
		Type:             "Run",
		SportType:        "TrailRun",
		Distance:         12500,
		MovingTime:       4200,
		AverageHeartrate: 152,
		StartDateLocal:   "2026-08-20T07:15:00Z",
	}
	summary := WeekSummary{Workouts: 4, DurationS: 14400, DistM: 42195, ElevM: 860}

	prompt := BuildSessionPrompt(activity, summary, "sub-4h marathon in October")

	assert.Contains(t, prompt, "sub-4h marathon in October")
	assert.Contains(t, prompt, "Morning Trail Run")
	assert.Contains(t, prompt, "TrailRun")
	// Two-part answer shape is the contract downstream relies on.
	assert.Contains(t, prompt, "A) Short session review")
	assert.Contains(t, prompt, "B) Concrete recommendation")
	// Week summary rendered with grouped digits.
	assert.Contains(t, prompt, "4 workouts")
	assert.Contains(t, prompt, "42,195 m distance")
}

func TestBuildSessionPrompt_NoGoal(t *testing.T) {
	prompt := BuildSessionPrompt(&strava.Activity{Name: "Spin"}, WeekSummary{}, "  ")
	assert.Contains(t, prompt, "no goal specified")
}

func TestBuildWeeklyPlanPrompt(t *testing.T) {
	summary := WeekSummary{Workouts: 3, DurationS: 7200, DistM: 30000, ElevM: 200}

	prompt := BuildWeeklyPlanPrompt(summary, "finish a 50k trail race")

	assert.Contains(t, prompt, "finish a 50k trail race")
	assert.Contains(t, prompt, "plan for the next week")
	assert.Contains(t, prompt, "DAY of the week")
	assert.Contains(t, prompt, "3 workouts")
}
