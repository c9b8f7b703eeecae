package coach

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/peakform/coachrelay/pkg/strava"
)

// promptActivity is the whitelisted subset of activity fields allowed into
// the prompt. Whitelisting keeps unbounded payloads (segments, splits, raw
// streams) out of the completion request.
type promptActivity struct {
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	SportType          string  `json:"sport_type"`
	Distance           float64 `json:"distance"`
	MovingTime         int     `json:"moving_time"`
	ElapsedTime        int     `json:"elapsed_time"`
	AverageSpeed       float64 `json:"average_speed"`
	AverageHeartrate   float64 `json:"average_heartrate"`
	MaxHeartrate       float64 `json:"max_heartrate"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	SufferScore        float64 `json:"suffer_score"`
	StartDateLocal     string  `json:"start_date_local"`
}

const noGoal = "no goal specified"

func goalOrDefault(goal string) string {
	if strings.TrimSpace(goal) == "" {
		return noGoal
	}
	return goal
}

// formatSummary renders the week summary as a human-readable line.
func formatSummary(s WeekSummary) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d workouts, %d min total, %d m distance, %d m climbing",
		s.Workouts, s.DurationS/60, s.DistM, s.ElevM)
}

// BuildSessionPrompt renders the single-session coaching prompt. The
// two-part answer shape (review, then recommendation tied to the goal) is
// the contract downstream delivery relies on.
func BuildSessionPrompt(activity *strava.Activity, summary WeekSummary, goal string) string {
	safe := promptActivity{
		Name:               activity.Name,
		Type:               activity.Type,
		SportType:          activity.SportType,
		Distance:           activity.Distance,
		MovingTime:         activity.MovingTime,
		ElapsedTime:        activity.ElapsedTime,
		AverageSpeed:       activity.AverageSpeed,
		AverageHeartrate:   activity.AverageHeartrate,
		MaxHeartrate:       activity.MaxHeartrate,
		TotalElevationGain: activity.TotalElevationGain,
		SufferScore:        activity.SufferScore,
		StartDateLocal:     activity.StartDateLocal,
	}
	fields, _ := json.Marshal(safe)

	return strings.TrimSpace(fmt.Sprintf(`You are a personal endurance coach (running, trail, cycling).

ATHLETE GOAL: %s

GIVEN:
- Current session (key fields from the tracker): %s
- Trailing 7-day summary: %s

ANSWER IN EXACTLY TWO PARTS:

A) Short session review (3-6 bullet points):
   - overall load (easy/moderate/hard),
   - heart rate and pace relative to the goal,
   - elevation, technique, fatigue,
   - any signs of overreaching.

B) Concrete recommendation:
   - what to do TOMORROW (type, duration, intensity zone or RPE),
   - how to adjust the remaining days of the week toward the goal,
   - if there is overload risk, say explicitly how to cut volume or intensity.`,
		goalOrDefault(goal), fields, formatSummary(summary)))
}

// BuildWeeklyPlanPrompt renders the manual-trigger prompt: a day-by-day
// schedule for the coming week instead of a single-session review.
func BuildWeeklyPlanPrompt(summary WeekSummary, goal string) string {
	return strings.TrimSpace(fmt.Sprintf(`You are an endurance coach. Based on the athlete's recent training
(summary below) and their goal, lay out a plan for the next week (5-7 days).

GOAL: %s

WEEK SUMMARY: %s

For each day give:
- the DAY of the week,
- the workout type,
- the duration,
- the intensity (zone or RPE),
- if a rest day is needed, say so plainly.`,
		goalOrDefault(goal), formatSummary(summary)))
}
