// Package pipeline turns one (athlete, activity) webhook job into a
// delivered coaching message. Every failure is contained here: the webhook
// acknowledgment never depends on a run's outcome and nothing is retried.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/peakform/coachrelay/pkg"
	"github.com/peakform/coachrelay/pkg/advisor"
	"github.com/peakform/coachrelay/pkg/coach"
	"github.com/peakform/coachrelay/pkg/credentials"
	"github.com/peakform/coachrelay/pkg/infrastructure/sentry"
	"github.com/peakform/coachrelay/pkg/observability"
	"github.com/peakform/coachrelay/pkg/strava"
)

// Stage identifies how far a run progressed before terminating.
type Stage string

const (
	StageToken    Stage = "token"
	StageActivity Stage = "activity"
	StageFilter   Stage = "filter"
	StageHistory  Stage = "history"
	StagePrompt   Stage = "prompt"
	StageAdvice   Stage = "advice"
	StageNotify   Stage = "notify"
	StageDone     Stage = "done"
)

// Outcome is the checked result of a run. Err is non-nil only for hard
// terminations; a filter rejection is a normal early exit.
type Outcome struct {
	Stage    Stage
	Rejected bool
	Err      error
}

// Result names the outcome for logs and metrics.
func (o Outcome) Result() string {
	switch {
	case o.Rejected:
		return "rejected"
	case o.Err == nil:
		return "completed"
	case errors.Is(o.Err, shared.ErrCredentialNotFound):
		return "no_credential"
	default:
		var refreshErr *credentials.RefreshError
		if errors.As(o.Err, &refreshErr) {
			return "refresh_failed"
		}
		return "fetch_failed"
	}
}

// TokenSource resolves a valid access token for an athlete.
type TokenSource interface {
	AccessToken(ctx context.Context, athleteID int64) (string, error)
}

// ActivityAPI is the read surface of the fitness platform the pipeline uses.
type ActivityAPI interface {
	Activity(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error)
	RecentActivities(ctx context.Context, accessToken string, perPage int) ([]strava.Activity, error)
}

// Pipeline wires the steps together. Blobs/Bucket are optional; when set,
// each completed run archives its transcript.
type Pipeline struct {
	Tokens   TokenSource
	API      ActivityAPI
	Advisor  shared.Advisor
	Notifier shared.Notifier
	Blobs    shared.BlobStore
	Bucket   string

	Goal     string
	PageSize int
	Logger   *slog.Logger

	// Now is injectable so tests can pin the rolling-week window. The week
	// window is anchored to processing time, matching upstream behavior.
	Now func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) pageSize() int {
	if p.PageSize > 0 {
		return p.PageSize
	}
	return shared.DefaultActivityPageSize
}

// Run executes the full pipeline for one job. It never returns an error to
// the caller; the Outcome reports what happened.
func (p *Pipeline) Run(ctx context.Context, athleteID, activityID int64) Outcome {
	logger := p.Logger.With("athlete_id", athleteID, "activity_id", activityID)
	logger.Info("Pipeline run started")

	outcome := p.run(ctx, athleteID, activityID, logger)

	observability.RecordPipelineRun(outcome.Result())
	switch {
	case outcome.Rejected:
		logger.Info("Pipeline run ended: activity rejected as insignificant")
	case outcome.Err != nil:
		logger.Error("Pipeline run aborted", "stage", outcome.Stage, "error", outcome.Err)
		if !errors.Is(outcome.Err, shared.ErrCredentialNotFound) {
			sentry.CaptureException(outcome.Err, map[string]interface{}{
				"athlete_id":  athleteID,
				"activity_id": activityID,
				"stage":       string(outcome.Stage),
			}, logger)
		}
	default:
		logger.Info("Pipeline run completed")
	}
	return outcome
}

func (p *Pipeline) run(ctx context.Context, athleteID, activityID int64, logger *slog.Logger) Outcome {
	token, err := p.Tokens.AccessToken(ctx, athleteID)
	if err != nil {
		if errors.Is(err, shared.ErrCredentialNotFound) {
			logger.Info("No credential stored, athlete must (re-)authorize")
		}
		return Outcome{Stage: StageToken, Err: err}
	}

	activity, err := p.API.Activity(ctx, token, activityID)
	if err != nil {
		return Outcome{Stage: StageActivity, Err: fmt.Errorf("fetch activity: %w", err)}
	}

	if !coach.IsSignificant(activity) {
		return Outcome{Stage: StageFilter, Rejected: true}
	}

	// History is best-effort context; a failed list degrades to an empty
	// summary instead of aborting.
	recent, err := p.API.RecentActivities(ctx, token, p.pageSize())
	if err != nil {
		logger.Warn("Recent activity list unavailable, continuing with empty summary", "error", err)
		recent = nil
	}
	summary := coach.SummarizeWeek(p.now(), recent)

	prompt := coach.BuildSessionPrompt(activity, summary, p.Goal)
	advice := advisor.RequestAdvice(ctx, p.Advisor, prompt, logger)

	p.archiveTranscript(ctx, athleteID, activityID, prompt, advice, logger)

	msg := fmt.Sprintf("New session: %s — %s\n\nCoach:\n%s", activity.Name, activity.Type, advice)
	if err := p.Notifier.Notify(ctx, msg); err != nil {
		logger.Warn("Notification delivery failed", "error", err)
	}

	return Outcome{Stage: StageDone}
}

// WeeklyPlan handles the manual trigger: build a week-ahead schedule from
// recent history and deliver it. Unlike Run, upstream failures surface to
// the caller so the HTTP trigger can report an error status.
func (p *Pipeline) WeeklyPlan(ctx context.Context, athleteID int64) error {
	logger := p.Logger.With("athlete_id", athleteID)

	token, err := p.Tokens.AccessToken(ctx, athleteID)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}

	recent, err := p.API.RecentActivities(ctx, token, p.pageSize())
	if err != nil {
		return fmt.Errorf("fetch recent activities: %w", err)
	}

	summary := coach.SummarizeWeek(p.now(), recent)
	prompt := coach.BuildWeeklyPlanPrompt(summary, p.Goal)
	advice := advisor.RequestAdvice(ctx, p.Advisor, prompt, logger)

	if err := p.Notifier.Notify(ctx, "📅 Weekly plan:\n"+advice); err != nil {
		logger.Warn("Notification delivery failed", "error", err)
	}

	logger.Info("Weekly plan delivered")
	return nil
}

// archiveTranscript writes prompt and advice to the transcript bucket when
// one is configured. Best-effort: failures are logged, never propagated.
func (p *Pipeline) archiveTranscript(ctx context.Context, athleteID, activityID int64, prompt, advice string, logger *slog.Logger) {
	if p.Blobs == nil || p.Bucket == "" {
		return
	}

	object := fmt.Sprintf("coaching/%d/%d.txt", athleteID, activityID)
	data := []byte(prompt + "\n\n---\n\n" + advice)
	if err := p.Blobs.Write(ctx, p.Bucket, object, data); err != nil {
		logger.Warn("Transcript archive write failed", "object", object, "error", err)
	}
}
