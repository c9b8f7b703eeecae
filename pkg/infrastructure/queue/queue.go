// Package queue decouples webhook acknowledgment from pipeline execution.
// Jobs travel as CloudEvents so the in-memory and Pub/Sub backends carry an
// identical envelope.
package queue

import (
	"context"
	"log/slog"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	shared "github.com/peakform/coachrelay/pkg"
)

// Job is the unit of work consumed by the pipeline worker.
type Job struct {
	AthleteID  int64 `json:"athlete_id"`
	ActivityID int64 `json:"activity_id"`
}

// Handler processes one job. It must contain its own failures; the queue
// never retries.
type Handler func(ctx context.Context, job Job)

// Queue is implemented by the in-memory and Pub/Sub backends.
type Queue interface {
	shared.Queue
	// Run consumes jobs until ctx is cancelled.
	Run(ctx context.Context, h Handler) error
}

// NewJobEvent wraps a job in a standardized CloudEvent v1.0.
func NewJobEvent(job Job) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSpecVersion("1.0")
	e.SetType(shared.EventTypeActivityUploaded)
	e.SetSource(shared.EventSourceWebhook)

	if err := e.SetData(cloudevents.ApplicationJSON, job); err != nil {
		return e, err
	}
	return e, nil
}

// dispatch decodes the event payload and hands it to the handler. Events
// that fail to decode are logged and dropped, never retried.
func dispatch(ctx context.Context, e cloudevents.Event, h Handler, logger *slog.Logger) {
	var job Job
	if err := e.DataAs(&job); err != nil {
		logger.Error("Dropping undecodable job event", "event_id", e.ID(), "error", err)
		return
	}
	h(ctx, job)
}
