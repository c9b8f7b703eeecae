package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// ErrQueueFull is returned when the in-memory buffer is saturated. The
// webhook handler logs it and still acknowledges the event producer.
var ErrQueueFull = errors.New("job queue full")

// Memory is a channel-backed queue for single-instance deployments and tests.
type Memory struct {
	jobs    chan cloudevents.Event
	workers int
	logger  *slog.Logger
}

func NewMemory(buffer, workers int, logger *slog.Logger) *Memory {
	if workers < 1 {
		workers = 1
	}
	return &Memory{
		jobs:    make(chan cloudevents.Event, buffer),
		workers: workers,
		logger:  logger,
	}
}

func (q *Memory) Enqueue(ctx context.Context, athleteID, activityID int64) error {
	e, err := NewJobEvent(Job{AthleteID: athleteID, ActivityID: activityID})
	if err != nil {
		return err
	}

	select {
	case q.jobs <- e:
		q.logger.Debug("Job enqueued", "event_id", e.ID(), "athlete_id", athleteID, "activity_id", activityID)
		return nil
	default:
		return ErrQueueFull
	}
}

// Run consumes jobs with a small fixed worker pool until ctx is cancelled.
func (q *Memory) Run(ctx context.Context, h Handler) error {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case e := <-q.jobs:
					dispatch(ctx, e, h, q.logger)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}
