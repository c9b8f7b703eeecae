package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"cloud.google.com/go/pubsub"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// PubSub is a Google Cloud Pub/Sub backed queue for multi-instance
// deployments: any instance may receive the webhook, any worker may run the
// pipeline.
type PubSub struct {
	client       *pubsub.Client
	topic        string
	subscription string
	logger       *slog.Logger
}

func NewPubSub(client *pubsub.Client, topic, subscription string, logger *slog.Logger) *PubSub {
	return &PubSub{
		client:       client,
		topic:        topic,
		subscription: subscription,
		logger:       logger,
	}
}

func (q *PubSub) Enqueue(ctx context.Context, athleteID, activityID int64) error {
	e, err := NewJobEvent(Job{AthleteID: athleteID, ActivityID: activityID})
	if err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	res := q.client.Topic(q.topic).Publish(ctx, &pubsub.Message{Data: data})
	id, err := res.Get(ctx)
	if err != nil {
		return err
	}

	q.logger.Debug("Job published", "message_id", id, "event_id", e.ID())
	return nil
}

// Run receives from the subscription until ctx is cancelled. Messages are
// always acked: each run is best-effort, single-attempt.
func (q *PubSub) Run(ctx context.Context, h Handler) error {
	sub := q.client.Subscription(q.subscription)
	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		defer m.Ack()

		var e cloudevents.Event
		if err := json.Unmarshal(m.Data, &e); err != nil {
			q.logger.Error("Dropping undecodable queue message", "message_id", m.ID, "error", err)
			return
		}
		dispatch(ctx, e, h, q.logger)
	})
}
