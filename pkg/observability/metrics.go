package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	webhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachrelay",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Inbound webhook events by disposition (queued, ignored, invalid).",
	}, []string{"disposition"})

	pipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachrelay",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Pipeline runs by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(webhookEvents, pipelineRuns)
}

// RecordWebhookEvent counts one inbound webhook event.
func RecordWebhookEvent(disposition string) {
	webhookEvents.WithLabelValues(disposition).Inc()
}

// RecordPipelineRun counts one finished pipeline run.
func RecordPipelineRun(outcome string) {
	pipelineRuns.WithLabelValues(outcome).Inc()
}
