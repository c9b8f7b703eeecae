package shared

// Defaults used when the environment doesn't override them.
const (
	DefaultPubSubTopic        = "coaching-jobs"
	DefaultPubSubSubscription = "coaching-jobs-worker"
	DefaultActivityPageSize   = 50
)

// EventTypeActivityUploaded is the CloudEvent type carried on the job queue.
const EventTypeActivityUploaded = "com.peakform.coachrelay.activity.uploaded"

// EventSourceWebhook identifies events originating from the webhook receiver.
const EventSourceWebhook = "/coachrelay/webhook"
