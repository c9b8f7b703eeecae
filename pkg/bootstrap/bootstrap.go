package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	shared "github.com/peakform/coachrelay/pkg"
	"github.com/peakform/coachrelay/pkg/credentials"
	"github.com/peakform/coachrelay/pkg/infrastructure/queue"
	infrastorage "github.com/peakform/coachrelay/pkg/infrastructure/storage"
)

// Config holds the full environment-sourced configuration surface.
type Config struct {
	Port string

	StravaClientID     string
	StravaClientSecret string

	OpenAIAPIKey string
	GeminiAPIKey string

	TelegramBotToken string
	TelegramChatID   string

	CoachGoal        string
	ActivityPageSize int

	ProjectID          string
	EnablePubSub       bool
	PubSubTopic        string
	PubSubSubscription string
	TranscriptBucket   string

	SentryDSN   string
	Environment string
}

// Service holds initialized infrastructure dependencies.
type Service struct {
	Credentials shared.CredentialStore
	Queue       queue.Queue
	Blobs       shared.BlobStore
	Config      *Config
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() *Config {
	pageSize := shared.DefaultActivityPageSize
	if raw := os.Getenv("ACTIVITY_PAGE_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			pageSize = n
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	topic := os.Getenv("PUBSUB_TOPIC")
	if topic == "" {
		topic = shared.DefaultPubSubTopic
	}
	sub := os.Getenv("PUBSUB_SUBSCRIPTION")
	if sub == "" {
		sub = shared.DefaultPubSubSubscription
	}

	return &Config{
		Port:               port,
		StravaClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		StravaClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		TelegramBotToken:   os.Getenv("TG_BOT_TOKEN"),
		TelegramChatID:     os.Getenv("TG_CHAT_ID"),
		CoachGoal:          os.Getenv("COACH_GOAL"),
		ActivityPageSize:   pageSize,
		ProjectID:          os.Getenv("GOOGLE_CLOUD_PROJECT"),
		EnablePubSub:       os.Getenv("ENABLE_PUBSUB") == "true",
		PubSubTopic:        topic,
		PubSubSubscription: sub,
		TranscriptBucket:   os.Getenv("GCS_TRANSCRIPT_BUCKET"),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		Environment:        os.Getenv("ENVIRONMENT"),
	}
}

// GetSlogHandlerOptions returns standard handler options. Keys are mapped to
// the Cloud Logging names so log aggregation picks up severity correctly.
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message.
type ComponentHandler struct {
	slog.Handler
	component string
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithAttrs implements slog.Handler
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newComp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			newComp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: newComp,
	}
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false
		}
		return true
	})

	if comp != "" {
		newRecord := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("[%s] %s", comp, r.Message), r.PC)
		r.Attrs(func(a slog.Attr) bool {
			newRecord.AddAttrs(a)
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// NewLogger creates a configured logger instance. Level comes from LOG_LEVEL.
func NewLogger(serviceName string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, GetSlogHandlerOptions(level))
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes infrastructure dependencies from config. The
// credential store, queue and blob store all fall back to local
// implementations when the corresponding cloud backend is unconfigured.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	logger := NewLogger("bootstrap")

	var credStore shared.CredentialStore
	var fsClient *firestore.Client
	if cfg.ProjectID != "" {
		var err error
		fsClient, err = firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("firestore init: %w", err)
		}
		credStore = credentials.NewFirestoreStore(fsClient)
		logger.Info("Credential store: Firestore", "project_id", cfg.ProjectID)
	} else {
		credStore = credentials.NewMemoryStore()
		logger.Info("Credential store: in-memory (GOOGLE_CLOUD_PROJECT not set)")
	}

	var jobQueue queue.Queue
	if cfg.EnablePubSub {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		jobQueue = queue.NewPubSub(psClient, cfg.PubSubTopic, cfg.PubSubSubscription, logger)
		logger.Info("Queue: Pub/Sub", "topic", cfg.PubSubTopic, "subscription", cfg.PubSubSubscription)
	} else {
		jobQueue = queue.NewMemory(64, 2, logger)
		logger.Info("Queue: in-memory")
	}

	var blobs shared.BlobStore
	if cfg.TranscriptBucket != "" {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage init: %w", err)
		}
		blobs = &infrastorage.StorageAdapter{Client: gcsClient}
		logger.Info("Transcript archive: GCS", "bucket", cfg.TranscriptBucket)
	}

	return &Service{
		Credentials: credStore,
		Queue:       jobQueue,
		Blobs:       blobs,
		Config:      cfg,
	}, nil
}
