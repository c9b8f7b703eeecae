package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	shared "github.com/peakform/coachrelay/pkg"
	"github.com/peakform/coachrelay/pkg/advisor"
	"github.com/peakform/coachrelay/pkg/bootstrap"
	"github.com/peakform/coachrelay/pkg/credentials"
	"github.com/peakform/coachrelay/pkg/infrastructure/queue"
	infrasentry "github.com/peakform/coachrelay/pkg/infrastructure/sentry"
	"github.com/peakform/coachrelay/pkg/notify"
	"github.com/peakform/coachrelay/pkg/pipeline"
	"github.com/peakform/coachrelay/pkg/server"
	"github.com/peakform/coachrelay/pkg/strava"
)

func main() {
	// .env is optional; the real environment always wins.
	_ = godotenv.Load()

	cfg := bootstrap.LoadConfig()
	logger := bootstrap.NewLogger("coachd")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := infrasentry.Init(infrasentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		ServerName:  "coachd",
	}, logger); err != nil {
		logger.Warn("Sentry initialization failed", "error", err)
	}
	defer infrasentry.Flush(2 * time.Second)

	svc, err := bootstrap.NewService(ctx, cfg)
	if err != nil {
		logger.Error("Service initialization failed", "error", err)
		os.Exit(1)
	}

	var adv shared.Advisor
	if cfg.GeminiAPIKey != "" {
		adv = advisor.NewGemini(cfg.GeminiAPIKey)
		logger.Info("Advisor: Gemini")
	} else {
		adv = advisor.NewOpenAI(cfg.OpenAIAPIKey)
		logger.Info("Advisor: OpenAI-compatible", "key_configured", cfg.OpenAIAPIKey != "")
	}

	pipe := &pipeline.Pipeline{
		Tokens:   credentials.NewSource(svc.Credentials, cfg.StravaClientID, cfg.StravaClientSecret),
		API:      strava.NewClient(),
		Advisor:  adv,
		Notifier: notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, logger.With("component", "notify")),
		Blobs:    svc.Blobs,
		Bucket:   cfg.TranscriptBucket,
		Goal:     cfg.CoachGoal,
		PageSize: cfg.ActivityPageSize,
		Logger:   logger.With("component", "pipeline"),
	}

	go func() {
		defer infrasentry.RecoverAndCapture(logger)
		err := svc.Queue.Run(ctx, func(ctx context.Context, job queue.Job) {
			pipe.Run(ctx, job.AthleteID, job.ActivityID)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Queue worker stopped", "error", err)
		}
	}()

	srv := &server.Server{
		Credentials: svc.Credentials,
		Queue:       svc.Queue,
		Exchanger:   strava.NewOAuth(cfg.StravaClientID, cfg.StravaClientSecret),
		Planner:     pipe,
		Logger:      logger.With("component", "http"),
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // /plan/weekly calls upstream synchronously
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}
