// Package server exposes the inbound HTTP surface: the platform webhook,
// the OAuth callback, the manual weekly-plan trigger and health/metrics.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	shared "github.com/peakform/coachrelay/pkg"
)

// CodeExchanger trades an OAuth authorization code for a credential.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (*shared.Credential, error)
}

// Planner runs the manual weekly-plan flow for one athlete.
type Planner interface {
	WeeklyPlan(ctx context.Context, athleteID int64) error
}

// Server holds handler dependencies.
type Server struct {
	Credentials shared.CredentialStore
	Queue       shared.Queue
	Exchanger   CodeExchanger
	Planner     Planner
	Logger      *slog.Logger
}

// Routes builds the chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHealth)
	r.Head("/", s.handleHealthHead)
	r.Get("/strava/webhook", s.handleWebhookVerify)
	r.Post("/strava/webhook", s.handleWebhookEvent)
	r.Get("/strava/oauth/callback", s.handleOAuthCallback)
	r.Get("/plan/weekly", s.handleWeeklyPlan)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Logger.Error("Failed to write response", "error", err)
	}
}
