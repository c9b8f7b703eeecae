package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/peakform/coachrelay/pkg/observability"
)

// webhookEvent is the platform's event notification payload.
type webhookEvent struct {
	ObjectType string `json:"object_type"`
	AspectType string `json:"aspect_type"`
	OwnerID    int64  `json:"owner_id"`
	ObjectID   int64  `json:"object_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "coach relay is running",
	})
}

// handleHealthHead keeps HEAD health probes from logging 405s.
func (s *Server) handleHealthHead(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleWebhookVerify answers the subscription-validation handshake by
// echoing the supplied challenge token.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge := q.Get("hub.challenge")
	if challenge == "" {
		challenge = q.Get("hub_challenge")
	}
	if challenge == "" {
		challenge = q.Get("challenge")
	}

	s.Logger.Info("Webhook verification", "challenge", challenge)
	s.writeJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

// handleWebhookEvent acknowledges every well-formed event synchronously and
// enqueues a pipeline job for activity create/update notifications. The
// acknowledgment never depends on the pipeline's outcome.
func (s *Server) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	var ev webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		observability.RecordWebhookEvent("invalid")
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	logger := s.Logger.With(
		"object_type", ev.ObjectType,
		"aspect_type", ev.AspectType,
		"owner_id", ev.OwnerID,
		"object_id", ev.ObjectID,
	)

	if ev.ObjectType == "activity" && (ev.AspectType == "create" || ev.AspectType == "update") {
		if err := s.Queue.Enqueue(r.Context(), ev.OwnerID, ev.ObjectID); err != nil {
			// Still acknowledge: the producer must not see internal failures.
			logger.Error("Failed to enqueue pipeline job", "error", err)
		} else {
			logger.Info("Pipeline job enqueued")
		}
		observability.RecordWebhookEvent("queued")
	} else {
		logger.Info("Event ignored: not an activity create/update")
		observability.RecordWebhookEvent("ignored")
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleOAuthCallback exchanges the authorization code and stores the
// resulting credential, overwriting any prior record for the athlete.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code parameter", http.StatusBadRequest)
		return
	}

	cred, err := s.Exchanger.Exchange(r.Context(), code)
	if err != nil {
		s.Logger.Error("OAuth code exchange failed", "error", err)
		http.Error(w, "authorization exchange failed", http.StatusBadGateway)
		return
	}

	if err := s.Credentials.Put(r.Context(), cred); err != nil {
		s.Logger.Error("Failed to store credential", "athlete_id", cred.AthleteID, "error", err)
		http.Error(w, "failed to store credential", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Athlete connected", "athlete_id", cred.AthleteID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Strava connected! Athlete ID: %d", cred.AthleteID)
}

// handleWeeklyPlan is the manual trigger: pick any connected athlete and
// deliver a week-ahead plan to the notification channel.
func (s *Server) handleWeeklyPlan(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Credentials.IDs(r.Context())
	if err != nil {
		s.Logger.Error("Failed to list athletes", "error", err)
		http.Error(w, "failed to list athletes", http.StatusInternalServerError)
		return
	}
	if len(ids) == 0 {
		http.Error(w, "no connected athlete (complete the OAuth flow first)", http.StatusBadRequest)
		return
	}

	athleteID := ids[0]
	if err := s.Planner.WeeklyPlan(r.Context(), athleteID); err != nil {
		s.Logger.Error("Weekly plan failed", "athlete_id", athleteID, "error", err)
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Weekly plan sent to the notification channel")
}
