package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/peakform/coachrelay/pkg"
	"github.com/peakform/coachrelay/pkg/credentials"
)

type fakeQueue struct {
	jobs [][2]int64
	err  error
}

func (f *fakeQueue) Enqueue(ctx context.Context, athleteID, activityID int64) error {
	f.jobs = append(f.jobs, [2]int64{athleteID, activityID})
	return f.err
}

type fakeExchanger struct {
	cred *shared.Credential
	err  error
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*shared.Credential, error) {
	return f.cred, f.err
}

type fakePlanner struct {
	athleteIDs []int64
	err        error
}

func (f *fakePlanner) WeeklyPlan(ctx context.Context, athleteID int64) error {
	f.athleteIDs = append(f.athleteIDs, athleteID)
	return f.err
}

func newTestServer() (*Server, *fakeQueue, *fakeExchanger, *fakePlanner) {
	q := &fakeQueue{}
	ex := &fakeExchanger{}
	pl := &fakePlanner{}
	s := &Server{
		Credentials: credentials.NewMemoryStore(),
		Queue:       q,
		Exchanger:   ex,
		Planner:     pl,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return s, q, ex, pl
}

func TestHandleHealth(t *testing.T) {
	s, _, _, _ := newTestServer()
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	headResp, err := http.Head(srv.URL + "/")
	require.NoError(t, err)
	headResp.Body.Close()
	assert.Equal(t, http.StatusOK, headResp.StatusCode)
}

func TestHandleWebhookVerify(t *testing.T) {
	s, _, _, _ := newTestServer()
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"canonical param", "?hub.challenge=tok-1&hub.mode=subscribe", "tok-1"},
		{"underscore fallback", "?hub_challenge=tok-2", "tok-2"},
		{"bare fallback", "?challenge=tok-3", "tok-3"},
		{"absent", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/strava/webhook" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body["hub.challenge"])
		})
	}
}

func TestHandleWebhookEvent_ActivityCreateEnqueues(t *testing.T) {
	s, q, _, _ := newTestServer()
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	payload := `{"object_type":"activity","aspect_type":"create","owner_id":7,"object_id":99}`
	resp, err := http.Post(srv.URL+"/strava/webhook", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["ok"])

	require.Len(t, q.jobs, 1)
	assert.Equal(t, [2]int64{7, 99}, q.jobs[0])
}

func TestHandleWebhookEvent_NonActivityIgnored(t *testing.T) {
	s, q, _, _ := newTestServer()
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	for _, payload := range []string{
		`{"object_type":"athlete","aspect_type":"update","owner_id":7,"object_id":7}`,
		`{"object_type":"activity","aspect_type":"delete","owner_id":7,"object_id":99}`,
	} {
		resp, err := http.Post(srv.URL+"/strava/webhook", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Empty(t, q.jobs)
}

func TestHandleWebhookEvent_MalformedPayload(t *testing.T) {
	s, q, _, _ := newTestServer()
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/strava/webhook", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, q.jobs)
}

func TestHandleWebhookEvent_EnqueueFailureStillAcks(t *testing.T) {
	s, q, _, _ := newTestServer()
	q.err = errors.New("queue full")
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	payload := `{"object_type":"activity","aspect_type":"update","owner_id":7,"object_id":99}`
	resp, err := http.Post(srv.URL+"/strava/webhook", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleOAuthCallback(t *testing.T) {
	s, _, ex, _ := newTestServer()
	ex.cred = &shared.Credential{AthleteID: 987654, AccessToken: "acc"}
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/strava/oauth/callback?code=abc123")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "987654")

	stored, err := s.Credentials.Get(context.Background(), 987654)
	require.NoError(t, err)
	assert.Equal(t, "acc", stored.AccessToken)
}

func TestHandleOAuthCallback_MissingCode(t *testing.T) {
	s, _, _, _ := newTestServer()
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/strava/oauth/callback")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleOAuthCallback_ExchangeFails(t *testing.T) {
	s, _, ex, _ := newTestServer()
	ex.err = errors.New("invalid code")
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/strava/oauth/callback?code=bad")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandleWeeklyPlan(t *testing.T) {
	s, _, _, pl := newTestServer()
	require.NoError(t, s.Credentials.Put(context.Background(), &shared.Credential{AthleteID: 7}))
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/plan/weekly")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{7}, pl.athleteIDs)
}

func TestHandleWeeklyPlan_NoAthlete(t *testing.T) {
	s, _, _, pl := newTestServer()
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/plan/weekly")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, pl.athleteIDs)
}

func TestHandleWeeklyPlan_UpstreamFailure(t *testing.T) {
	s, _, _, pl := newTestServer()
	pl.err = errors.New("strava down")
	require.NoError(t, s.Credentials.Put(context.Background(), &shared.Credential{AthleteID: 7}))
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/plan/weekly")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
