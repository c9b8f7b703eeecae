// Package strava is a minimal client for the Strava v3 REST API covering
// the calls the coaching pipeline needs: single activity detail and the
// athlete's recent activity list.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	httputil "github.com/peakform/coachrelay/pkg/infrastructure/http"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// Activity is the subset of Strava's activity record the pipeline consumes.
// It is an immutable snapshot fetched fresh per event, never cached.
type Activity struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	SportType          string  `json:"sport_type"`
	Distance           float64 `json:"distance"`    // meters
	MovingTime         int     `json:"moving_time"` // seconds
	ElapsedTime        int     `json:"elapsed_time"`
	AverageSpeed       float64 `json:"average_speed"` // m/s
	AverageHeartrate   float64 `json:"average_heartrate"`
	MaxHeartrate       float64 `json:"max_heartrate"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	SufferScore        float64 `json:"suffer_score"`
	StartDate          string  `json:"start_date"` // ISO 8601, UTC
	StartDateLocal     string  `json:"start_date_local"`
}

// Client is an authenticated-read API client. The access token is supplied
// per call so one client serves every athlete.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithBaseURL overrides the API base URL. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

func (c *Client) get(ctx context.Context, accessToken, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Activity retrieves a single activity's details. A failure here is hard:
// the primary activity is required context for the coaching prompt.
func (c *Client) Activity(ctx context.Context, accessToken string, activityID int64) (*Activity, error) {
	var activity Activity
	url := fmt.Sprintf("%s/activities/%d", c.baseURL, activityID)
	if err := c.get(ctx, accessToken, url, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// RecentActivities retrieves the athlete's most recent activities, newest
// first. Callers treat failures as best-effort: history only enriches the
// prompt, it never gates it.
func (c *Client) RecentActivities(ctx context.Context, accessToken string, perPage int) ([]Activity, error) {
	var activities []Activity
	url := fmt.Sprintf("%s/athlete/activities?per_page=%d", c.baseURL, perPage)
	if err := c.get(ctx, accessToken, url, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}
