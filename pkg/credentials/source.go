package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	shared "github.com/peakform/coachrelay/pkg"
	httputil "github.com/peakform/coachrelay/pkg/infrastructure/http"
)

// DefaultTokenURL is the fitness platform's OAuth token endpoint.
const DefaultTokenURL = "https://www.strava.com/oauth/token"

// refreshSkew triggers a proactive refresh when the token expires within
// this window.
const refreshSkew = time.Minute

// RefreshError reports a failed refresh exchange. The stored credential is
// left unchanged when it occurs.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Source hands out valid access tokens, refreshing through the token
// endpoint when the stored token is expired or about to expire.
// It is safe for concurrent use by multiple goroutines; concurrent refreshes
// for the same athlete resolve last-write-wins on the store.
type Source struct {
	store        shared.CredentialStore
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	now          func() time.Time

	mu sync.Mutex
}

func NewSource(store shared.CredentialStore, clientID, clientSecret string) *Source {
	return &Source{
		store:        store,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     DefaultTokenURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		now:          time.Now,
	}
}

// WithTokenURL overrides the token endpoint. Used by tests.
func (s *Source) WithTokenURL(u string) *Source {
	s.tokenURL = u
	return s
}

// AccessToken returns a token valid for at least the refresh skew. It
// returns shared.ErrCredentialNotFound when the athlete never authorized and
// *RefreshError when the exchange fails.
func (s *Source) AccessToken(ctx context.Context, athleteID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, err := s.store.Get(ctx, athleteID)
	if err != nil {
		return "", err
	}

	if s.now().Add(refreshSkew).Before(cred.Expiry) {
		return cred.AccessToken, nil
	}

	refreshed, err := s.refresh(ctx, cred)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// refresh performs the refresh-token exchange and persists the new record.
func (s *Source) refresh(ctx context.Context, cred *shared.Credential) (*shared.Credential, error) {
	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", cred.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &RefreshError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &RefreshError{Err: err}
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return nil, &RefreshError{Err: err}
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RefreshError{Err: fmt.Errorf("decode refresh response: %w", err)}
	}

	newExpiry := s.now().Add(time.Duration(result.ExpiresIn) * time.Second)
	if result.ExpiresAt != 0 {
		newExpiry = time.Unix(result.ExpiresAt, 0)
	}

	// Keep the old refresh token when the server doesn't rotate it; writing
	// the empty response value would wipe the stored token.
	newRefresh := result.RefreshToken
	if newRefresh == "" {
		newRefresh = cred.RefreshToken
	}

	updated := &shared.Credential{
		AthleteID:    cred.AthleteID,
		AccessToken:  result.AccessToken,
		RefreshToken: newRefresh,
		Expiry:       newExpiry,
	}
	if err := s.store.Put(ctx, updated); err != nil {
		return nil, &RefreshError{Err: fmt.Errorf("persist refreshed token: %w", err)}
	}

	return updated, nil
}
