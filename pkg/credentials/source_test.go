package credentials

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/peakform/coachrelay/pkg"
)

func newTokenServer(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.NotEmpty(t, r.Form.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSource_FreshTokenNoRefresh(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &shared.Credential{
		AthleteID:   1,
		AccessToken: "fresh",
		Expiry:      time.Now().Add(time.Hour),
	}))

	srv, calls := newTokenServer(t, 200, `{}`)
	source := NewSource(store, "client-id", "client-secret").WithTokenURL(srv.URL)

	token, err := source.AccessToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, 0, *calls)
}

func TestSource_ExpiredTokenRefreshesOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &shared.Credential{
		AthleteID:    1,
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Second),
	}))

	expiresAt := time.Now().Add(6 * time.Hour).Unix()
	srv, calls := newTokenServer(t, 200, fmt.Sprintf(
		`{"access_token":"new-access","refresh_token":"refresh-2","expires_at":%d}`, expiresAt))
	source := NewSource(store, "client-id", "client-secret").WithTokenURL(srv.URL)

	token, err := source.AccessToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, *calls)

	// Record atomically updated.
	cred, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, "refresh-2", cred.RefreshToken)
	assert.Equal(t, time.Unix(expiresAt, 0), cred.Expiry)
}

func TestSource_RefreshKeepsOldRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &shared.Credential{
		AthleteID:    1,
		AccessToken:  "stale",
		RefreshToken: "keep-me",
		Expiry:       time.Now().Add(30 * time.Second), // inside the 60s skew
	}))

	srv, calls := newTokenServer(t, 200, `{"access_token":"new-access","expires_in":3600}`)
	source := NewSource(store, "client-id", "client-secret").WithTokenURL(srv.URL)

	_, err := source.AccessToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	cred, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", cred.RefreshToken)
}

func TestSource_RefreshFailureLeavesRecordUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	original := &shared.Credential{
		AthleteID:    1,
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.Put(ctx, original))

	srv, _ := newTokenServer(t, 401, `{"message":"invalid"}`)
	source := NewSource(store, "client-id", "client-secret").WithTokenURL(srv.URL)

	_, err := source.AccessToken(ctx, 1)
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)

	cred, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, original, cred)
}

func TestSource_MissingCredential(t *testing.T) {
	source := NewSource(NewMemoryStore(), "client-id", "client-secret")

	_, err := source.AccessToken(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrCredentialNotFound)
}
