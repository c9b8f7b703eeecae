package shared

import (
	"context"
	"errors"
	"time"
)

// ErrCredentialNotFound is returned by CredentialStore.Get when an athlete
// has never completed the OAuth flow (or has been deleted). Callers treat it
// as "athlete must (re-)authorize", not as a fault.
var ErrCredentialNotFound = errors.New("credential not found")

// Credential is one athlete's OAuth grant against the fitness platform.
type Credential struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// --- Persistence Interfaces ---

// CredentialStore persists per-athlete OAuth credentials. The in-memory
// implementation backs tests and single-instance deployments; the Firestore
// implementation backs production.
type CredentialStore interface {
	Get(ctx context.Context, athleteID int64) (*Credential, error)
	Put(ctx context.Context, cred *Credential) error
	Delete(ctx context.Context, athleteID int64) error
	IDs(ctx context.Context) ([]int64, error)
}

// --- Messaging Interfaces ---

// Queue accepts pipeline jobs. Enqueue must return quickly; the webhook
// handler acknowledges the event producer before the job runs.
type Queue interface {
	Enqueue(ctx context.Context, athleteID, activityID int64) error
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Advice Interfaces ---

// Advisor turns a coaching prompt into advice text.
type Advisor interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// --- Notification Interfaces ---

// Notifier delivers a finished message to the configured chat channel.
// Implementations are best-effort: an unconfigured destination is a no-op,
// and callers never fail a pipeline run on a returned error.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
