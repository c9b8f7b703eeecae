package credentials

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/peakform/coachrelay/pkg"
)

const athletesCollection = "athletes"

// athleteDoc is the Firestore document layout for one athlete's credentials.
type athleteDoc struct {
	AccessToken  string    `firestore:"access_token"`
	RefreshToken string    `firestore:"refresh_token"`
	ExpiresAt    time.Time `firestore:"expires_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

// FirestoreStore persists credentials in the athletes collection, one
// document per athlete keyed by the numeric athlete id.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func docID(athleteID int64) string {
	return strconv.FormatInt(athleteID, 10)
}

func (s *FirestoreStore) Get(ctx context.Context, athleteID int64) (*shared.Credential, error) {
	snap, err := s.client.Collection(athletesCollection).Doc(docID(athleteID)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, shared.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get athlete %d: %w", athleteID, err)
	}

	var doc athleteDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode athlete %d: %w", athleteID, err)
	}

	return &shared.Credential{
		AthleteID:    athleteID,
		AccessToken:  doc.AccessToken,
		RefreshToken: doc.RefreshToken,
		Expiry:       doc.ExpiresAt,
	}, nil
}

func (s *FirestoreStore) Put(ctx context.Context, cred *shared.Credential) error {
	_, err := s.client.Collection(athletesCollection).Doc(docID(cred.AthleteID)).Set(ctx, athleteDoc{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    cred.Expiry,
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("set athlete %d: %w", cred.AthleteID, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, athleteID int64) error {
	_, err := s.client.Collection(athletesCollection).Doc(docID(athleteID)).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete athlete %d: %w", athleteID, err)
	}
	return nil
}

func (s *FirestoreStore) IDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	iter := s.client.Collection(athletesCollection).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list athletes: %w", err)
		}
		id, err := strconv.ParseInt(snap.Ref.ID, 10, 64)
		if err != nil {
			// Stray documents don't belong to the athlete keyspace.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
