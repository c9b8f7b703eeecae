// Package credentials owns per-athlete OAuth credentials for the fitness
// platform: storage backends plus the refreshing token source consumed by
// the pipeline.
package credentials

import (
	"context"
	"sync"

	shared "github.com/peakform/coachrelay/pkg"
)

// MemoryStore keeps credentials in process memory. Records live for the
// process lifetime only; a restart requires athletes to re-authorize.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[int64]shared.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[int64]shared.Credential)}
}

func (s *MemoryStore) Get(ctx context.Context, athleteID int64) (*shared.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[athleteID]
	if !ok {
		return nil, shared.ErrCredentialNotFound
	}
	return &cred, nil
}

func (s *MemoryStore) Put(ctx context.Context, cred *shared.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[cred.AthleteID] = *cred
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, athleteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, athleteID)
	return nil
}

func (s *MemoryStore) IDs(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.creds))
	for id := range s.creds {
		ids = append(ids, id)
	}
	return ids, nil
}
