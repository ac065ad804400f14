package auth

import (
	"context"
	"sync"

	"trade-client/models"
)

// Store holds the single token pair plus the serialized current-user record.
// Implementations must clear all three as a unit: no caller may observe a
// half-cleared session.
type Store interface {
	Credential(ctx context.Context) (models.Credential, error)
	User(ctx context.Context) (*models.User, error)
	Save(ctx context.Context, cred models.Credential, user *models.User) error
	SetAccessToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory. Used by tests and
// short-lived tools that do not need to survive a restart.
type MemoryStore struct {
	mu   sync.Mutex
	cred models.Credential
	user *models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Credential(_ context.Context) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, nil
}

func (s *MemoryStore) User(_ context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *MemoryStore) Save(_ context.Context, cred models.Credential, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	if user != nil {
		u := *user
		s.user = &u
	}
	return nil
}

func (s *MemoryStore) SetAccessToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred.AccessToken = token
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = models.Credential{}
	s.user = nil
	return nil
}
