package tokenstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/engine-dashboard/users"
)

// MemoryStore keeps credentials for the lifetime of the process only
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  *users.User
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return credentials(s.token, nil)
	}
	u := *s.user
	return credentials(s.token, &u)
}

func (s *MemoryStore) Set(_ context.Context, token string, user users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &user
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}
