package storefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/engine-dashboard/tokenstore"
	"github.com/jrsteele09/engine-dashboard/users"
)

var _ tokenstore.Store = (*FakeStore)(nil)

// FakeStore holds raw entries so tests can seed orphaned or corrupt state, and
// records every call made against it.
type FakeStore struct {
	lock     sync.Mutex
	token    string
	userData []byte
	calls    []string
	gets     int
	setErr   error
	clearErr error
	stallSet bool
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Seed sets the raw persisted entries
func (s *FakeStore) Seed(token string, userData []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.token = token
	s.userData = userData
}

// SeedUser persists a well formed token and user pair
func (s *FakeStore) SeedUser(token string, user users.User) {
	data, _ := user.Encode()
	s.Seed(token, data)
}

func (s *FakeStore) FailSet(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.setErr = err
}

func (s *FakeStore) FailClear(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.clearErr = err
}

// StallSet makes Set wait until its context ends, like an unresponsive backend
func (s *FakeStore) StallSet() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.stallSet = true
}

// Raw returns the persisted entries verbatim
func (s *FakeStore) Raw() (string, []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.token, s.userData
}

// Calls returns the sequence of mutating calls ("set", "clear")
func (s *FakeStore) Calls() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.calls...)
}

// Gets returns how many times the store was read
func (s *FakeStore) Gets() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.gets
}

func (s *FakeStore) Get(_ context.Context) tokenstore.Credentials {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.gets++

	if s.token == "" {
		return tokenstore.Credentials{}
	}
	creds := tokenstore.Credentials{Token: s.token}
	if u, err := users.Decode(s.userData); err == nil {
		creds.User = &u
	}
	return creds
}

func (s *FakeStore) Set(ctx context.Context, token string, user users.User) error {
	s.lock.Lock()
	s.calls = append(s.calls, "set")
	stall := s.stallSet
	s.lock.Unlock()
	if stall {
		<-ctx.Done()
		return ctx.Err()
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	data, err := user.Encode()
	if err != nil {
		return err
	}
	s.token = token
	s.userData = data
	return nil
}

func (s *FakeStore) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls = append(s.calls, "clear")
	if s.clearErr != nil {
		return s.clearErr
	}
	s.token = ""
	s.userData = nil
	return nil
}
