package auth

import (
	"maps"
	"slices"
	"sync"
)

// memStore is an in-memory CredentialStore. storeErr makes Store fail.
type memStore struct {
	mu       sync.Mutex
	byName   map[string]Account
	storeErr error
}

func newMockStore() *memStore {
	return &memStore{byName: map[string]Account{}}
}

func (s *memStore) Store(account *Account) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[account.Name] = *account
	return nil
}

func (s *memStore) Retrieve(name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byName[name]; ok {
		return &a, nil
	}
	return nil, ErrCredentialsNotFound
}

func (s *memStore) List() ([]*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Account
	for _, name := range slices.Sorted(maps.Keys(s.byName)) {
		a := s.byName[name]
		out = append(out, &a)
	}
	return out, nil
}

func (s *memStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(s.byName, name)
	return nil
}

func (s *memStore) Exists(name string) bool {
	_, err := s.Retrieve(name)
	return err == nil
}

func (s *memStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byName)
}
