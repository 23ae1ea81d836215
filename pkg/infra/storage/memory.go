package storage

import (
	"context"
	"sync"

	"github.com/sokoide/shopfront/pkg/domain"
)

// MemoryCredentialStore forgets the credential when the process exits.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (m *MemoryCredentialStore) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", domain.ErrNoCredential
	}
	return m.token, nil
}

func (m *MemoryCredentialStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryCredentialStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
