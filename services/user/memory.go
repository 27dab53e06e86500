package user

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps profiles in process memory for local development
// and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]Profile)}
}

func (m *MemoryRepository) Get(_ context.Context, email string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) GetMany(_ context.Context, emails []string) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Profile, 0, len(emails))
	for _, e := range emails {
		if p, ok := m.profiles[e]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MemoryRepository) Save(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Email] = p
	return nil
}

func (m *MemoryRepository) SetPicture(_ context.Context, email, url string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[email]
	if !ok {
		return ErrNotFound
	}
	p.ProfilePicture = url
	p.UpdatedAt = at
	m.profiles[email] = p
	return nil
}
