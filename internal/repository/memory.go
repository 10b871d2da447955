package repository

import (
	"context"
	"sync"

	"github.com/atinyakov/signupform/internal/models"
)

// MemoryUserRepository keeps users in process memory. It is used when no
// database DSN is configured.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by id number
}

// NewMemoryUserRepository returns an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

// InsertUser stores u unless its id number is already taken.
func (r *MemoryUserRepository) InsertUser(_ context.Context, u models.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.IDNumber]; ok {
		return "", ErrIDNumberTaken
	}
	r.users[u.IDNumber] = u
	return u.ID, nil
}

// FindIDNumber returns idNumber if stored, or an empty string.
func (r *MemoryUserRepository) FindIDNumber(_ context.Context, idNumber string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[idNumber]; ok {
		return u.IDNumber, nil
	}
	return "", nil
}
