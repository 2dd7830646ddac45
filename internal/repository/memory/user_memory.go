// internal/repository/memory/user_memory.go
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"minivenmo/internal/domain"
	"minivenmo/internal/repository"
	"minivenmo/internal/util"
)

// UserStore implements repository.UserStore backed by process memory.
// The store itself is safe for concurrent use; the User values it hands out
// are not, and must be guarded by the caller (see service.VenmoService).
type UserStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*domain.User
	byUsername map[string]uuid.UUID
	order      []uuid.UUID // Creation order
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[uuid.UUID]*domain.User),
		byUsername: make(map[string]uuid.UUID),
	}
}

var _ repository.UserStore = (*UserStore)(nil)

// Create adds a new user to the registry. Usernames are unique within the
// registry; a duplicate fails with util.ErrDuplicateEntry.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[user.Username]; exists {
		return fmt.Errorf("user with username '%s' already exists: %w", user.Username, util.ErrDuplicateEntry)
	}

	s.byID[user.ID] = user
	s.byUsername[user.Username] = user.ID
	s.order = append(s.order, user.ID)
	return nil
}

// GetByID retrieves a user by identifier.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return user, nil
}

// GetByUsername retrieves a user by username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, util.ErrNotFound
	}
	return s.byID[id], nil
}

// List returns all users in creation order.
func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.byID[id])
	}
	return users, nil
}
