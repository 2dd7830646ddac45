// internal/repository/user_store.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"minivenmo/internal/domain"
)

// UserStore defines the interface for user registry operations. The
// simulator keeps everything in process memory, but the service layer only
// depends on this interface so a persistent backend could be substituted.
type UserStore interface {
	// Create adds a new user to the registry.
	Create(ctx context.Context, user *domain.User) error
	// GetByID retrieves a user by identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// List returns all users in creation order.
	List(ctx context.Context) ([]*domain.User, error)
}
