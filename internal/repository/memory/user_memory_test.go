// internal/repository/memory/user_memory_test.go
package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minivenmo/internal/domain"
	"minivenmo/internal/util"
)

func newStoredUser(t *testing.T, store *UserStore, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username)
	require.NoError(t, err)
	user.Balance = decimal.NewFromInt(100)
	require.NoError(t, store.Create(context.Background(), user))
	return user
}

func TestUserStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	alice := newStoredUser(t, store, "Alice")

	byID, err := store.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Same(t, alice, byID)

	byUsername, err := store.GetByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Same(t, alice, byUsername)
}

func TestUserStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	_, err := store.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, util.ErrNotFound)

	_, err = store.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestUserStoreDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	newStoredUser(t, store, "Alice")

	dup, err := domain.NewUser("Alice")
	require.NoError(t, err)
	err = store.Create(ctx, dup)
	assert.ErrorIs(t, err, util.ErrDuplicateEntry)

	users, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserStoreListCreationOrder(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	newStoredUser(t, store, "Alice")
	newStoredUser(t, store, "Bobby")
	newStoredUser(t, store, "Carol")

	users, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "Alice", users[0].Username)
	assert.Equal(t, "Bobby", users[1].Username)
	assert.Equal(t, "Carol", users[2].Username)
}
