package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceImpl_GetUserByUid(t *testing.T) {
	t.Run("should return user by uid", func(t *testing.T) {
		// given
		repo := NewStubUserRepository()
		stored := repo.AddUser(User{Uid: uuid.NewString(), Username: "supervisor-1", DisplayName: "Supervisor"})
		service := NewUserService(repo)

		// when
		found, err := service.GetUserByUid(context.Background(), stored.Uid)

		// then
		require.NoError(t, err)
		assert.Equal(t, stored, found)
	})

	t.Run("should return ErrUserNotFound for unknown uid", func(t *testing.T) {
		service := NewUserService(NewStubUserRepository())

		_, err := service.GetUserByUid(context.Background(), uuid.NewString())

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserServiceImpl_GetCurrentUser(t *testing.T) {
	t.Run("should resolve the user stored in context", func(t *testing.T) {
		// given
		repo := NewStubUserRepository()
		stored := repo.AddUser(User{Uid: uuid.NewString(), Username: "admin-1", DisplayName: "Admin"})
		service := NewUserService(repo)
		ctx := WithUser(context.Background(), stored)

		// when
		current, err := service.GetCurrentUser(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, stored.Id, current.Id)
	})

	t.Run("should fail without user in context", func(t *testing.T) {
		service := NewUserService(NewStubUserRepository())

		_, err := service.GetCurrentUser(context.Background())

		assert.ErrorIs(t, err, ErrNoUser)
	})
}
