package test_utils

import (
	"context"

	"github.com/google/uuid"
	"github.com/internly/internly/pkg/user"
)

// ContextWithUser returns a context carrying a test user with the given id, as the
// X-User-Id middleware would set it.
func ContextWithUser(ctx context.Context, id int) context.Context {
	return user.WithUser(ctx, user.User{
		Id:          id,
		Uid:         uuid.NewString(),
		Username:    "test_user",
		DisplayName: "Test User",
	})
}
