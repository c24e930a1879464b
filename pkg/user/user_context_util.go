package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey struct{}

// ErrNoUser means the request carries no acting user. Writes that record an actor fail with it.
var ErrNoUser = errors.New("no acting user in request")

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// CurrentUser returns the acting user stored by WithUser.
func CurrentUser(ctx context.Context) (User, error) {
	user, ok := ctx.Value(contextKey{}).(User)
	if !ok {
		log.Trace("no user in context")
		return User{}, ErrNoUser
	}
	return user, nil
}

// CurrentId is CurrentUser narrowed to the id recorded on adjustments.
func CurrentId(ctx context.Context) (int, error) {
	user, err := CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return user.Id, nil
}
