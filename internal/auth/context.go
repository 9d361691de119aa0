package auth

import (
	"context"

	"github.com/msallam/hotel-management/internal/user"
)

type userCtxKey struct{}

func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(*user.User)
	return u, ok && u != nil
}
