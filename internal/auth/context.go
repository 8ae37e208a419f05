package auth

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

type contextKey struct{}

// WithUser attaches the authenticated user to the request context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(models.User)
	return user, ok
}
