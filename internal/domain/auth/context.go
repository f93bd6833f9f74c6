package auth

import "context"

type userIDKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated user id from ctx, or "" when the request
// is anonymous.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// RequireUserID returns the authenticated user id or ErrNotAuthenticated.
func RequireUserID(ctx context.Context) (string, error) {
	id := UserID(ctx)
	if id == "" {
		return "", ErrNotAuthenticated
	}
	return id, nil
}
