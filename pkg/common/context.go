package common

import (
	"context"
)

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyUserID    ContextKey = "user_id"
	ContextKeyEmail     ContextKey = "email"
	ContextKeySessionID ContextKey = "session_id"
)

// WithUser adds the authenticated user to context
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	return context.WithValue(ctx, ContextKeyEmail, email)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	return userID, ok && userID != ""
}

// GetEmail extracts the user's email from context
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(ContextKeyEmail).(string)
	return email
}

// WithSessionID adds the browser session id to context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// GetSessionID extracts the browser session id from context
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(ContextKeySessionID).(string)
	return sessionID, ok && sessionID != ""
}
