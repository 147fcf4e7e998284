// Package context provides context utilities for request tracking
package context

import (
	stdctx "context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey int

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey contextKey = iota
	// SessionIDKey is the context key for the conversation session
	SessionIDKey
	// UserIDKey is the context key for the authenticated user
	UserIDKey
)

// NewRequestID generates a new unique request ID
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequestID adds a request ID to the context
func WithRequestID(parent stdctx.Context, requestID string) stdctx.Context {
	return stdctx.WithValue(parent, RequestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context
func RequestIDFromContext(ctx stdctx.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// WithSessionID tags the context with the conversation session it belongs to.
func WithSessionID(parent stdctx.Context, sessionID string) stdctx.Context {
	return stdctx.WithValue(parent, SessionIDKey, sessionID)
}

// SessionIDFromContext returns the session ID, or "" when none is set.
func SessionIDFromContext(ctx stdctx.Context) string {
	return stringValue(ctx, SessionIDKey)
}

// WithUserID stores the identity forwarded by the upstream auth gateway.
func WithUserID(parent stdctx.Context, userID string) stdctx.Context {
	return stdctx.WithValue(parent, UserIDKey, userID)
}

// UserIDFromContext returns the user ID, or "" for anonymous requests.
func UserIDFromContext(ctx stdctx.Context) string {
	return stringValue(ctx, UserIDKey)
}

func stringValue(ctx stdctx.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
