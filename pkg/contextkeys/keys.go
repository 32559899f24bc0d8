// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage
// discoverable.
package contextkeys

import (
	"context"

	"github.com/ccoapp/cco-api/pkg/identity"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains the identity.Identity resolved for the request.
	// Set by: middleware.AuthGate (pkg/middleware/auth.go)
	// Absent for exempt routes. Read-only after the gate runs.
	IdentityKey Key = "identity"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: middleware.RequestID (pkg/middleware/requestid.go)
	// Used by: access logs, error logs
	RequestIDKey Key = "request_id"
)

// WithIdentity attaches the resolved identity to the context.
func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFrom returns the identity attached by the auth gate, or nil for
// exempt routes where no authentication ran.
func IdentityFrom(ctx context.Context) identity.Identity {
	id, ok := ctx.Value(IdentityKey).(identity.Identity)
	if !ok {
		return nil
	}
	return id
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFrom retrieves the request ID from the context, or "".
func RequestIDFrom(ctx context.Context) string {
	id, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return id
}
