// Package identity defines the two shapes an authenticated caller can
// take and the collaborator interface that resolves a bearer token into
// one of them. A subject is always exactly one of the two shapes at any
// point in time; which one depends on server-side state at resolution
// time, never on client input.
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity is a sealed union of BasicAccount and ProfiledUser. The
// unexported marker method keeps the set of implementations closed so
// guard dispatch over the variants stays exhaustive.
type Identity interface {
	// Subject returns the stable account identifier.
	Subject() uuid.UUID

	sealed()
}

// BasicAccount is an account that has not yet completed profile setup.
type BasicAccount struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ProfiledUser is a fully onboarded account.
type ProfiledUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	DisplayName  string    `json:"displayName"`
	City         string    `json:"city,omitempty"`
	IsSuperAdmin bool      `json:"isSuperAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Subject implements Identity.
func (a *BasicAccount) Subject() uuid.UUID { return a.ID }

// Subject implements Identity.
func (u *ProfiledUser) Subject() uuid.UUID { return u.ID }

func (*BasicAccount) sealed() {}
func (*ProfiledUser) sealed() {}

// Resolver turns an opaque bearer token into an Identity. Failures are
// expected to be apperr errors, typically Unauthorized for invalid,
// expired, or malformed tokens, and propagate to the caller unchanged.
type Resolver interface {
	ResolveIdentity(ctx context.Context, token string) (Identity, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, token string) (Identity, error)

// ResolveIdentity implements Resolver.
func (f ResolverFunc) ResolveIdentity(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}
