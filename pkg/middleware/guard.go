package middleware

import (
	"context"

	"github.com/ccoapp/cco-api/pkg/apperr"
	"github.com/ccoapp/cco-api/pkg/contextkeys"
	"github.com/ccoapp/cco-api/pkg/identity"
)

// The capability guards below are the complete authorization vocabulary
// of the API: every endpoint declares exactly one of them (or none, for
// fully public endpoints) as its precondition. They are pure functions
// of the request context and never mutate state.

// RequireProfile asserts the caller is a fully onboarded user and
// returns the profile.
func RequireProfile(ctx context.Context) (*identity.ProfiledUser, error) {
	switch id := contextkeys.IdentityFrom(ctx).(type) {
	case *identity.ProfiledUser:
		return id, nil
	case nil:
		return nil, apperr.NewNotFound("Unable to find valid authorized user.")
	default:
		return nil, apperr.NewUnauthorized("Unable to find valid user profile.")
	}
}

// RequireSuperAdminProfile asserts the caller is a fully onboarded user
// with super-admin rank.
func RequireSuperAdminProfile(ctx context.Context) (*identity.ProfiledUser, error) {
	user, err := RequireProfile(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsSuperAdmin {
		return nil, apperr.NewForbidden("This endpoint is only accessible to super admins.")
	}
	return user, nil
}

// RequireAccountWithoutProfile asserts the caller holds an account that
// has verified its email but has not yet created a profile.
func RequireAccountWithoutProfile(ctx context.Context) (*identity.BasicAccount, error) {
	switch id := contextkeys.IdentityFrom(ctx).(type) {
	case *identity.BasicAccount:
		if !id.EmailVerified {
			return nil, apperr.NewForbidden("Please verify your email address, then log in and try again.")
		}
		return id, nil
	case nil:
		return nil, apperr.NewNotFound("Unable to find valid authorized user.")
	default:
		return nil, apperr.NewUnauthorized("This endpoint is only accessible to users who have an account but do not yet have a profile.")
	}
}
