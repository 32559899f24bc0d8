package users

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ccoapp/cco-api/pkg/identity"
)

// Store defines the persistence operations the user domain requires.
// Accounts and profiles share the same ID space: a subject has an
// account row, and gains a profile row once onboarding completes. The
// identity resolver treats the presence of a profile row as authoritative
// for which identity shape a subject takes.
type Store interface {
	// Account operations
	CreateAccount(ctx context.Context, account *identity.BasicAccount) error
	GetAccount(ctx context.Context, id uuid.UUID) (*identity.BasicAccount, error)
	GetAccountByEmail(ctx context.Context, email string) (*identity.BasicAccount, error)
	SetEmailVerified(ctx context.Context, id uuid.UUID) error

	// Profile operations
	CreateProfile(ctx context.Context, profile *identity.ProfiledUser) error
	GetProfile(ctx context.Context, id uuid.UUID) (*identity.ProfiledUser, error)
	UpdateProfile(ctx context.Context, profile *identity.ProfiledUser) error

	// DeleteUser removes the account, profile, and preferences for a subject.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Preferences operations
	SavePreferences(ctx context.Context, userID uuid.UUID, prefs *Preferences) error
	GetPreferences(ctx context.Context, userID uuid.UUID) (*Preferences, error)

	// Invitation operations
	CreateInvitation(ctx context.Context, inv *Invitation) error
	GetInvitation(ctx context.Context, token uuid.UUID) (*Invitation, error)
	DeleteInvitation(ctx context.Context, token uuid.UUID) error
	DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error)

	Close() error
}
