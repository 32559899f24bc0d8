// Package users implements the user domain behind the API surface:
// account and profile storage, preferences, invitations, and the
// bearer-token identity resolver consumed by the auth gate.
package users

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store-level sentinel errors. The service layer maps these to
// classified API failures; they never reach the wire directly.
var (
	ErrNotFound      = errors.New("users: not found")
	ErrEmailTaken    = errors.New("users: email already registered")
	ErrAlreadyExists = errors.New("users: already exists")
)

// Preferences holds a user's saved preferences.
type Preferences struct {
	DressStyles []string  `json:"dressStyles"`
	ClubGenres  []string  `json:"clubGenres"`
	AgeMin      int       `json:"ageMin"`
	AgeMax      int       `json:"ageMax"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Invitation is a pending invite to create an account. The token doubles
// as the primary key.
type Invitation struct {
	Token     uuid.UUID `json:"token"`
	Email     string    `json:"email"`
	InvitedBy uuid.UUID `json:"invitedBy"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the invitation is past its expiry at the given
// instant.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// ProfileDetails carries the mutable profile attributes supplied by the
// client on profile creation and update.
type ProfileDetails struct {
	FirstName   string
	LastName    string
	DisplayName string
	City        string
}
