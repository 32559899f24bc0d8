package api

import (
	"time"

	"github.com/google/uuid"
)

// CreateAccountReq is the body for POST /api/v1/user/create-account.
type CreateAccountReq struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateAccountRes is the response for account creation.
type CreateAccountRes struct {
	UserID uuid.UUID `json:"userId"`
}

// CreateProfileReq is the body for profile creation and update.
type CreateProfileReq struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	DisplayName string `json:"displayName" validate:"required,max=100"`
	City        string `json:"city" validate:"max=100"`
}

// SavePreferencesReq is the body for POST /api/v1/user/preferences.
type SavePreferencesReq struct {
	DressStyles []string `json:"dressStyles" validate:"required,min=1"`
	ClubGenres  []string `json:"clubGenres" validate:"required,min=1"`
	AgeMin      int      `json:"ageMin" validate:"gte=18,lte=100"`
	AgeMax      int      `json:"ageMax" validate:"gte=18,lte=100,gtefield=AgeMin"`
}

// InviteUserReq is the body for POST /api/v1/user/invite.
type InviteUserReq struct {
	Email string `json:"email" validate:"required,email"`
}

// InviteUserRes is the response for a created invitation.
type InviteUserRes struct {
	Token     uuid.UUID `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AcceptInvitationReq is the body for POST /api/v1/user/accept-invitation.
type AcceptInvitationReq struct {
	Token string `json:"token" validate:"required"`
}

// AcceptInvitationRes is the response for a redeemed invitation.
type AcceptInvitationRes struct {
	Email string `json:"email"`
}

// StatusRes is the generic acknowledgement body.
type StatusRes struct {
	Status string `json:"status"`
}
