package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ccoapp/cco-api/pkg/apperr"
	"github.com/ccoapp/cco-api/pkg/identity"
	"github.com/ccoapp/cco-api/pkg/observability"
)

// DefaultInvitationTTL is used when the service is configured without an
// explicit invitation lifetime.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// Service implements the user domain operations behind the API handlers.
// All failures it raises toward handlers are classified apperr errors;
// store sentinels never escape this layer.
type Service struct {
	store         Store
	log           *observability.Logger
	invitationTTL time.Duration
	now           func() time.Time
}

// NewService creates the user service. A non-positive invitationTTL
// selects the default.
func NewService(store Store, log *observability.Logger, invitationTTL time.Duration) *Service {
	if invitationTTL <= 0 {
		invitationTTL = DefaultInvitationTTL
	}
	return &Service{
		store:         store,
		log:           log,
		invitationTTL: invitationTTL,
		now:           time.Now,
	}
}

// CreateAccount registers a new pre-profile account for the given email.
func (s *Service) CreateAccount(ctx context.Context, email string) (*identity.BasicAccount, error) {
	account := &identity.BasicAccount{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	}

	err := s.store.CreateAccount(ctx, account)
	if errors.Is(err, ErrEmailTaken) {
		return nil, apperr.NewBadRequest("An account with this email already exists.").
			WithCode(apperr.CodeEmailAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.log.WithField("user_id", account.ID.String()).Info("account created")
	return account, nil
}

// GetProfile returns the caller's current profile.
func (s *Service) GetProfile(ctx context.Context, user *identity.ProfiledUser) (*identity.ProfiledUser, error) {
	profile, err := s.store.GetProfile(ctx, user.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFound("Unable to find valid user profile.")
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return profile, nil
}

// CreateProfile promotes a verified account to a fully onboarded user.
func (s *Service) CreateProfile(ctx context.Context, account *identity.BasicAccount, details ProfileDetails) (*identity.ProfiledUser, error) {
	now := s.now().UTC()
	profile := &identity.ProfiledUser{
		ID:          account.ID,
		Email:       account.Email,
		FirstName:   details.FirstName,
		LastName:    details.LastName,
		DisplayName: details.DisplayName,
		City:        details.City,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.CreateProfile(ctx, profile)
	if errors.Is(err, ErrAlreadyExists) {
		return nil, apperr.NewBadRequest("A profile already exists for this account.").
			WithCode(apperr.CodeProfileAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	s.log.WithField("user_id", profile.ID.String()).Info("profile created")
	return profile, nil
}

// UpdateProfile applies the mutable profile attributes.
func (s *Service) UpdateProfile(ctx context.Context, user *identity.ProfiledUser, details ProfileDetails) (*identity.ProfiledUser, error) {
	updated := *user
	updated.FirstName = details.FirstName
	updated.LastName = details.LastName
	updated.DisplayName = details.DisplayName
	updated.City = details.City
	updated.UpdatedAt = s.now().UTC()

	err := s.store.UpdateProfile(ctx, &updated)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFound("Unable to find valid user profile.")
	}
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return &updated, nil
}

// SavePreferences replaces the caller's stored preferences.
func (s *Service) SavePreferences(ctx context.Context, user *identity.ProfiledUser, prefs *Preferences) error {
	prefs.UpdatedAt = s.now().UTC()
	if err := s.store.SavePreferences(ctx, user.ID, prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// GetPreferences returns the caller's preferences, or nil when none have
// been saved yet.
func (s *Service) GetPreferences(ctx context.Context, user *identity.ProfiledUser) (*Preferences, error) {
	prefs, err := s.store.GetPreferences(ctx, user.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	return prefs, nil
}

// DeleteAccount removes the caller's account, profile, and preferences.
func (s *Service) DeleteAccount(ctx context.Context, user *identity.ProfiledUser) error {
	err := s.store.DeleteUser(ctx, user.ID)
	if errors.Is(err, ErrNotFound) {
		return apperr.NewNotFound("Unable to find valid authorized user.")
	}
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	s.log.WithField("user_id", user.ID.String()).Info("account deleted")
	return nil
}

// InviteUser creates an invitation for the given email, valid for the
// configured TTL.
func (s *Service) InviteUser(ctx context.Context, inviter *identity.ProfiledUser, email string) (*Invitation, error) {
	if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
		return nil, apperr.NewBadRequest("An account with this email already exists.").
			WithCode(apperr.CodeEmailAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking invite email: %w", err)
	}

	now := s.now().UTC()
	inv := &Invitation{
		Token:     uuid.New(),
		Email:     email,
		InvitedBy: inviter.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.invitationTTL),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("creating invitation: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"invited_by": inviter.ID.String(),
		"expires_at": inv.ExpiresAt,
	}).Info("invitation created")
	return inv, nil
}

// AcceptInvitation validates an invitation token and returns the invited
// email.
func (s *Service) AcceptInvitation(ctx context.Context, token string) (string, error) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return "", apperr.NewBadRequest("Invalid or expired invitation.").
			WithCode(apperr.CodeInvitationInvalid)
	}

	inv, err := s.store.GetInvitation(ctx, parsed)
	if errors.Is(err, ErrNotFound) {
		return "", apperr.NewBadRequest("Invalid or expired invitation.").
			WithCode(apperr.CodeInvitationInvalid)
	}
	if err != nil {
		return "", fmt.Errorf("loading invitation: %w", err)
	}

	if inv.Expired(s.now()) {
		return "", apperr.NewBadRequest("Invalid or expired invitation.").
			WithCode(apperr.CodeInvitationInvalid)
	}

	return inv.Email, nil
}

// PurgeExpiredInvitations removes invitations past their expiry. It runs
// on the scheduler, not the request path.
func (s *Service) PurgeExpiredInvitations(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpiredInvitations(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging invitations: %w", err)
	}
	if removed > 0 {
		s.log.Infof("purged %d expired invitations", removed)
	}
	return removed, nil
}
