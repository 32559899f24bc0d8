package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccoapp/cco-api/pkg/identity"
)

// MemoryStore is an in-memory Store for development and tests. All maps
// are guarded by a single RWMutex; values are copied on the way in and
// out so callers never share memory with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[uuid.UUID]identity.BasicAccount
	profiles    map[uuid.UUID]identity.ProfiledUser
	preferences map[uuid.UUID]Preferences
	invitations map[uuid.UUID]Invitation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[uuid.UUID]identity.BasicAccount),
		profiles:    make(map[uuid.UUID]identity.ProfiledUser),
		preferences: make(map[uuid.UUID]Preferences),
		invitations: make(map[uuid.UUID]Invitation),
	}
}

// CreateAccount stores a new account. The email must be unused by any
// account or profile.
func (s *MemoryStore) CreateAccount(ctx context.Context, account *identity.BasicAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(account.Email) {
		return ErrEmailTaken
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *MemoryStore) emailTakenLocked(email string) bool {
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return true
		}
	}
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			return true
		}
	}
	return false
}

// GetAccount returns the account with the given ID.
func (s *MemoryStore) GetAccount(ctx context.Context, id uuid.UUID) (*identity.BasicAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := a
	return &out, nil
}

// GetAccountByEmail returns the account with the given email.
func (s *MemoryStore) GetAccountByEmail(ctx context.Context, email string) (*identity.BasicAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			out := a
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// SetEmailVerified marks the account's email as verified.
func (s *MemoryStore) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.EmailVerified = true
	s.accounts[id] = a
	return nil
}

// CreateProfile stores a new profile for an existing account.
func (s *MemoryStore) CreateProfile(ctx context.Context, profile *identity.ProfiledUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; ok {
		return ErrAlreadyExists
	}
	s.profiles[profile.ID] = *profile
	return nil
}

// GetProfile returns the profile with the given ID.
func (s *MemoryStore) GetProfile(ctx context.Context, id uuid.UUID) (*identity.ProfiledUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	return &out, nil
}

// UpdateProfile replaces the stored profile.
func (s *MemoryStore) UpdateProfile(ctx context.Context, profile *identity.ProfiledUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; !ok {
		return ErrNotFound
	}
	s.profiles[profile.ID] = *profile
	return nil
}

// DeleteUser removes the account, profile, and preferences for a subject.
func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hasAccount := s.accounts[id]
	_, hasProfile := s.profiles[id]
	if !hasAccount && !hasProfile {
		return ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.profiles, id)
	delete(s.preferences, id)
	return nil
}

// SavePreferences stores the user's preferences, replacing any existing set.
func (s *MemoryStore) SavePreferences(ctx context.Context, userID uuid.UUID, prefs *Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *prefs
	stored.DressStyles = append([]string(nil), prefs.DressStyles...)
	stored.ClubGenres = append([]string(nil), prefs.ClubGenres...)
	s.preferences[userID] = stored
	return nil
}

// GetPreferences returns the user's preferences, or ErrNotFound when the
// user has never saved any.
func (s *MemoryStore) GetPreferences(ctx context.Context, userID uuid.UUID) (*Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.preferences[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	out.DressStyles = append([]string(nil), p.DressStyles...)
	out.ClubGenres = append([]string(nil), p.ClubGenres...)
	return &out, nil
}

// CreateInvitation stores a new invitation.
func (s *MemoryStore) CreateInvitation(ctx context.Context, inv *Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invitations[inv.Token] = *inv
	return nil
}

// GetInvitation returns the invitation with the given token.
func (s *MemoryStore) GetInvitation(ctx context.Context, token uuid.UUID) (*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invitations[token]
	if !ok {
		return nil, ErrNotFound
	}
	out := inv
	return &out, nil
}

// DeleteInvitation removes the invitation with the given token.
func (s *MemoryStore) DeleteInvitation(ctx context.Context, token uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invitations[token]; !ok {
		return ErrNotFound
	}
	delete(s.invitations, token)
	return nil
}

// DeleteExpiredInvitations removes every invitation past its expiry.
func (s *MemoryStore) DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for token, inv := range s.invitations {
		if inv.Expired(now) {
			delete(s.invitations, token)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
