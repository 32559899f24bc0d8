package users

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccoapp/cco-api/pkg/apperr"
	"github.com/ccoapp/cco-api/pkg/identity"
	"github.com/ccoapp/cco-api/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store, testLogger(), time.Hour), store
}

func requireAppErr(t *testing.T, err error) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*apperr.Error)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	return appErr
}

func seedAccount(t *testing.T, store *MemoryStore, email string, verified bool) *identity.BasicAccount {
	t.Helper()
	account := &identity.BasicAccount{
		ID:            uuid.New(),
		Email:         email,
		EmailVerified: verified,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.CreateAccount(context.Background(), account))
	return account
}

func TestCreateAccount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "amy@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, account.ID)
	assert.Equal(t, "amy@example.com", account.Email)
	assert.False(t, account.EmailVerified)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "amy@example.com")
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, "AMY@example.com")
	appErr := requireAppErr(t, err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status())
	assert.Equal(t, "An account with this email already exists.", appErr.Message)
	assert.Equal(t, apperr.CodeEmailAlreadyExists, appErr.Code)
}

func TestCreateProfile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	account := seedAccount(t, store, "amy@example.com", true)

	profile, err := svc.CreateProfile(ctx, account, ProfileDetails{
		FirstName:   "Amy",
		LastName:    "Ng",
		DisplayName: "amy.n",
		City:        "Berlin",
	})
	require.NoError(t, err)
	assert.Equal(t, account.ID, profile.ID)
	assert.Equal(t, account.Email, profile.Email)
	assert.Equal(t, "Berlin", profile.City)
	assert.False(t, profile.IsSuperAdmin)
}

func TestCreateProfileTwice(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	account := seedAccount(t, store, "amy@example.com", true)
	details := ProfileDetails{FirstName: "Amy", LastName: "Ng", DisplayName: "amy.n"}

	_, err := svc.CreateProfile(ctx, account, details)
	require.NoError(t, err)

	_, err = svc.CreateProfile(ctx, account, details)
	appErr := requireAppErr(t, err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status())
	assert.Equal(t, apperr.CodeProfileAlreadyExists, appErr.Code)
}

func TestUpdateProfile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	account := seedAccount(t, store, "amy@example.com", true)

	profile, err := svc.CreateProfile(ctx, account, ProfileDetails{
		FirstName: "Amy", LastName: "Ng", DisplayName: "amy.n",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, profile, ProfileDetails{
		FirstName: "Amelia", LastName: "Ng", DisplayName: "amelia", City: "Hamburg",
	})
	require.NoError(t, err)
	assert.Equal(t, "Amelia", updated.FirstName)
	assert.Equal(t, "Hamburg", updated.City)

	stored, err := store.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amelia", stored.FirstName)
}

func TestUpdateProfileMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateProfile(context.Background(),
		&identity.ProfiledUser{ID: uuid.New()}, ProfileDetails{FirstName: "X"})
	appErr := requireAppErr(t, err)
	assert.Equal(t, http.StatusNotFound, appErr.Status())
}

func TestPreferencesRoundTrip(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	account := seedAccount(t, store, "amy@example.com", true)
	profile, err := svc.CreateProfile(ctx, account, ProfileDetails{
		FirstName: "Amy", LastName: "Ng", DisplayName: "amy.n",
	})
	require.NoError(t, err)

	// Nothing saved yet: nil, not an error.
	got, err := svc.GetPreferences(ctx, profile)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, svc.SavePreferences(ctx, profile, &Preferences{
		DressStyles: []string{"casual"},
		ClubGenres:  []string{"techno", "house"},
		AgeMin:      21,
		AgeMax:      35,
	}))

	got, err = svc.GetPreferences(ctx, profile)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"techno", "house"}, got.ClubGenres)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestDeleteAccount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	account := seedAccount(t, store, "amy@example.com", true)
	profile, err := svc.CreateProfile(ctx, account, ProfileDetails{
		FirstName: "Amy", LastName: "Ng", DisplayName: "amy.n",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, profile))

	_, err = store.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetProfile(ctx, account.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.DeleteAccount(ctx, profile)
	appErr := requireAppErr(t, err)
	assert.Equal(t, http.StatusNotFound, appErr.Status())
}

func TestInviteUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := &identity.ProfiledUser{ID: uuid.New(), IsSuperAdmin: true}

	inv, err := svc.InviteUser(ctx, admin, "newcomer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "newcomer@example.com", inv.Email)
	assert.Equal(t, admin.ID, inv.InvitedBy)
	assert.True(t, inv.ExpiresAt.After(time.Now()))
}

func TestInviteUserExistingEmail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedAccount(t, store, "taken@example.com", false)
	admin := &identity.ProfiledUser{ID: uuid.New(), IsSuperAdmin: true}

	_, err := svc.InviteUser(ctx, admin, "taken@example.com")
	appErr := requireAppErr(t, err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status())
	assert.Equal(t, apperr.CodeEmailAlreadyExists, appErr.Code)
}

func TestAcceptInvitation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := &identity.ProfiledUser{ID: uuid.New(), IsSuperAdmin: true}

	inv, err := svc.InviteUser(ctx, admin, "newcomer@example.com")
	require.NoError(t, err)

	email, err := svc.AcceptInvitation(ctx, inv.Token.String())
	require.NoError(t, err)
	assert.Equal(t, "newcomer@example.com", email)
}

func TestAcceptInvitationFailures(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	expired := &Invitation{
		Token:     uuid.New(),
		Email:     "late@example.com",
		InvitedBy: uuid.New(),
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateInvitation(ctx, expired))

	tests := []struct {
		name  string
		token string
	}{
		{"not a uuid", "definitely-not-a-uuid"},
		{"unknown token", uuid.NewString()},
		{"expired token", expired.Token.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AcceptInvitation(ctx, tt.token)
			appErr := requireAppErr(t, err)
			assert.Equal(t, http.StatusBadRequest, appErr.Status())
			assert.Equal(t, "Invalid or expired invitation.", appErr.Message)
			assert.Equal(t, apperr.CodeInvitationInvalid, appErr.Code)
		})
	}
}

func TestPurgeExpiredInvitations(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	now := time.Now()
	for i, expiry := range []time.Time{
		now.Add(-time.Hour),
		now.Add(-time.Minute),
		now.Add(time.Hour),
	} {
		require.NoError(t, store.CreateInvitation(ctx, &Invitation{
			Token:     uuid.New(),
			Email:     "n@example.com",
			InvitedBy: uuid.New(),
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
			ExpiresAt: expiry,
		}))
	}

	removed, err := svc.PurgeExpiredInvitations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}
