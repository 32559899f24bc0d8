package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccoapp/cco-api/pkg/identity"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresCreateAccount(t *testing.T) {
	store, mock := newMockStore(t)
	account := &identity.BasicAccount{ID: uuid.New(), Email: "amy@example.com", CreatedAt: time.Now()}

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(account.ID, account.Email, account.EmailVerified, account.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.CreateAccount(context.Background(), account))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateAccountUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)
	account := &identity.BasicAccount{ID: uuid.New(), Email: "amy@example.com"}

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreateAccount(context.Background(), account)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestPostgresGetAccount(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	created := time.Now().UTC()

	mock.ExpectQuery("SELECT id, email, email_verified, created_at").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "email_verified", "created_at"}).
			AddRow(id, "amy@example.com", true, created))

	account, err := store.GetAccount(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "amy@example.com", account.Email)
	assert.True(t, account.EmailVerified)
}

func TestPostgresGetAccountNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, email, email_verified, created_at").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "email_verified", "created_at"}))

	_, err := store.GetAccount(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresCreateProfileUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO profiles").
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreateProfile(context.Background(), &identity.ProfiledUser{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestPostgresUpdateProfileNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	profile := &identity.ProfiledUser{ID: uuid.New(), FirstName: "Amy"}

	mock.ExpectExec("UPDATE profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateProfile(context.Background(), profile)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresDeleteUser(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM preferences").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM profiles").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM accounts").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.DeleteUser(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM preferences").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM profiles").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM accounts").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.DeleteUser(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresSavePreferencesUpsert(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	prefs := &Preferences{
		DressStyles: []string{"casual"},
		ClubGenres:  []string{"techno"},
		AgeMin:      21,
		AgeMax:      35,
		UpdatedAt:   time.Now(),
	}

	mock.ExpectExec("INSERT INTO preferences").
		WithArgs(id, pq.Array(prefs.DressStyles), pq.Array(prefs.ClubGenres),
			prefs.AgeMin, prefs.AgeMax, prefs.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SavePreferences(context.Background(), id, prefs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteExpiredInvitations(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectExec("DELETE FROM invitations").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := store.DeleteExpiredInvitations(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}

func TestPostgresQueryErrorsAreWrapped(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT id, email").WithArgs(id).WillReturnError(boom)

	_, err := store.GetAccount(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}
