package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ccoapp/cco-api/pkg/identity"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const uniqueViolation = "23505"

// PostgresStore is the production Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle. The caller owns the
// connection configuration; migrations live in the migrations/ directory.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// CreateAccount inserts a new account row.
func (s *PostgresStore) CreateAccount(ctx context.Context, account *identity.BasicAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, email_verified, created_at)
		VALUES ($1, $2, $3, $4)
	`, account.ID, account.Email, account.EmailVerified, account.CreatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// GetAccount returns the account with the given ID.
func (s *PostgresStore) GetAccount(ctx context.Context, id uuid.UUID) (*identity.BasicAccount, error) {
	account := &identity.BasicAccount{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, email_verified, created_at
		FROM accounts WHERE id = $1
	`, id).Scan(&account.ID, &account.Email, &account.EmailVerified, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting account: %w", err)
	}
	return account, nil
}

// GetAccountByEmail returns the account with the given email.
func (s *PostgresStore) GetAccountByEmail(ctx context.Context, email string) (*identity.BasicAccount, error) {
	account := &identity.BasicAccount{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, email_verified, created_at
		FROM accounts WHERE lower(email) = lower($1)
	`, email).Scan(&account.ID, &account.Email, &account.EmailVerified, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting account by email: %w", err)
	}
	return account, nil
}

// SetEmailVerified marks the account's email as verified.
func (s *PostgresStore) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET email_verified = true WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return requireRowAffected(res)
}

// CreateProfile inserts a new profile row for an existing account.
func (s *PostgresStore) CreateProfile(ctx context.Context, profile *identity.ProfiledUser) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, first_name, last_name, display_name, city, is_super_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, profile.ID, profile.Email, profile.FirstName, profile.LastName,
		profile.DisplayName, profile.City, profile.IsSuperAdmin,
		profile.CreatedAt, profile.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile with the given ID.
func (s *PostgresStore) GetProfile(ctx context.Context, id uuid.UUID) (*identity.ProfiledUser, error) {
	profile := &identity.ProfiledUser{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, display_name, city, is_super_admin, created_at, updated_at
		FROM profiles WHERE id = $1
	`, id).Scan(&profile.ID, &profile.Email, &profile.FirstName, &profile.LastName,
		&profile.DisplayName, &profile.City, &profile.IsSuperAdmin,
		&profile.CreatedAt, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile updates the mutable profile attributes.
func (s *PostgresStore) UpdateProfile(ctx context.Context, profile *identity.ProfiledUser) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET first_name = $2, last_name = $3, display_name = $4, city = $5, updated_at = $6
		WHERE id = $1
	`, profile.ID, profile.FirstName, profile.LastName, profile.DisplayName,
		profile.City, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return requireRowAffected(res)
}

// DeleteUser removes the account, profile, and preferences for a subject
// in one transaction.
func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted int64
	for _, q := range []string{
		`DELETE FROM preferences WHERE user_id = $1`,
		`DELETE FROM profiles WHERE id = $1`,
		`DELETE FROM accounts WHERE id = $1`,
	} {
		res, err := tx.ExecContext(ctx, q, id)
		if err != nil {
			return fmt.Errorf("deleting user rows: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}
	if deleted == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// SavePreferences upserts the user's preferences.
func (s *PostgresStore) SavePreferences(ctx context.Context, userID uuid.UUID, prefs *Preferences) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, dress_styles, club_genres, age_min, age_max, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET dress_styles = EXCLUDED.dress_styles,
		    club_genres = EXCLUDED.club_genres,
		    age_min = EXCLUDED.age_min,
		    age_max = EXCLUDED.age_max,
		    updated_at = EXCLUDED.updated_at
	`, userID, pq.Array(prefs.DressStyles), pq.Array(prefs.ClubGenres),
		prefs.AgeMin, prefs.AgeMax, prefs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// GetPreferences returns the user's preferences.
func (s *PostgresStore) GetPreferences(ctx context.Context, userID uuid.UUID) (*Preferences, error) {
	prefs := &Preferences{}
	err := s.db.QueryRowContext(ctx, `
		SELECT dress_styles, club_genres, age_min, age_max, updated_at
		FROM preferences WHERE user_id = $1
	`, userID).Scan(pq.Array(&prefs.DressStyles), pq.Array(&prefs.ClubGenres),
		&prefs.AgeMin, &prefs.AgeMax, &prefs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting preferences: %w", err)
	}
	return prefs, nil
}

// CreateInvitation inserts a new invitation row.
func (s *PostgresStore) CreateInvitation(ctx context.Context, inv *Invitation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (token, email, invited_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, inv.Token, inv.Email, inv.InvitedBy, inv.CreatedAt, inv.ExpiresAt)
	if err != nil {
		return fmt.Errorf("inserting invitation: %w", err)
	}
	return nil
}

// GetInvitation returns the invitation with the given token.
func (s *PostgresStore) GetInvitation(ctx context.Context, token uuid.UUID) (*Invitation, error) {
	inv := &Invitation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT token, email, invited_by, created_at, expires_at
		FROM invitations WHERE token = $1
	`, token).Scan(&inv.Token, &inv.Email, &inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting invitation: %w", err)
	}
	return inv, nil
}

// DeleteInvitation removes the invitation with the given token.
func (s *PostgresStore) DeleteInvitation(ctx context.Context, token uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM invitations WHERE token = $1
	`, token)
	if err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	return requireRowAffected(res)
}

// DeleteExpiredInvitations removes every invitation past its expiry and
// reports how many were removed.
func (s *PostgresStore) DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM invitations WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired invitations: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
