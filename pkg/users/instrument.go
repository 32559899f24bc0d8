package users

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ccoapp/cco-api/pkg/identity"
	"github.com/ccoapp/cco-api/pkg/observability"
)

// InstrumentedStore records operation counts and latency for every call
// into the wrapped Store.
type InstrumentedStore struct {
	store   Store
	metrics *observability.Metrics
	backend string
}

// NewInstrumentedStore wraps a store with Prometheus instrumentation.
// backend labels the metrics, e.g. "postgres" or "memory".
func NewInstrumentedStore(store Store, metrics *observability.Metrics, backend string) *InstrumentedStore {
	return &InstrumentedStore{
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// observe records one completed store operation.
func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperationsTotal.WithLabelValues(op, s.backend, status).Inc()
	s.metrics.StoreOperationDuration.WithLabelValues(op, s.backend).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedStore) CreateAccount(ctx context.Context, account *identity.BasicAccount) error {
	start := time.Now()
	err := s.store.CreateAccount(ctx, account)
	s.observe("create_account", start, err)
	return err
}

func (s *InstrumentedStore) GetAccount(ctx context.Context, id uuid.UUID) (*identity.BasicAccount, error) {
	start := time.Now()
	account, err := s.store.GetAccount(ctx, id)
	s.observe("get_account", start, err)
	return account, err
}

func (s *InstrumentedStore) GetAccountByEmail(ctx context.Context, email string) (*identity.BasicAccount, error) {
	start := time.Now()
	account, err := s.store.GetAccountByEmail(ctx, email)
	s.observe("get_account_by_email", start, err)
	return account, err
}

func (s *InstrumentedStore) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.store.SetEmailVerified(ctx, id)
	s.observe("set_email_verified", start, err)
	return err
}

func (s *InstrumentedStore) CreateProfile(ctx context.Context, profile *identity.ProfiledUser) error {
	start := time.Now()
	err := s.store.CreateProfile(ctx, profile)
	s.observe("create_profile", start, err)
	return err
}

func (s *InstrumentedStore) GetProfile(ctx context.Context, id uuid.UUID) (*identity.ProfiledUser, error) {
	start := time.Now()
	profile, err := s.store.GetProfile(ctx, id)
	s.observe("get_profile", start, err)
	return profile, err
}

func (s *InstrumentedStore) UpdateProfile(ctx context.Context, profile *identity.ProfiledUser) error {
	start := time.Now()
	err := s.store.UpdateProfile(ctx, profile)
	s.observe("update_profile", start, err)
	return err
}

func (s *InstrumentedStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.store.DeleteUser(ctx, id)
	s.observe("delete_user", start, err)
	return err
}

func (s *InstrumentedStore) SavePreferences(ctx context.Context, userID uuid.UUID, prefs *Preferences) error {
	start := time.Now()
	err := s.store.SavePreferences(ctx, userID, prefs)
	s.observe("save_preferences", start, err)
	return err
}

func (s *InstrumentedStore) GetPreferences(ctx context.Context, userID uuid.UUID) (*Preferences, error) {
	start := time.Now()
	prefs, err := s.store.GetPreferences(ctx, userID)
	s.observe("get_preferences", start, err)
	return prefs, err
}

func (s *InstrumentedStore) CreateInvitation(ctx context.Context, inv *Invitation) error {
	start := time.Now()
	err := s.store.CreateInvitation(ctx, inv)
	s.observe("create_invitation", start, err)
	return err
}

func (s *InstrumentedStore) GetInvitation(ctx context.Context, token uuid.UUID) (*Invitation, error) {
	start := time.Now()
	inv, err := s.store.GetInvitation(ctx, token)
	s.observe("get_invitation", start, err)
	return inv, err
}

func (s *InstrumentedStore) DeleteInvitation(ctx context.Context, token uuid.UUID) error {
	start := time.Now()
	err := s.store.DeleteInvitation(ctx, token)
	s.observe("delete_invitation", start, err)
	return err
}

func (s *InstrumentedStore) DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	removed, err := s.store.DeleteExpiredInvitations(ctx, now)
	s.observe("delete_expired_invitations", start, err)
	return removed, err
}

func (s *InstrumentedStore) Close() error {
	return s.store.Close()
}
