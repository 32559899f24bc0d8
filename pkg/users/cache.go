package users

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/ccoapp/cco-api/pkg/identity"
	"github.com/ccoapp/cco-api/pkg/observability"
)

// CachedStore layers a Redis read-through cache over another Store.
// Only point reads are cached (account, profile, preferences); writes go
// straight through and invalidate the affected keys. Cache failures are
// treated as misses so Redis outages degrade to database reads.
type CachedStore struct {
	store   Store
	redis   *redis.Client
	metrics *observability.Metrics // may be nil
	ttl     time.Duration
}

// NewCachedStore creates the cache layer and verifies the Redis
// connection.
func NewCachedStore(store Store, redisClient *redis.Client, metrics *observability.Metrics, ttl time.Duration) (*CachedStore, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &CachedStore{
		store:   store,
		redis:   redisClient,
		metrics: metrics,
		ttl:     ttl,
	}, nil
}

func accountKey(id uuid.UUID) string     { return "account:" + id.String() }
func profileKey(id uuid.UUID) string     { return "profile:" + id.String() }
func preferencesKey(id uuid.UUID) string { return "preferences:" + id.String() }

func (c *CachedStore) hit(cache string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	}
}

func (c *CachedStore) miss(cache string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// getCached loads key into dest, returning false on miss or decode error.
func (c *CachedStore) getCached(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *CachedStore) setCached(ctx context.Context, key string, value interface{}) {
	if data, err := json.Marshal(value); err == nil {
		c.redis.Set(ctx, key, data, c.ttl)
	}
}

// CreateAccount passes through to the underlying store.
func (c *CachedStore) CreateAccount(ctx context.Context, account *identity.BasicAccount) error {
	return c.store.CreateAccount(ctx, account)
}

// GetAccount returns the account, serving repeated reads from Redis.
func (c *CachedStore) GetAccount(ctx context.Context, id uuid.UUID) (*identity.BasicAccount, error) {
	account := &identity.BasicAccount{}
	if c.getCached(ctx, accountKey(id), account) {
		c.hit("account")
		return account, nil
	}
	c.miss("account")

	account, err := c.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	c.setCached(ctx, accountKey(id), account)
	return account, nil
}

// GetAccountByEmail passes through; email lookups are rare (account
// creation and invites only).
func (c *CachedStore) GetAccountByEmail(ctx context.Context, email string) (*identity.BasicAccount, error) {
	return c.store.GetAccountByEmail(ctx, email)
}

// SetEmailVerified updates the store and invalidates the cached account.
func (c *CachedStore) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	if err := c.store.SetEmailVerified(ctx, id); err != nil {
		return err
	}
	c.redis.Del(ctx, accountKey(id))
	return nil
}

// CreateProfile writes through and invalidates the cached account: the
// subject's identity shape changes the moment the profile row exists.
func (c *CachedStore) CreateProfile(ctx context.Context, profile *identity.ProfiledUser) error {
	if err := c.store.CreateProfile(ctx, profile); err != nil {
		return err
	}
	c.redis.Del(ctx, accountKey(profile.ID), profileKey(profile.ID))
	return nil
}

// GetProfile returns the profile, serving repeated reads from Redis.
func (c *CachedStore) GetProfile(ctx context.Context, id uuid.UUID) (*identity.ProfiledUser, error) {
	profile := &identity.ProfiledUser{}
	if c.getCached(ctx, profileKey(id), profile) {
		c.hit("profile")
		return profile, nil
	}
	c.miss("profile")

	profile, err := c.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	c.setCached(ctx, profileKey(id), profile)
	return profile, nil
}

// UpdateProfile writes through and invalidates the cached profile.
func (c *CachedStore) UpdateProfile(ctx context.Context, profile *identity.ProfiledUser) error {
	if err := c.store.UpdateProfile(ctx, profile); err != nil {
		return err
	}
	c.redis.Del(ctx, profileKey(profile.ID))
	return nil
}

// DeleteUser writes through and invalidates every key for the subject.
func (c *CachedStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := c.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	c.redis.Del(ctx, accountKey(id), profileKey(id), preferencesKey(id))
	return nil
}

// SavePreferences writes through and invalidates the cached preferences.
func (c *CachedStore) SavePreferences(ctx context.Context, userID uuid.UUID, prefs *Preferences) error {
	if err := c.store.SavePreferences(ctx, userID, prefs); err != nil {
		return err
	}
	c.redis.Del(ctx, preferencesKey(userID))
	return nil
}

// GetPreferences returns the preferences, serving repeated reads from Redis.
func (c *CachedStore) GetPreferences(ctx context.Context, userID uuid.UUID) (*Preferences, error) {
	prefs := &Preferences{}
	if c.getCached(ctx, preferencesKey(userID), prefs) {
		c.hit("preferences")
		return prefs, nil
	}
	c.miss("preferences")

	prefs, err := c.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.setCached(ctx, preferencesKey(userID), prefs)
	return prefs, nil
}

// CreateInvitation passes through; invitations are single-use and not
// worth caching.
func (c *CachedStore) CreateInvitation(ctx context.Context, inv *Invitation) error {
	return c.store.CreateInvitation(ctx, inv)
}

// GetInvitation passes through.
func (c *CachedStore) GetInvitation(ctx context.Context, token uuid.UUID) (*Invitation, error) {
	return c.store.GetInvitation(ctx, token)
}

// DeleteInvitation passes through.
func (c *CachedStore) DeleteInvitation(ctx context.Context, token uuid.UUID) error {
	return c.store.DeleteInvitation(ctx, token)
}

// DeleteExpiredInvitations passes through.
func (c *CachedStore) DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error) {
	return c.store.DeleteExpiredInvitations(ctx, now)
}

// Close closes the Redis connection and the underlying store.
func (c *CachedStore) Close() error {
	redisErr := c.redis.Close()
	if err := c.store.Close(); err != nil {
		return err
	}
	return redisErr
}
