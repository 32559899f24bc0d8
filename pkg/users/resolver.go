package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ccoapp/cco-api/pkg/apperr"
	"github.com/ccoapp/cco-api/pkg/identity"
)

// claimsCacheSize bounds the parsed-claims cache. Claims for a given
// token string never change, so the cache only saves repeated signature
// verification; expiry is still checked on every request.
const claimsCacheSize = 4096

// TokenResolver resolves HS256 access tokens into one of the two
// identity shapes. The token subject is the account ID; whether the
// subject resolves to a BasicAccount or a ProfiledUser depends entirely
// on whether a profile row exists at resolution time.
type TokenResolver struct {
	store  Store
	secret []byte
	claims *lru.Cache[string, *jwt.RegisteredClaims]
	now    func() time.Time
}

// NewTokenResolver creates a resolver verifying tokens with the given
// HMAC secret.
func NewTokenResolver(store Store, secret []byte) (*TokenResolver, error) {
	if len(secret) == 0 {
		return nil, errors.New("users: token secret must not be empty")
	}

	cache, err := lru.New[string, *jwt.RegisteredClaims](claimsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating claims cache: %w", err)
	}

	return &TokenResolver{
		store:  store,
		secret: secret,
		claims: cache,
		now:    time.Now,
	}, nil
}

// ResolveIdentity implements identity.Resolver. Every token failure is
// an Unauthorized error; store failures propagate unclassified.
func (r *TokenResolver) ResolveIdentity(ctx context.Context, token string) (identity.Identity, error) {
	claims, err := r.parseClaims(token)
	if err != nil {
		return nil, err
	}

	// Expiry must be rechecked here: cached claims were valid when first
	// verified, not necessarily now.
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(r.now()) {
		return nil, apperr.NewUnauthorized("Token has expired.").WithCode(apperr.CodeTokenExpired)
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperr.NewUnauthorized("Invalid or malformed token.").WithCode(apperr.CodeTokenInvalid)
	}

	profile, err := r.store.GetProfile(ctx, subject)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("resolving profile: %w", err)
	}

	account, err := r.store.GetAccount(ctx, subject)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewUnauthorized("Invalid or malformed token.").WithCode(apperr.CodeTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving account: %w", err)
	}
	return account, nil
}

// parseClaims verifies the token signature and returns its claims,
// consulting the cache first. Only successfully verified claims are
// cached.
func (r *TokenResolver) parseClaims(token string) (*jwt.RegisteredClaims, error) {
	if claims, ok := r.claims.Get(token); ok {
		return claims, nil
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, apperr.NewUnauthorized("Token has expired.").WithCode(apperr.CodeTokenExpired)
	}
	if err != nil {
		return nil, apperr.NewUnauthorized("Invalid or malformed token.").WithCode(apperr.CodeTokenInvalid)
	}

	r.claims.Add(token, claims)
	return claims, nil
}
